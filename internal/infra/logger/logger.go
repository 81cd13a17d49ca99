// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or "file"
	Level  string // "debug", "info", "warn", "error"
	File   string // log file path (used when Output is "file")
}

// Init builds a logger from cfg and installs it as the global zerolog logger.
// The returned closer releases the log file, if one was opened, and puts back
// the logger that was installed before. It is a no-op for stdout and stderr.
func Init(cfg Config) (io.Closer, error) {
	writer, file, err := openWriter(cfg)
	if err != nil {
		return nil, err
	}

	var closer io.Closer = nopCloser{}
	if file != nil {
		closer = &fileCloser{file: file, previous: zlog.Logger, level: zerolog.GlobalLevel()}
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, string(filepath.Separator))
		if len(parts) > 1 {
			return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
		}
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	install(New(writer, cfg.Level, isConsole(cfg.Output)))
	return closer, nil
}

func install(logger zerolog.Logger) {
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fileCloser restores the previous global logger before closing the file,
// so later entries are not written to a closed descriptor.
type fileCloser struct {
	file     *os.File
	previous zerolog.Logger
	level    zerolog.Level
	once     sync.Once
}

func (c *fileCloser) Close() error {
	err := os.ErrClosed
	c.once.Do(func() {
		install(c.previous)
		zerolog.SetGlobalLevel(c.level)
		err = c.file.Close()
	})
	return err
}

// New creates a logger writing to w.
// Console loggers are human readable; others emit JSON lines.
// The caller is only recorded at debug level.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	lvl := ParseLevel(level)

	var ctx zerolog.Context
	if console {
		ctx = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			PartsOrder: []string{"time", "level", "message", "caller"},
			FormatCaller: func(i interface{}) string {
				if s, ok := i.(string); ok && s != "" {
					return "(" + s + ")"
				}
				return ""
			},
		}).With().Timestamp()
	} else {
		ctx = zerolog.New(w).With().Timestamp()
	}

	if lvl == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger().Level(lvl)
}

// ParseLevel parses the log level string. Unknown levels fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func isConsole(output string) bool {
	switch strings.ToLower(output) {
	case "stdout", "stderr", "":
		return true
	}
	return false
}

// openWriter returns the destination for cfg. file is set only when a log
// file was opened and must be closed by the caller.
func openWriter(cfg Config) (w io.Writer, file *os.File, err error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr", "":
		return os.Stderr, nil, nil
	}

	path := cfg.File
	if path == "" {
		path = cfg.Output
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	return f, f, nil
}
