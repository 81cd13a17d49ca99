// Package main provides the mixtape command line entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/huh/spinner"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/app/filter"
	"github.com/osa030/mixtape/internal/app/notification"
	"github.com/osa030/mixtape/internal/app/session"
	"github.com/osa030/mixtape/internal/app/source"
	"github.com/osa030/mixtape/internal/infra/config"
	"github.com/osa030/mixtape/internal/infra/lastfm"
	"github.com/osa030/mixtape/internal/infra/logger"
	"github.com/osa030/mixtape/internal/infra/spotify"
)

var (
	app        = kingpin.New("mixtape", "Playlist bookkeeping with play, skip, list and shuffle")
	configPath = app.Flag("config", "Path to config file").Default("config/mixtape.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// run command
	runCmd   = app.Command("run", "Load sources from config and execute the playlist script")
	progress = runCmd.Flag("progress", "Show a spinner while loading sources").Bool()
	follow   = runCmd.Flag("follow", "Keep adding titles appended to file sources until interrupted").Bool()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
	listSourcesCmd = app.Command("list-sources", "List available source types and exit")
)

var (
	demoTracks = []string{"Lofi Study", "Chillhop Beats", "Evening Jazz"}
	demoScript = []string{"play", "skip", "list"}
)

func init() {
	// demo command (default) - no need to store the command
	app.Command("demo", "Play the built-in demo playlist (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters(os.Stdout)
		return
	case listSourcesCmd.FullCommand():
		printSources(os.Stdout)
		return
	}

	closeLog, err := logger.Init(loggerConfig(config.LogConfig{Level: "info", Output: "stderr"}))
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if command == runCmd.FullCommand() {
		err = run(ctx)
	} else {
		err = demo(ctx, os.Stdout)
	}
	stop()
	if err != nil {
		zlog.Error().Msgf("mixtape error: %v", err)
	}
	_ = closeLog.Close()
	if err != nil {
		os.Exit(1)
	}
}

// loggerConfig applies the command-line flags on top of the log section.
func loggerConfig(cfg config.LogConfig) logger.Config {
	lc := logger.Config{
		Output: cfg.Output,
		Level:  cfg.Level,
		File:   cfg.File,
	}
	if *verbose {
		lc.Level = "debug"
	}
	if *logfile != "" {
		lc.Output = *logfile
		lc.File = *logfile
	}
	return lc
}

// demo replays the built-in scenario with default settings. Environment overrides
// do not apply, so the output is fixed.
func demo(ctx context.Context, w io.Writer) error {
	cfg, err := config.Default()
	if err != nil {
		return err
	}

	notif := notification.NewManager(notification.NewMessages(cfg.Messages))
	notif.Subscribe(notification.NewConsoleStream(w))
	defer notif.Close()

	sess, err := session.NewManager(cfg, notif)
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	defer sess.Close()

	if _, _, err := sess.AddTracks(ctx, demoTracks); err != nil {
		return err
	}
	return sess.RunScript(ctx, demoScript)
}

// run executes the configured playlist. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(ctx context.Context) error {
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	closeLog, err := logger.Init(loggerConfig(cfg.Log))
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer closeLog.Close()

	notif, err := newNotificationManager(cfg)
	if err != nil {
		return err
	}
	defer notif.Close()

	clients, spotifyClient, err := newClients(ctx, cfg)
	if err != nil {
		return err
	}

	chain, err := source.NewChainFromConfig(cfg, clients)
	if err != nil {
		return errors.Wrap(err, "failed to create sources")
	}

	if spotifyClient != nil {
		if err := validatePlaylists(ctx, chain, spotifyClient); err != nil {
			return err
		}
	}

	titles, err := loadTitles(ctx, chain)
	if err != nil {
		return errors.Wrap(err, "failed to load tracks")
	}

	sess, err := session.NewManager(cfg, notif)
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	defer sess.Close()

	added, rejected, err := sess.AddTracks(ctx, titles)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("Loaded %d tracks (%d rejected) into %q", added, len(rejected), cfg.Playlist.Name)

	if err := sess.RunScript(ctx, cfg.Playlist.Script); err != nil {
		return errors.Wrap(err, "script failed")
	}

	if *follow {
		return followFiles(ctx, chain, sess)
	}
	return nil
}

// newNotificationManager subscribes the streams selected in the notification section.
func newNotificationManager(cfg *config.Config) (*notification.Manager, error) {
	notif := notification.NewManager(
		notification.NewMessages(cfg.Messages),
		notification.WithSendTimeout(time.Duration(cfg.Notification.SendTimeoutMs)*time.Millisecond),
	)

	switch cfg.Notification.Console {
	case "stdout":
		notif.Subscribe(notification.NewConsoleStream(os.Stdout))
	case "stderr":
		notif.Subscribe(notification.NewConsoleStream(os.Stderr))
	case "none":
	default:
		return nil, errors.Newf("unsupported console output: %s", cfg.Notification.Console)
	}

	if cfg.Notification.Log {
		notif.Subscribe(notification.NewLogStream(zlog.Logger))
	}
	return notif, nil
}

// newClients creates only the remote clients the configured sources need.
func newClients(ctx context.Context, cfg *config.Config) (source.Clients, *spotify.Client, error) {
	var clients source.Clients

	var spotifyClient *spotify.Client
	if cfg.HasSource("spotify") {
		c, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return clients, nil, errors.Wrap(err, "failed to create Spotify client")
		}
		spotifyClient = c
		clients.Spotify = c
	}

	if cfg.HasSource("lastfm") {
		c, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey})
		if err != nil {
			return clients, nil, errors.Wrap(err, "failed to create Last.fm client")
		}
		clients.LastFM = c
	}
	return clients, spotifyClient, nil
}

// validatePlaylists checks that every Spotify playlist exists before loading tracks.
func validatePlaylists(ctx context.Context, chain *source.Chain, client *spotify.Client) error {
	var errs []string
	for _, src := range chain.Sources() {
		s, ok := src.(*source.SpotifySource)
		if !ok {
			continue
		}
		zlog.Info().Msgf("Validating playlist: url=%s", s.PlaylistURL())
		if err := client.CheckPlaylistExists(ctx, s.PlaylistURL()); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.PlaylistURL(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Newf("playlist validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// loadTitles loads every source, behind a spinner when --progress is set.
func loadTitles(ctx context.Context, chain *source.Chain) ([]string, error) {
	var titles []string
	load := func(ctx context.Context) error {
		var err error
		titles, err = chain.Titles(ctx)
		return err
	}

	if !*progress {
		return titles, load(ctx)
	}
	err := spinner.New().Title("Loading tracks...").Context(ctx).ActionWithErr(load).Run()
	return titles, err
}

// followFiles adds titles appended to file sources until ctx is done.
func followFiles(ctx context.Context, chain *source.Chain, sess *session.Manager) error {
	titles := make(chan string)
	watching := 0
	for _, src := range chain.Sources() {
		fs, ok := src.(*source.FileSource)
		if !ok {
			continue
		}
		ch, err := fs.Watch(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to follow %s", fs.Path())
		}
		watching++
		zlog.Info().Msgf("Following %s", fs.Path())
		go func() {
			for title := range ch {
				select {
				case titles <- title:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	if watching == 0 {
		zlog.Warn().Msg("--follow set but no file source is configured")
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("Received shutdown signal...")
			return nil
		case title := <-titles:
			if _, _, err := sess.AddTracks(ctx, []string{title}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// printFilters prints available filters.
func printFilters(w io.Writer) {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Fprintf(w, "  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

var sourceDescriptions = map[string]string{
	"static":  "Inline list of titles (settings: tracks)",
	"file":    "Plain text or M3U file (settings: path)",
	"dir":     "Audio files in a directory, titled from their tags (settings: path, recursive, with_artist)",
	"spotify": "Spotify playlist (settings: playlist_url, with_artist, limit)",
	"lastfm":  "Last.fm top tracks for a tag or the global chart (settings: tag, limit, with_artist)",
}

// printSources prints available source types.
func printSources(w io.Writer) {
	fmt.Fprintln(w, "Available Sources:")
	for _, t := range source.Types() {
		fmt.Fprintf(w, "  %-10s - %s\n", t, sourceDescriptions[t])
	}
}
