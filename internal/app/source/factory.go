package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/infra/config"
)

// Clients holds the remote clients sources may need. Nil clients are allowed
// as long as no source of that type is configured.
type Clients struct {
	Spotify SpotifyClient
	LastFM  LastFMClient
}

// Types lists the supported source types.
func Types() []string {
	return []string{"static", "file", "dir", "spotify", "lastfm"}
}

// NewChainFromConfig creates a source chain from configuration.
func NewChainFromConfig(cfg *config.Config, clients Clients) (*Chain, error) {
	sources := make([]Source, 0, len(cfg.Sources))

	for i, scfg := range cfg.Sources {
		var (
			src Source
			err error
		)
		zlog.Debug().Msgf("creating source: index=%d type=%s settings=%+v", i+1, scfg.Type, scfg.Settings)
		switch scfg.Type {
		case "static":
			src, err = NewStaticSource(scfg.Settings)
		case "file":
			src, err = NewFileSource(scfg.Settings)
		case "dir":
			src, err = NewDirSource(scfg.Settings)
		case "spotify":
			src, err = NewSpotifySource(clients.Spotify, scfg.Settings)
		case "lastfm":
			src, err = NewLastFMSource(clients.LastFM, scfg.Settings)
		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		sources = append(sources, src)
		zlog.Info().Msgf("registered source: index=%d type=%s", i+1, scfg.Type)
	}

	return NewChain(sources), nil
}

// Chain loads titles from several sources in order.
type Chain struct {
	sources []Source
}

// NewChain creates a new source chain.
func NewChain(sources []Source) *Chain {
	return &Chain{sources: sources}
}

// Sources returns the sources in the chain.
func (c *Chain) Sources() []Source {
	return c.sources
}

// Titles concatenates the titles of every source.
// The first failing source aborts the load.
func (c *Chain) Titles(ctx context.Context) ([]string, error) {
	titles := make([]string, 0)
	for i, src := range c.sources {
		t, err := src.Titles(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "source %d (%s)", i+1, src.Name())
		}
		zlog.Debug().Msgf("source %d (%s) returned %d titles", i+1, src.Name(), len(t))
		titles = append(titles, t...)
	}
	return titles, nil
}
