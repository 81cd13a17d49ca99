package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain of the enabled registered filters.
// Filters run in name order so the outcome does not depend on map iteration.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	names := make([]string, 0, len(cfg.Filters))
	for name := range cfg.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	chain := NewChain()
	for _, name := range names {
		if !cfg.IsFilterEnabled(name) {
			continue
		}

		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}

		f := factory()
		if err := f.ValidateConfig(cfg.FilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
		zlog.Debug().Msgf("enabled filter: %s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
func (c *Chain) Execute(ctx context.Context, req Request) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, req)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
