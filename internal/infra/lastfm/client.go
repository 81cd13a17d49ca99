// Package lastfm reads top track charts from the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/domain/track"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	defaultLimit   = 20
	maxLimit       = 100
	cacheTTL       = 10 * time.Minute
)

// Config represents Last.fm client configuration.
type Config struct {
	APIKey string
}

// Client is a Last.fm API client. Tag charts are cached for cacheTTL.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	tracks  []track.Track
	expires time.Time
}

// chartResponse is the body of tag.getTopTracks and chart.getTopTracks.
type chartResponse struct {
	Tracks struct {
		Track []chartTrack `json:"track"`
	} `json:"tracks"`
}

type chartTrack struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Duration string `json:"duration"` // seconds, "0" when unknown
	Artist   struct {
		Name string `json:"name"`
	} `json:"artist"`
}

// errorResponse is returned with HTTP 200 or 4xx for API level failures.
type errorResponse struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}, nil
}

// GetTopTracks returns the top tracks for a tag (tag.getTopTracks).
func (c *Client) GetTopTracks(ctx context.Context, tagName string, limit int) ([]track.Track, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, errors.New("tag name is required")
	}
	limit = clampLimit(limit)

	key := strings.ToLower(tagName) + ":" + strconv.Itoa(limit)
	if tracks, ok := c.cached(key); ok {
		zlog.Debug().Msgf("using cached top tracks for tag: %s", tagName)
		return tracks, nil
	}

	tracks, err := c.fetchChart(ctx, url.Values{
		"method": {"tag.getTopTracks"},
		"tag":    {tagName},
		"limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}

	c.store(key, tracks)
	zlog.Debug().Msgf("cached top tracks for tag: %s (count: %d)", tagName, len(tracks))
	return tracks, nil
}

// GetChartTopTracks returns the global chart (chart.getTopTracks). It is never cached.
func (c *Client) GetChartTopTracks(ctx context.Context, limit int) ([]track.Track, error) {
	return c.fetchChart(ctx, url.Values{
		"method": {"chart.getTopTracks"},
		"limit":  {strconv.Itoa(clampLimit(limit))},
	})
}

func (c *Client) cached(key string) ([]track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.tracks, true
}

func (c *Client) store(key string, tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{tracks: tracks, expires: c.now().Add(cacheTTL)}
}

func (c *Client) fetchChart(ctx context.Context, params url.Values) ([]track.Track, error) {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", params.Get("method"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return nil, errors.Newf("last.fm API error %d: %s", apiErr.Code, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("last.fm API returned status %d", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tracks := make([]track.Track, 0, len(chart.Tracks.Track))
	for _, t := range chart.Tracks.Track {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

func (t chartTrack) toTrack() track.Track {
	tr := track.Track{
		Name: t.Name,
		URL:  t.URL,
	}
	if t.Artist.Name != "" {
		tr.Artists = []string{t.Artist.Name}
	}
	if secs, err := strconv.Atoi(t.Duration); err == nil && secs > 0 {
		tr.Duration = time.Duration(secs) * time.Second
	}
	return tr
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
