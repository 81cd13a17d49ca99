// Package spotify reads playlists from the Spotify Web API.
package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/mixtape/internal/domain/track"
)

// pageLimit is the Spotify API maximum per playlist items page.
const pageLimit = 100

// ErrInvalidPlaylist is returned for inputs that carry no playlist ID.
var ErrInvalidPlaylist = errors.New("invalid playlist URL")

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string // ISO 3166-1 alpha-2; empty disables market filtering
}

// Client reads playlist items, retrying rate limited and server errors.
type Client struct {
	api        *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// New creates a client authorized with a long-lived refresh token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)
	// The returned HTTP client exchanges the refresh token for access tokens on demand.
	httpClient := auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return newClient(httpClient, cfg.Market), nil
}

func newClient(httpClient *http.Client, market string, opts ...spotify.ClientOption) *Client {
	return &Client{
		api:        spotify.New(httpClient, opts...),
		market:     strings.ToUpper(market),
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Market returns the configured market.
func (c *Client) Market() string {
	return c.market
}

// GetPlaylistTracks returns every track of a playlist. Podcast episodes and
// local files (tracks without an ID) are left out.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error) {
	id, err := extractPlaylistID(playlistURL)
	if err != nil {
		return nil, err
	}

	var tracks []track.Track
	for offset := 0; ; offset += pageLimit {
		page, err := c.playlistItems(ctx, id, spotify.Limit(pageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get playlist items (offset %d)", offset)
		}

		for _, item := range page.Items {
			if ft := item.Track.Track; ft != nil && ft.ID != "" {
				tracks = append(tracks, c.convertTrack(ft))
			}
		}

		if page.Next == "" || len(page.Items) == 0 {
			return tracks, nil
		}
	}
}

// CheckPlaylistExists fetches a single item to confirm the playlist is readable.
func (c *Client) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	id, err := extractPlaylistID(playlistURL)
	if err != nil {
		return err
	}
	if _, err := c.playlistItems(ctx, id, spotify.Limit(1)); err != nil {
		return errors.Wrap(err, "playlist does not exist or is not accessible")
	}
	return nil
}

func (c *Client) playlistItems(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error) {
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	var page *spotify.PlaylistItemPage
	err := c.retry(ctx, func() error {
		p, err := c.api.GetPlaylistItems(ctx, id, opts...)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}

// convertTrack converts a Spotify FullTrack to a domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	markets := make([]string, 0, len(t.AvailableMarkets))
	for _, m := range t.AvailableMarkets {
		markets = append(markets, string(m))
	}
	// With a market in the request, Spotify relinks tracks and drops available_markets.
	if len(markets) == 0 && c.market != "" {
		markets = append(markets, c.market)
	}

	link := t.ExternalURLs["spotify"]
	if link == "" {
		link = "https://open.spotify.com/track/" + string(t.ID)
	}

	return track.Track{
		ID:         string(t.ID),
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		Duration:   time.Duration(t.Duration) * time.Millisecond,
		URL:        link,
		Markets:    markets,
		IsPlayable: t.IsPlayable,
	}
}

// retry calls fn until it succeeds, fails permanently, or maxRetries is reached.
// The delay grows linearly between attempts.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "retry aborted")
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable reports whether err is a rate limit or server side failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}

	// Transport errors only carry the status in their text.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") {
		return true
	}
	for _, code := range []string{"429", "500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// extractPlaylistID accepts a spotify:playlist: URI, an open.spotify.com link
// (localized paths included) or a bare ID.
func extractPlaylistID(input string) (spotify.ID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrInvalidPlaylist
	}

	if id, ok := strings.CutPrefix(input, "spotify:playlist:"); ok {
		if id == "" {
			return "", ErrInvalidPlaylist
		}
		return spotify.ID(id), nil
	}

	if !strings.Contains(input, "://") {
		return spotify.ID(input), nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPlaylist, "%s", input)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "playlist" && segments[i+1] != "" {
			return spotify.ID(segments[i+1]), nil
		}
	}
	return "", errors.Wrapf(ErrInvalidPlaylist, "%s", input)
}
