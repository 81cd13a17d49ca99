package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	require.Error(t, err)

	c, err := New(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "token",
		Market:       "jp",
	})
	require.NoError(t, err)
	assert.Equal(t, "JP", c.Market())
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected spotify.ID
		wantErr  bool
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Localized URL with trailing slash",
			input:    "https://open.spotify.com/intl-ja/playlist/abc123/",
			expected: "abc123",
		},
		{
			name:     "Plain playlist ID",
			input:    "  37i9dQZF1DXcBWIGoYBM5M ",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{name: "Empty string", input: "", wantErr: true},
		{name: "Empty URI", input: "spotify:playlist:", wantErr: true},
		{name: "Album URL", input: "https://open.spotify.com/album/xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := extractPlaylistID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPlaylist))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "api rate limit", err: spotify.Error{Message: "slow down", Status: 429}, expected: true},
		{name: "api server error", err: spotify.Error{Message: "oops", Status: 502}, expected: true},
		{name: "api not found", err: spotify.Error{Message: "missing", Status: 404}, expected: false},
		{name: "wrapped api error", err: errors.Wrap(spotify.Error{Message: "x", Status: 503}, "get"), expected: true},
		{name: "rate limit text", err: errors.New("Error 429: rate limit exceeded"), expected: true},
		{name: "server error text", err: errors.New("503 Service Unavailable"), expected: true},
		{name: "client error text", err: errors.New("400 Bad Request"), expected: false},
		{name: "generic error", err: errors.New("something went wrong"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestClient_Retry(t *testing.T) {
	newTestClient := func() *Client {
		return &Client{maxRetries: 3}
	}

	t.Run("succeeds after retryable failures", func(t *testing.T) {
		calls := 0
		err := newTestClient().retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return spotify.Error{Status: 503}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := newTestClient().retry(context.Background(), func() error {
			calls++
			return spotify.Error{Status: 404}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := newTestClient().retry(context.Background(), func() error {
			calls++
			return errors.New("429 rate limit")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, 3, calls)
	})

	t.Run("aborts on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newTestClient()
		c.retryDelay = time.Second

		calls := 0
		err := c.retry(ctx, func() error {
			calls++
			return errors.New("500 internal")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry aborted")
		assert.Equal(t, 1, calls)
	})
}

func TestClient_ConvertTrack(t *testing.T) {
	playable := true
	ft := &spotify.FullTrack{}
	ft.ID = "track-1"
	ft.Name = "Lofi Study"
	ft.Artists = []spotify.SimpleArtist{{Name: "Beats"}, {Name: "Guest"}}
	ft.Duration = 180000
	ft.Album.Name = "Study Session"
	ft.IsPlayable = &playable

	c := &Client{market: "JP"}
	tr := c.convertTrack(ft)

	assert.Equal(t, "track-1", tr.ID)
	assert.Equal(t, "Lofi Study", tr.Name)
	assert.Equal(t, []string{"Beats", "Guest"}, tr.Artists)
	assert.Equal(t, "Study Session", tr.Album)
	assert.Equal(t, float64(180), tr.Duration.Seconds())
	assert.Equal(t, "https://open.spotify.com/track/track-1", tr.URL)
	assert.Equal(t, []string{"JP"}, tr.Markets)
	require.NotNil(t, tr.IsPlayable)
	assert.True(t, *tr.IsPlayable)
}

func trackJSON(id, name string) string {
	return fmt.Sprintf(`{"type":"track","id":%q,"name":%q,"artists":[{"name":"Beats"}],`+
		`"album":{"name":"Study"},"duration_ms":1000,"available_markets":["JP"]}`, id, name)
}

func TestClient_GetPlaylistTracks(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlists/pl1/tracks", r.URL.Path)
		assert.Equal(t, "JP", r.URL.Query().Get("market"))
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case "0":
			fmt.Fprintf(w, `{"items":[{"track":%s},{"track":%s}],"next":"more"}`,
				trackJSON("t1", "Lofi Study"), trackJSON("", "Local File"))
		default:
			fmt.Fprintf(w, `{"items":[{"track":%s}],"next":""}`, trackJSON("t2", "Evening Jazz"))
		}
	}))
	defer srv.Close()

	c := newClient(srv.Client(), "JP", spotify.WithBaseURL(srv.URL+"/"))
	tracks, err := c.GetPlaylistTracks(context.Background(), "spotify:playlist:pl1")
	require.NoError(t, err)

	require.Len(t, tracks, 2)
	assert.Equal(t, "Lofi Study", tracks[0].Name)
	assert.Equal(t, "Evening Jazz", tracks[1].Name)
	assert.Equal(t, []string{"Beats"}, tracks[0].Artists)
	assert.Equal(t, []string{"0", "100"}, offsets)
}

func TestClient_CheckPlaylistExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/playlists/found/tracks" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"Not found."}}`)
			return
		}
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"items":[],"next":""}`)
	}))
	defer srv.Close()

	c := newClient(srv.Client(), "", spotify.WithBaseURL(srv.URL+"/"))
	assert.NoError(t, c.CheckPlaylistExists(context.Background(), "https://open.spotify.com/playlist/found"))
	assert.Error(t, c.CheckPlaylistExists(context.Background(), "missing"))
	assert.Error(t, c.CheckPlaylistExists(context.Background(), ""))
}
