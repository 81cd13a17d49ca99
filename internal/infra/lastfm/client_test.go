package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topTracksBody = `{
	"tracks": {
		"track": [
			{
				"name": "Track 1",
				"url": "url1",
				"duration": "215",
				"artist": {"name": "Artist 1", "mbid": "ambid1", "url": "aurl1"},
				"listeners": "1000"
			},
			{
				"name": "Track 2",
				"url": "url2",
				"artist": {"name": "Artist 2", "mbid": "ambid2", "url": "aurl2"},
				"listeners": "500"
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetTopTracks(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "tag.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "chillhop", r.URL.Query().Get("tag"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, topTracksBody)
	})

	ctx := context.Background()
	tracks, err := client.GetTopTracks(ctx, "chillhop", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Track 1", tracks[0].Name)
	assert.Equal(t, []string{"Artist 1"}, tracks[0].Artists)
	assert.Equal(t, "url2", tracks[1].URL)

	// Second call is served from the cache
	cached, err := client.GetTopTracks(ctx, "chillhop", 5)
	require.NoError(t, err)
	assert.Equal(t, tracks, cached)
	assert.Equal(t, 1, calls)
}

func TestGetTopTracks_RequiresTag(t *testing.T) {
	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)

	_, err = client.GetTopTracks(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestGetChartTopTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chart.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, topTracksBody)
	})

	tracks, err := client.GetChartTopTracks(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestGetTopTracks_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 10, "message": "Invalid API key"}`)
	})

	_, err := client.GetTopTracks(context.Background(), "rock", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestGetTopTracks_HTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetTopTracks(context.Background(), "rock", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0))
	assert.Equal(t, 20, clampLimit(-3))
	assert.Equal(t, 42, clampLimit(42))
	assert.Equal(t, 100, clampLimit(1000))
}

func TestGetTopTracks_CacheExpires(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, topTracksBody)
	})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	ctx := context.Background()
	tracks, err := client.GetTopTracks(ctx, "Jazz", 5)
	require.NoError(t, err)
	assert.Equal(t, 215*time.Second, tracks[0].Duration)
	assert.Zero(t, tracks[1].Duration)

	_, err = client.GetTopTracks(ctx, "jazz", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(cacheTTL + time.Second)
	_, err = client.GetTopTracks(ctx, "jazz", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
