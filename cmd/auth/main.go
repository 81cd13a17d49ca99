// Package main provides the Spotify authorization helper that prints a refresh token.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/mixtape/internal/infra/logger"
)

var (
	app          = kingpin.New("mixtape-auth", "Obtain a Spotify refresh token for mixtape's spotify source")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	timeout      = app.Flag("timeout", "How long to wait for the browser callback").Default("5m").Duration()
)

type callbackResult struct {
	token *oauth2.Token
	err   error
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if _, err := logger.Init(logger.Config{Output: "stderr", Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	token, err := authorize()
	if err != nil {
		zlog.Error().Msgf("authorization failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("Refresh Token:")
	fmt.Println(token.RefreshToken)
	fmt.Println("")
	fmt.Println("Add it to the spotify section of your config:")
	fmt.Println("")
	fmt.Println("spotify:")
	fmt.Printf("  refresh_token: \"%s\"\n", token.RefreshToken)
	fmt.Println("")
	fmt.Println("or export it:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=\"%s\"\n", token.RefreshToken)
}

// authorize runs the authorization code flow against a local callback server.
func authorize() (*oauth2.Token, error) {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(fmt.Sprintf("http://127.0.0.1:%d/callback", *port)),
		spotifyauth.WithClientID(*clientID),
		spotifyauth.WithClientSecret(*clientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)
	state := uuid.New().String()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", callbackHandler(auth, state, results))
	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- callbackResult{err: errors.Wrap(err, "callback server failed")}
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zlog.Warn().Err(err).Msg("failed to shut down callback server")
		}
	}()

	fmt.Println("Open the following URL to authorize mixtape:")
	fmt.Println("")
	fmt.Println(auth.AuthURL(state))
	fmt.Println("")
	zlog.Info().Msgf("waiting for callback on port %d (timeout %s)", *port, *timeout)

	select {
	case res := <-results:
		return res.token, res.err
	case <-time.After(*timeout):
		return nil, errors.Newf("no callback received within %s", *timeout)
	}
}

// callbackHandler exchanges the authorization code and reports the outcome once.
func callbackHandler(auth *spotifyauth.Authenticator, state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("state"); got != state {
			http.Error(w, "state mismatch", http.StatusForbidden)
			zlog.Warn().Msgf("ignoring callback with unexpected state %q", got)
			return
		}

		token, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "failed to get token", http.StatusForbidden)
			sendResult(results, callbackResult{err: errors.Wrap(err, "token exchange failed")})
			return
		}

		fmt.Fprintln(w, "mixtape is authorized. You can close this window.")
		sendResult(results, callbackResult{token: token})
	}
}

func sendResult(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}
