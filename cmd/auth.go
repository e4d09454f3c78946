package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/retrograde/internal/server"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth runs the Spotify authorization code flow from the terminal and stores
// the resulting tokens in the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	spotify := r.spotify
	if spotify == nil {
		svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("spotify credentials missing from config: %w", err)
		}
		spotify = svc
		r.spotify = svc
	}

	token, err := r.doOAuth(spotify, "authorization")
	if err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}

	configPath := r.configPath
	if configPath == "" {
		configPath = cmd.String("config")
	}
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	r.writePlain("✓ Authorization successful, tokens saved to %s\n", configPath)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(spotify *services.SpotifyService, prefix string) (*oauth2.Token, error) {
	state := shared.GenerateID()

	authURL := spotify.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(spotify.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
