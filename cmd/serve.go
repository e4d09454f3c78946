package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/retrograde/internal/repositories"
	"github.com/desertthunder/retrograde/internal/server"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/suggest"
	"github.com/urfave/cli/v3"
)

// Serve starts the suggestion web API.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
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

	generator, err := r.resolveGenerator(ctx)
	if err != nil {
		return err
	}

	pipeline := suggest.NewPipeline(generator, spotify, r.logger, float64(r.config.Suggestions.SearchesPerSecond))

	// The API degrades without a feedback store: suggestions still work,
	// stored taste hints are skipped.
	var store server.FeedbackStore
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("feedback store unavailable", "error", err)
	} else {
		defer db.Close()
		store = repositories.NewFeedbackRepository(db)
	}

	router := server.NewAPIRouter(pipeline, spotify, store, r.config.Server.FrontendURL, r.logger)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("suggestion API listening at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
