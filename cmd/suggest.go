package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/retrograde/internal/formatter"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/desertthunder/retrograde/internal/suggest"
	"github.com/desertthunder/retrograde/internal/ui"
	"github.com/urfave/cli/v3"
)

// Suggest runs the suggestion pipeline and renders the result.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	generator, err := r.resolveGenerator(ctx)
	if err != nil {
		return err
	}

	searcher := r.searcher
	if searcher == nil {
		if r.spotify == nil {
			return fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
		}
		searcher = r.spotify
	}

	req := suggest.Request{
		TasteHints:  cmd.StringSlice("hint"),
		AccessToken: token,
	}

	date := time.Now()
	if raw := cmd.String("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", shared.ErrInvalidFlag)
		}
		req.Date = date
	}

	pipeline := suggest.NewPipeline(generator, searcher, r.logger, float64(r.config.Suggestions.SearchesPerSecond))
	songs, err := pipeline.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("suggestion run failed: %w", err)
	}

	shortDate := date.Format("January 2")

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(shortDate, songs, path); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d songs to %s\n", len(songs), path)
	}

	if cmd.Bool("tui") {
		return ui.Run(shortDate, songs)
	}

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(map[string]any{"date": shortDate, "songs": songs}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Songs for %s", shortDate))
	if len(songs) == 0 {
		r.writePlain("No playable suggestions today. Try again, the model rolls differently each run.\n")
		return nil
	}
	for i, song := range songs {
		r.writePlain("%2d. %s - %s\n", i+1, song.Artist, song.Title)
		if song.Reason != "" {
			r.writePlain("    %s\n", song.Reason)
		}
		if song.URL != "" {
			r.writePlain("    %s\n", song.URL)
		}
	}

	return nil
}

// accessToken returns a usable Spotify bearer token, refreshing the stored
// one when a refresh token is available.
func (r *Runner) accessToken(ctx context.Context) (string, error) {
	creds := &r.config.Credentials.Spotify

	if creds.RefreshToken != "" && r.spotify != nil {
		token, err := r.spotify.Refresh(ctx, creds.RefreshToken)
		if err == nil {
			if err := creds.Update(token); err == nil && r.configPath != "" {
				if err := shared.SaveConfig(r.configPath, r.config); err != nil {
					r.logger.Warn("failed to persist refreshed token", "error", err)
				}
			}
			return token.AccessToken, nil
		}
		r.logger.Warn("token refresh failed, falling back to stored token", "error", err)
	}

	if creds.AccessToken == "" {
		return "", fmt.Errorf("%w: run 'retrograde auth' first", shared.ErrNotAuthenticated)
	}

	return creds.AccessToken, nil
}

// resolveGenerator returns the injected generator or builds the Gemini client
// from config.
func (r *Runner) resolveGenerator(ctx context.Context) (services.Generator, error) {
	if r.generator != nil {
		return r.generator, nil
	}

	gemini := r.config.Credentials.Gemini
	svc, err := services.NewGeminiService(ctx, gemini.APIKey, gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("gemini credentials missing from config: %w", err)
	}

	r.generator = svc
	return svc, nil
}
