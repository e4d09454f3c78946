package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/retrograde/internal/models"
	"github.com/desertthunder/retrograde/internal/repositories"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/urfave/cli/v3"
)

// openDatabase opens the configured sqlite database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// FeedbackAdd stores one taste note.
func (r *Runner) FeedbackAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	text := cmd.StringArg("text")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: feedback text", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewFeedbackRepository(db)
	feedback := models.NewFeedback(0, cmd.String("user"), text)
	if err := repo.Create(feedback); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	return r.writePlain("✓ Stored taste note %s\n", feedback.ID())
}

// FeedbackList prints stored taste notes, newest first.
func (r *Runner) FeedbackList(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewFeedbackRepository(db)
	entries, err := repo.List(map[string]any{
		"user_id": cmd.String("user"),
		"limit":   int(cmd.Int("limit")),
	})
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	if cmd.Bool("json") {
		views := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			views = append(views, map[string]any{
				"id":        entry.ID(),
				"text":      entry.Text(),
				"createdAt": entry.CreatedAt(),
			})
		}
		return r.writeJSON(views, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No taste notes stored for %s\n", cmd.String("user"))
	}

	r.writePlainHeader(fmt.Sprintf("Taste notes for %s", cmd.String("user")))
	for i, entry := range entries {
		r.writePlain("%2d. %s (%s)\n", i+1, entry.Text(), entry.CreatedAt().Format("2006-01-02"))
	}

	return nil
}
