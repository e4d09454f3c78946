package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/retrograde/internal/models"
	"github.com/desertthunder/retrograde/internal/shared"
)

// FeedbackRepository implements [models.Repository] for taste feedback
// [models.Feedback] persistence.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new [FeedbackRepository] with the given database connection
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a new feedback entry with generated ID and sequence
func (r *FeedbackRepository) Create(feedback *models.Feedback) error {
	if err := feedback.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "feedback")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	feedback.SetID(id)

	query := `
		INSERT INTO feedback (id, sequence, user_id, text, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, feedback.UserID(), feedback.Text(), feedback.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	return nil
}

// Get retrieves a feedback entry by ID, excluding soft-deleted entries
func (r *FeedbackRepository) Get(id string) (*models.Feedback, error) {
	query := `
		SELECT id, sequence, user_id, text, created_at, deleted_at
		FROM feedback
		WHERE id = ? AND deleted_at IS NULL
	`

	feedback, err := scanFeedback(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feedback not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}

	return feedback, nil
}

// Delete soft-deletes a feedback entry by ID
func (r *FeedbackRepository) Delete(id string) error {
	query := `
		UPDATE feedback
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("feedback not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves feedback entries newest first, excluding soft-deleted ones.
//
// Supported criteria: "user_id" (string) restricts to one listener, "limit"
// (int) caps the result count.
func (r *FeedbackRepository) List(criteria map[string]any) ([]*models.Feedback, error) {
	query := `
		SELECT id, sequence, user_id, text, created_at, deleted_at
		FROM feedback
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY created_at DESC, sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var entries []*models.Feedback
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, feedback)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return entries, nil
}

// Texts is a convenience over List returning only the feedback strings,
// newest first, for folding into a suggestion prompt.
func (r *FeedbackRepository) Texts(userID string, limit int) ([]string, error) {
	entries, err := r.List(map[string]any{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Text())
	}

	return texts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row scanner) (*models.Feedback, error) {
	var (
		id        string
		sequence  int
		userID    string
		text      string
		createdAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &userID, &text, &createdAt, &deletedAt); err != nil {
		return nil, err
	}

	feedback := models.NewFeedback(sequence, userID, text)
	feedback.SetID(id)
	feedback.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		feedback.SetDeletedAt(&deletedAt.Time)
	}

	return feedback, nil
}
