package models

import (
	"fmt"
	"strings"
	"time"
)

// Feedback is a single free-text taste preference a listener submitted,
// folded into future suggestion prompts for that listener.
type Feedback struct {
	id        string
	sequence  int
	userID    string
	text      string
	createdAt time.Time
	deletedAt *time.Time
}

// NewFeedback creates a Feedback entry for the given listener.
//
// The ID is assigned by the repository on Create.
func NewFeedback(sequence int, userID, text string) *Feedback {
	return &Feedback{
		sequence:  sequence,
		userID:    userID,
		text:      strings.TrimSpace(text),
		createdAt: time.Now(),
	}
}

func (f *Feedback) ID() string            { return f.id }
func (f *Feedback) Sequence() int         { return f.sequence }
func (f *Feedback) UserID() string        { return f.userID }
func (f *Feedback) Text() string          { return f.text }
func (f *Feedback) CreatedAt() time.Time  { return f.createdAt }
func (f *Feedback) DeletedAt() *time.Time { return f.deletedAt }

func (f *Feedback) SetID(id string)           { f.id = id }
func (f *Feedback) SetCreatedAt(t time.Time)  { f.createdAt = t }
func (f *Feedback) SetDeletedAt(t *time.Time) { f.deletedAt = t }

// Validate checks that the entry carries a listener and non-blank text.
func (f *Feedback) Validate() error {
	if f.userID == "" {
		return fmt.Errorf("feedback requires a user id")
	}
	if f.text == "" {
		return fmt.Errorf("feedback text must not be blank")
	}
	return nil
}
