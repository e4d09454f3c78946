// package services defines narrow interfaces for the external collaborators:
// the Spotify catalog and the Gemini generative model.
package services

import (
	"context"
)

// Track represents a resolved, playable catalog track.
type Track struct {
	URI        string `json:"spotifyUri"`
	AlbumArt   string `json:"albumArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	URL        string `json:"spotifyUrl,omitempty"`
	Title      string `json:"-"`
	Artist     string `json:"-"`
}

// TrackSearcher resolves a free-text query against a music catalog.
//
// The access token is an opaque bearer credential forwarded verbatim; the
// client never inspects it. A zero-result search returns
// [shared.ErrTrackNotFound]; callers treat any error as "unresolved".
type TrackSearcher interface {
	// SearchTrack returns the catalog's best single match for the query.
	SearchTrack(ctx context.Context, query, accessToken string) (*Track, error)
}

// Generator produces a free-form text answer for a compiled prompt.
//
// Implementations enable retrieval grounding so the model may consult live
// web data, and concatenate every text fragment of the answer in order. A
// non-success response from the model service is fatal and reported as
// [shared.ErrGenerationUnavailable]; callers decide whether to retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Profile identifies the authenticated catalog user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// ProfileFetcher resolves a bearer credential to the catalog user it belongs to.
type ProfileFetcher interface {
	UserProfile(ctx context.Context, accessToken string) (*Profile, error)
}
