package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/retrograde/internal/models"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/desertthunder/retrograde/internal/suggest"
)

// tasteHintLimit caps how many stored feedback texts are folded into a prompt.
const tasteHintLimit = 10

// Suggester runs the suggestion pipeline for one request.
type Suggester interface {
	Run(ctx context.Context, req suggest.Request) ([]suggest.EnrichedSong, error)
}

// FeedbackStore is the slice of the feedback repository the API needs.
type FeedbackStore interface {
	Create(feedback *models.Feedback) error
	List(criteria map[string]any) ([]*models.Feedback, error)
	Texts(userID string, limit int) ([]string, error)
}

// PlaylistCreator is the slice of the catalog client the playlist endpoint needs.
type PlaylistCreator interface {
	services.ProfileFetcher
	CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, uris []string) (*services.SpotifyPlaylist, error)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// SuggestionsHandler serves GET /api/suggestions.
type SuggestionsHandler struct {
	pipeline Suggester
	profiles services.ProfileFetcher
	feedback FeedbackStore
	logger   *log.Logger
}

// NewSuggestionsHandler creates the suggestions endpoint handler. feedback may
// be nil when no store is configured; stored taste hints are then skipped.
func NewSuggestionsHandler(pipeline Suggester, profiles services.ProfileFetcher, feedback FeedbackStore, logger *log.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{pipeline: pipeline, profiles: profiles, feedback: feedback, logger: logger}
}

func (h *SuggestionsHandler) Routes() []string {
	return []string{"/api/suggestions"}
}

// ServeHTTP runs the pipeline for the authenticated listener.
//
// Model failure maps to 502, parse failure and anything unexpected to 500; an
// empty song list is a normal 200.
func (h *SuggestionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token, ok := BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	req := suggest.Request{AccessToken: token}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		req.Date = date
	}

	profile, err := h.profiles.UserProfile(r.Context(), token)
	if err != nil {
		h.logger.Error("profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}

	if h.feedback != nil {
		hints, err := h.feedback.Texts(profile.ID, tasteHintLimit)
		if err != nil {
			// Stored hints are an enhancement, not a prerequisite.
			h.logger.Warn("feedback lookup failed, skipping taste hints", "error", err)
		} else {
			req.TasteHints = hints
		}
	}

	songs, err := h.pipeline.Run(r.Context(), req)
	switch {
	case errors.Is(err, shared.ErrGenerationUnavailable):
		writeError(w, http.StatusBadGateway, "failed to generate suggestions")
		return
	case err != nil:
		h.logger.Error("suggestion pipeline failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build suggestions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// FeedbackHandler serves GET and POST /api/feedback.
type FeedbackHandler struct {
	profiles services.ProfileFetcher
	feedback FeedbackStore
	logger   *log.Logger
}

func NewFeedbackHandler(profiles services.ProfileFetcher, feedback FeedbackStore, logger *log.Logger) *FeedbackHandler {
	return &FeedbackHandler{profiles: profiles, feedback: feedback, logger: logger}
}

func (h *FeedbackHandler) Routes() []string {
	return []string{"/api/feedback"}
}

type feedbackView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback store unavailable")
		return
	}

	token, ok := BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	profile, err := h.profiles.UserProfile(r.Context(), token)
	if err != nil {
		h.logger.Error("profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, profile.ID)
	case http.MethodPost:
		h.create(w, r, profile.ID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *FeedbackHandler) list(w http.ResponseWriter, r *http.Request, userID string) {
	criteria := map[string]any{"user_id": userID}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			criteria["limit"] = limit
		}
	}

	entries, err := h.feedback.List(criteria)
	if err != nil {
		h.logger.Error("feedback list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}

	views := make([]feedbackView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, feedbackView{ID: entry.ID(), Text: entry.Text(), CreatedAt: entry.CreatedAt()})
	}

	writeJSON(w, http.StatusOK, map[string]any{"feedback": views})
}

func (h *FeedbackHandler) create(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	feedback := models.NewFeedback(0, userID, body.Text)
	if err := h.feedback.Create(feedback); err != nil {
		h.logger.Error("feedback create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	writeJSON(w, http.StatusCreated, feedbackView{ID: feedback.ID(), Text: feedback.Text(), CreatedAt: feedback.CreatedAt()})
}

// PlaylistsHandler serves POST /api/playlists, writing a suggestion set back
// to the catalog as a private playlist.
type PlaylistsHandler struct {
	spotify PlaylistCreator
	logger  *log.Logger
}

func NewPlaylistsHandler(spotify PlaylistCreator, logger *log.Logger) *PlaylistsHandler {
	return &PlaylistsHandler{spotify: spotify, logger: logger}
}

func (h *PlaylistsHandler) Routes() []string {
	return []string{"/api/playlists"}
}

func (h *PlaylistsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token, ok := BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		URIs        []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	profile, err := h.spotify.UserProfile(r.Context(), token)
	if err != nil {
		h.logger.Error("profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve profile")
		return
	}

	playlist, err := h.spotify.CreatePlaylist(r.Context(), token, profile.ID, body.Name, body.Description, body.URIs)
	if err != nil {
		h.logger.Error("playlist creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   playlist.ID,
		"name": playlist.Name,
		"url":  playlist.ExternalURLs.Spotify,
	})
}

// HealthHandler serves GET /health.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
