package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/retrograde/internal/services"
)

// Catalog is everything the web API needs from the Spotify client.
type Catalog interface {
	Authenticator
	CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, uris []string) (*services.SpotifyPlaylist, error)
}

// NewAPIRouter assembles the full web API: suggestions, feedback, playlists,
// browser OAuth, and the health probe, behind request logging.
func NewAPIRouter(pipeline Suggester, catalog Catalog, feedback FeedbackStore, frontendURL string, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))

	router.Handler(NewSuggestionsHandler(pipeline, catalog, feedback, logger))
	router.Handler(NewFeedbackHandler(catalog, feedback, logger))
	router.Handler(NewPlaylistsHandler(catalog, logger))
	router.Handler(NewAuthHandler(catalog, frontendURL, logger))
	router.Handler(&HealthHandler{})

	return router
}
