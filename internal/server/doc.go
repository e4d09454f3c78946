// Package server provides HTTP routing, middleware, and the web API for the
// suggestion service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Web API
//
// [NewAPIRouter] assembles the JSON endpoints: GET /api/suggestions runs the
// suggestion pipeline for the bearer token's listener, /api/feedback manages
// stored taste hints, POST /api/playlists writes a suggestion set back to the
// catalog, and /auth/login, /auth/callback and /auth/refresh carry the
// browser OAuth flow for the frontend. Handlers depend on narrow interfaces
// ([Suggester], [FeedbackStore], [Catalog]) so tests substitute fakes.
//
// # CLI OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for
// the CLI login command. A temporary HTTP server starts on the redirect port,
// the handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay attacks.
package server
