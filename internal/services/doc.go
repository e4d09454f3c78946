// Package services defines clients for the external APIs the application
// depends on. SpotifyService handles OAuth, catalog search and playlist
// creation against the Spotify Web API, and GeminiService produces song
// suggestions from the Gemini API. Consumers depend on the small interfaces
// declared in services.go rather than the concrete clients.
package services
