// Spotify API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/retrograde/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyPlaylist represents a created playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	URI          string       `json:"uri"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyService is the catalog client. It implements [TrackSearcher] and
// [ProfileFetcher] with per-call bearer credentials: tokens belong to the
// request, not the client, so one instance serves every user of the web API.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/auth/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the OAuth2 configuration for callback handling.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh obtains a fresh access token from a refresh token.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	src := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return token, nil
}

// doRequest performs an HTTP request to the Spotify API with the given bearer token.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, accessToken string, body, result any) error {
	if accessToken == "" {
		return shared.ErrNotAuthenticated
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the profile the access token belongs to.
func (s *SpotifyService) UserProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", accessToken, nil, &user); err != nil {
		return nil, err
	}

	return &Profile{ID: user.ID, DisplayName: user.DisplayName, Email: user.Email}, nil
}

// SearchTrack resolves a free-text query to the catalog's best single match.
//
// The search is limited to one result; Spotify's own relevance ranking is
// trusted. Zero results return [shared.ErrTrackNotFound].
func (s *SpotifyService) SearchTrack(ctx context.Context, query, accessToken string) (*Track, error) {
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {"1"},
	}

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), accessToken, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query)
	}

	st := response.Tracks.Items[0]

	track := &Track{
		URI:        st.URI,
		AlbumArt:   pickAlbumArt(st.Album.Images),
		PreviewURL: st.PreviewURL,
		URL:        st.ExternalURLs.Spotify,
		Title:      st.Name,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}

	return track, nil
}

// pickAlbumArt prefers the second-largest image when offered, else the first.
//
// Spotify returns images largest-first; the second entry trades little visual
// quality for a much smaller payload.
func pickAlbumArt(images []SpotifyImage) string {
	switch {
	case len(images) >= 2:
		return images[1].URL
	case len(images) == 1:
		return images[0].URL
	default:
		return ""
	}
}

// CreatePlaylist creates a private playlist for the user and adds the given track URIs.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, uris []string) (*SpotifyPlaylist, error) {
	createBody := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, accessToken, createBody, &playlist); err != nil {
		return nil, err
	}

	if len(uris) > 0 {
		addBody := map[string]any{"uris": uris}
		endpoint = fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlist.ID))
		if err := s.doRequest(ctx, http.MethodPost, endpoint, accessToken, addBody, nil); err != nil {
			return nil, err
		}
	}

	return &playlist, nil
}
