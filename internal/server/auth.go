package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"golang.org/x/oauth2"
)

// Authenticator is the slice of the catalog client the web auth flow needs.
type Authenticator interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	UserProfile(ctx context.Context, accessToken string) (*services.Profile, error)
}

// AuthHandler serves the browser-facing OAuth flow for the web frontend:
// /auth/login redirects to the authorize page, /auth/callback exchanges the
// code and bounces the tokens to the frontend, /auth/refresh trades a refresh
// token for a fresh access token.
type AuthHandler struct {
	spotify     Authenticator
	frontendURL string
	logger      *log.Logger
}

func NewAuthHandler(spotify Authenticator, frontendURL string, logger *log.Logger) *AuthHandler {
	return &AuthHandler{spotify: spotify, frontendURL: frontendURL, logger: logger}
}

func (h *AuthHandler) Routes() []string {
	return []string{"/auth/login", "/auth/callback", "/auth/refresh"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		h.login(w, r)
	case "/auth/callback":
		h.callback(w, r)
	case "/auth/refresh":
		h.refresh(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()
	http.Redirect(w, r, h.spotify.GetAuthURL(state), http.StatusFound)
}

// callback finishes the authorization code flow and hands everything the
// frontend needs over as query parameters on its /callback route.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectError(w, r, errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "missing authorization code")
		return
	}

	token, err := h.spotify.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.redirectError(w, r, "token exchange failed")
		return
	}

	profile, err := h.spotify.UserProfile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("profile lookup failed", "error", err)
		h.redirectError(w, r, "profile lookup failed")
		return
	}

	params := url.Values{
		"access_token":  {token.AccessToken},
		"refresh_token": {token.RefreshToken},
		"expires_in":    {expiresIn(token)},
		"display_name":  {profile.DisplayName},
		"user_id":       {profile.ID},
	}
	http.Redirect(w, r, h.frontendURL+"/callback?"+params.Encode(), http.StatusFound)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	token, err := h.spotify.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", "error", err)
		writeError(w, http.StatusUnauthorized, "refresh failed")
		return
	}

	body := map[string]any{
		"access_token": token.AccessToken,
		"expires_in":   expiresIn(token),
	}
	if token.RefreshToken != "" {
		body["refresh_token"] = token.RefreshToken
	}

	if profile, err := h.spotify.UserProfile(r.Context(), token.AccessToken); err == nil {
		body["display_name"] = profile.DisplayName
		body["user_id"] = profile.ID
	}

	writeJSON(w, http.StatusOK, body)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	params := url.Values{"error": {message}}
	http.Redirect(w, r, h.frontendURL+"/callback?"+params.Encode(), http.StatusFound)
}

func expiresIn(token *oauth2.Token) string {
	if token.Expiry.IsZero() {
		return "3600"
	}
	seconds := int(time.Until(token.Expiry).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return strconv.Itoa(seconds)
}
