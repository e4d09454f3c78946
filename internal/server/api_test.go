package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/retrograde/internal/models"
	"github.com/desertthunder/retrograde/internal/services"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/desertthunder/retrograde/internal/suggest"
	"golang.org/x/oauth2"
)

type fakePipeline struct {
	songs []suggest.EnrichedSong
	err   error
	got   suggest.Request
	calls int
}

func (f *fakePipeline) Run(_ context.Context, req suggest.Request) ([]suggest.EnrichedSong, error) {
	f.calls++
	f.got = req
	return f.songs, f.err
}

type fakeCatalog struct {
	profile    *services.Profile
	profileErr error

	token       *oauth2.Token
	exchangeErr error
	refreshErr  error

	playlist    *services.SpotifyPlaylist
	playlistErr error

	createdName string
	createdURIs []string
}

func (f *fakeCatalog) UserProfile(context.Context, string) (*services.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeCatalog) GetAuthURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (f *fakeCatalog) Exchange(context.Context, string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeCatalog) Refresh(context.Context, string) (*oauth2.Token, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.token, nil
}

func (f *fakeCatalog) CreatePlaylist(_ context.Context, _, _, name, _ string, uris []string) (*services.SpotifyPlaylist, error) {
	f.createdName = name
	f.createdURIs = uris
	if f.playlistErr != nil {
		return nil, f.playlistErr
	}
	return f.playlist, nil
}

type fakeStore struct {
	entries   []*models.Feedback
	texts     []string
	textsErr  error
	created   []*models.Feedback
	createErr error
}

func (f *fakeStore) Create(feedback *models.Feedback) error {
	if f.createErr != nil {
		return f.createErr
	}
	feedback.SetID(shared.GenerateID())
	f.created = append(f.created, feedback)
	return nil
}

func (f *fakeStore) List(map[string]any) ([]*models.Feedback, error) {
	return f.entries, nil
}

func (f *fakeStore) Texts(string, int) ([]string, error) {
	if f.textsErr != nil {
		return nil, f.textsErr
	}
	return f.texts, nil
}

func testLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestSuggestionsHandler(t *testing.T) {
	profile := &services.Profile{ID: "user-1", DisplayName: "Listener"}

	t.Run("Success", func(t *testing.T) {
		pipeline := &fakePipeline{songs: []suggest.EnrichedSong{
			{Title: "A", Artist: "B", Reason: "r", URI: "spotify:track:a"},
		}}
		store := &fakeStore{texts: []string{"more jazz"}}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, store, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		songs, ok := body["songs"].([]any)
		if !ok || len(songs) != 1 {
			t.Fatalf("expected 1 song, got %v", body["songs"])
		}
		if pipeline.got.AccessToken != "tok" {
			t.Errorf("expected token forwarded, got %q", pipeline.got.AccessToken)
		}
		if len(pipeline.got.TasteHints) != 1 || pipeline.got.TasteHints[0] != "more jazz" {
			t.Errorf("expected stored hints folded in, got %v", pipeline.got.TasteHints)
		}
	})

	t.Run("EmptyListIsOK", func(t *testing.T) {
		pipeline := &fakePipeline{songs: []suggest.EnrichedSong{}}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for empty list, got %d", rec.Code)
		}
	})

	t.Run("MissingBearer", func(t *testing.T) {
		pipeline := &fakePipeline{}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, nil, testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if pipeline.calls != 0 {
			t.Error("pipeline should not run without a token")
		}
	})

	t.Run("DateOverride", func(t *testing.T) {
		pipeline := &fakePipeline{songs: []suggest.EnrichedSong{}}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions?date=1991-09-24", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		want := time.Date(1991, time.September, 24, 0, 0, 0, 0, time.UTC)
		if !pipeline.got.Date.Equal(want) {
			t.Errorf("expected date override, got %v", pipeline.got.Date)
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		handler := NewSuggestionsHandler(&fakePipeline{}, &fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions?date=24-09-1991", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("GenerationUnavailable", func(t *testing.T) {
		pipeline := &fakePipeline{err: fmt.Errorf("%w: 503", shared.ErrGenerationUnavailable)}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "failed to generate suggestions" {
			t.Errorf("unexpected error body %v", body)
		}
	})

	t.Run("UnparseableIsGeneric", func(t *testing.T) {
		pipeline := &fakePipeline{err: fmt.Errorf("%w: tiers exhausted", shared.ErrUnparseableResponse)}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "tiers exhausted") {
			t.Error("raw parse detail must not leak to clients")
		}
	})

	t.Run("FeedbackFailureTolerated", func(t *testing.T) {
		pipeline := &fakePipeline{songs: []suggest.EnrichedSong{}}
		store := &fakeStore{textsErr: fmt.Errorf("db locked")}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profile: profile}, store, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 despite feedback failure, got %d", rec.Code)
		}
		if len(pipeline.got.TasteHints) != 0 {
			t.Errorf("expected no hints, got %v", pipeline.got.TasteHints)
		}
	})

	t.Run("ProfileFailure", func(t *testing.T) {
		pipeline := &fakePipeline{}
		handler := NewSuggestionsHandler(pipeline, &fakeCatalog{profileErr: fmt.Errorf("boom")}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if pipeline.calls != 0 {
			t.Error("pipeline should not run without a profile")
		}
	})
}

func TestFeedbackHandler(t *testing.T) {
	profile := &services.Profile{ID: "user-1"}

	t.Run("Create", func(t *testing.T) {
		store := &fakeStore{}
		handler := NewFeedbackHandler(&fakeCatalog{profile: profile}, store, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"text":"more jazz"}`))
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if len(store.created) != 1 || store.created[0].Text() != "more jazz" {
			t.Fatalf("expected feedback stored, got %+v", store.created)
		}
		if store.created[0].UserID() != "user-1" {
			t.Errorf("expected profile user id, got %s", store.created[0].UserID())
		}
	})

	t.Run("CreateRejectsBlankText", func(t *testing.T) {
		store := &fakeStore{}
		handler := NewFeedbackHandler(&fakeCatalog{profile: profile}, store, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"text":"  "}`))
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if len(store.created) != 0 {
			t.Error("blank feedback must not be stored")
		}
	})

	t.Run("List", func(t *testing.T) {
		entry := models.NewFeedback(1, "user-1", "more jazz")
		entry.SetID("fb-1")
		store := &fakeStore{entries: []*models.Feedback{entry}}
		handler := NewFeedbackHandler(&fakeCatalog{profile: profile}, store, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		list, ok := body["feedback"].([]any)
		if !ok || len(list) != 1 {
			t.Fatalf("expected 1 entry, got %v", body["feedback"])
		}
	})

	t.Run("MissingBearer", func(t *testing.T) {
		handler := NewFeedbackHandler(&fakeCatalog{profile: profile}, &fakeStore{}, testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feedback", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("NilStoreIsUnavailable", func(t *testing.T) {
		handler := NewFeedbackHandler(&fakeCatalog{profile: profile}, nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestPlaylistsHandler(t *testing.T) {
	profile := &services.Profile{ID: "user-1"}

	t.Run("Create", func(t *testing.T) {
		catalog := &fakeCatalog{profile: profile, playlist: &services.SpotifyPlaylist{ID: "pl-1", Name: "Today"}}
		handler := NewPlaylistsHandler(catalog, testLogger())

		body := `{"name":"Today","description":"daily picks","uris":["spotify:track:a"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/playlists", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if catalog.createdName != "Today" || len(catalog.createdURIs) != 1 {
			t.Errorf("unexpected create call: %q %v", catalog.createdName, catalog.createdURIs)
		}
	})

	t.Run("RequiresName", func(t *testing.T) {
		handler := NewPlaylistsHandler(&fakeCatalog{profile: profile}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/playlists", strings.NewReader(`{"uris":[]}`))
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("GetNotAllowed", func(t *testing.T) {
		handler := NewPlaylistsHandler(&fakeCatalog{profile: profile}, testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playlists", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestAuthHandler(t *testing.T) {
	profile := &services.Profile{ID: "user-1", DisplayName: "Listener"}

	t.Run("LoginRedirects", func(t *testing.T) {
		handler := NewAuthHandler(&fakeCatalog{profile: profile}, "http://localhost:5173", testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Location"), "accounts.spotify.com/authorize") {
			t.Errorf("unexpected redirect %s", rec.Header().Get("Location"))
		}
	})

	t.Run("CallbackRedirectsWithTokens", func(t *testing.T) {
		catalog := &fakeCatalog{
			profile: profile,
			token: &oauth2.Token{
				AccessToken:  "acc",
				RefreshToken: "ref",
				Expiry:       time.Now().Add(time.Hour),
			},
		}
		handler := NewAuthHandler(catalog, "http://localhost:5173", testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		location := rec.Header().Get("Location")
		for _, want := range []string{"http://localhost:5173/callback?", "access_token=acc", "refresh_token=ref", "user_id=user-1"} {
			if !strings.Contains(location, want) {
				t.Errorf("redirect missing %q: %s", want, location)
			}
		}
	})

	t.Run("CallbackErrorRedirects", func(t *testing.T) {
		handler := NewAuthHandler(&fakeCatalog{profile: profile}, "http://localhost:5173", testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Location"), "error=access_denied") {
			t.Errorf("expected error forwarded, got %s", rec.Header().Get("Location"))
		}
	})

	t.Run("RefreshFailureIs401", func(t *testing.T) {
		handler := NewAuthHandler(&fakeCatalog{refreshErr: fmt.Errorf("revoked")}, "http://localhost:5173", testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/refresh?refresh_token=ref", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("RefreshRequiresToken", func(t *testing.T) {
		handler := NewAuthHandler(&fakeCatalog{profile: profile}, "http://localhost:5173", testLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/refresh", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"Valid", "Bearer abc123", "abc123", true},
		{"CaseInsensitiveScheme", "bearer abc123", "abc123", true},
		{"Missing", "", "", false},
		{"WrongScheme", "Basic abc123", "", false},
		{"EmptyToken", "Bearer ", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, ok := BearerToken(req)
			if got != tc.want || ok != tc.ok {
				t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tc.header, got, ok, tc.want, tc.ok)
			}
		})
	}
}
