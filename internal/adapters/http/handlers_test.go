package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/loungefm/loungefm/internal/adapters/signal"
	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/broker"
	"github.com/loungefm/loungefm/internal/config"
	"github.com/loungefm/loungefm/internal/domain"
)

type apiFixture struct {
	router *gin.Engine
	auth   *app.Authenticator
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:          "release",
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		ReadLimit:     32768,
		PingPeriod:    30 * time.Second,
		SendBuffer:    64,
		MessageRate:   100,
		MessageWindow: time.Second,
	}
	auth := app.NewAuthenticator(cfg.JWTSecret, cfg.JWTTTL)
	bus := broker.NewChannelBroker()
	t.Cleanup(bus.Shutdown)
	lounges := app.NewLoungeManager(bus)
	ws := signal.NewController(cfg, auth, app.NewRegistry(), lounges, bus)
	router := SetupRouter(context.Background(), cfg, auth, lounges, bus, ws)
	return &apiFixture{router: router, auth: auth}
}

func (f *apiFixture) token(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := f.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	f := setupAPI(t)

	w := f.do(t, http.MethodGet, "/api/lounges", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/lounges", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	f := setupAPI(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoungeLifecycle(t *testing.T) {
	f := setupAPI(t)
	creator := f.token(t, &domain.User{ID: "u1", DisplayName: "One"})
	guest := f.token(t, &domain.User{ID: "u2", DisplayName: "Two"})

	var loungeID, code string
	t.Run("create", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lounges", creator, gin.H{"name": "Friday Night"})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Lounge struct {
				ID          string `json:"id"`
				Code        string `json:"code"`
				MemberCount int    `json:"memberCount"`
			} `json:"lounge"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Lounge.Code, domain.CodeLength)
		require.Equal(t, 1, resp.Lounge.MemberCount)
		loungeID = resp.Lounge.ID
		code = resp.Lounge.Code
	})

	t.Run("join by code is case-insensitive", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lounges/join", guest, gin.H{"code": " " + code + " "})
		require.Equal(t, http.StatusOK, w.Code)
	})

	var trackID string
	t.Run("add track", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lounges/"+loungeID+"/tracks", guest, gin.H{
			"track": gin.H{"catalogId": "cat1", "title": "Song", "artist": "Band"},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Song struct {
				ID    string `json:"id"`
				Score int    `json:"votes"`
			} `json:"song"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Zero(t, resp.Song.Score)
		trackID = resp.Song.ID
	})

	t.Run("duplicate track conflicts", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lounges/"+loungeID+"/tracks", creator, gin.H{
			"track": gin.H{"catalogId": "cat1", "title": "Song", "artist": "Band"},
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("vote and toggle", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lounges/"+loungeID+"/tracks/"+trackID+"/vote", creator, gin.H{"vote": 1})
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Song struct {
				Score int `json:"votes"`
			} `json:"song"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Song.Score)

		// Same direction again retracts.
		w = f.do(t, http.MethodPost, "/api/lounges/"+loungeID+"/tracks/"+trackID+"/vote", creator, gin.H{"vote": 1})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Zero(t, resp.Song.Score)
	})

	t.Run("detail lists the ranked playlist", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/lounges/"+loungeID, guest, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		var playlist []domain.Track
		require.NoError(t, json.Unmarshal(body["playlist"], &playlist))
		require.Len(t, playlist, 1)
		require.Equal(t, domain.TrackID(trackID), playlist[0].ID)
	})

	t.Run("mark played evicts from the playlist", func(t *testing.T) {
		w := f.do(t, http.MethodPatch, "/api/lounges/"+loungeID+"/tracks/"+trackID+"/played", creator, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodGet, "/api/lounges/"+loungeID, guest, nil)
		body := decodeBody(t, w)
		var playlist []domain.Track
		require.NoError(t, json.Unmarshal(body["playlist"], &playlist))
		require.Empty(t, playlist)
	})

	t.Run("only the adder or creator removes a track", func(t *testing.T) {
		third := f.token(t, &domain.User{ID: "u3", DisplayName: "Three"})
		w := f.do(t, http.MethodPost, "/api/lounges/join", third, gin.H{"code": code})
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodDelete, "/api/lounges/"+loungeID+"/tracks/"+trackID, third, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = f.do(t, http.MethodDelete, "/api/lounges/"+loungeID+"/tracks/"+trackID, creator, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete requires the creator", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lounges/"+loungeID, guest, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = f.do(t, http.MethodDelete, "/api/lounges/"+loungeID, creator, nil)
		require.Equal(t, http.StatusOK, w.Code)

		// Deleted lounges vanish from detail and by-code lookup.
		w = f.do(t, http.MethodGet, "/api/lounges/"+loungeID, guest, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		w = f.do(t, http.MethodPost, "/api/lounges/join", guest, gin.H{"code": code})
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateValidation(t *testing.T) {
	f := setupAPI(t)
	token := f.token(t, &domain.User{ID: "u1", DisplayName: "One"})

	w := f.do(t, http.MethodPost, "/api/lounges", token, gin.H{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/lounges", token, gin.H{"name": "x", "maxMembers": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteValidation(t *testing.T) {
	f := setupAPI(t)
	token := f.token(t, &domain.User{ID: "u1", DisplayName: "One"})

	w := f.do(t, http.MethodPost, "/api/lounges", token, gin.H{"name": "votes"})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Lounge struct {
			ID string `json:"id"`
		} `json:"lounge"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = f.do(t, http.MethodPost, "/api/lounges/"+resp.Lounge.ID+"/tracks", token, gin.H{
		"track": gin.H{"catalogId": "c", "title": "t", "artist": "a"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var added struct {
		Song struct {
			ID string `json:"id"`
		} `json:"song"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))

	w = f.do(t, http.MethodPost, "/api/lounges/"+resp.Lounge.ID+"/tracks/"+added.Song.ID+"/vote", token, gin.H{"vote": 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
