package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/config"
	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/handlers"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories/memory"
	"github.com/ArowuTest/subscriber-draw-backend/internal/services"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/jwt"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/notifier"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drawTime = time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC)

type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	tokens   *jwt.TokenService
	admin    string
	operator string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	tokens := jwt.NewTokenService("route-secret", time.Hour)
	gateway := notifier.NewMockGateway()

	settings := services.NewSettingsService(store.SystemConfig)
	notifications := services.NewNotificationService(store.Notifications, store.Winners, gateway, []string{"ops@example.com"})
	executor := services.NewCommandExecutor(store.Draws, store.Winners, store.Subscribers, notifications)
	draws := services.NewDrawService(store.Draws, store.Subscribers, store.Winners, settings, notifications, executor, 100000).
		WithSourceFactory(func() (engine.RandomSource, int64) { return engine.NewSeededSource(9), 9 })
	auth := services.NewAuthService(store.AdminUsers, tokens)

	cfg := &config.Config{Server: config.ServerConfig{AllowedHosts: []string{"*"}}}
	router := SetupRouter(cfg, HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(auth),
		DrawHandler:     handlers.NewDrawHandler(draws, notifications, func() time.Time { return drawTime }),
		SettingsHandler: handlers.NewSettingsHandler(settings),
		Tokens:          tokens,
	})

	admin, _, err := tokens.Issue("admin-1", "admin@example.com", services.RoleAdmin)
	require.NoError(t, err)
	operator, _, err := tokens.Issue("op-1", "op@example.com", services.RoleOperator)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Subscribers.Create(context.Background(), &models.Subscriber{
			Email:        fmt.Sprintf("sub%02d@example.com", i),
			IsSubscribed: true,
		}))
	}

	return &testServer{router: router, store: store, tokens: tokens, admin: admin, operator: operator}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "subscriber_draw_http_requests_total")
}

func TestHealthReportsStoreOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(&config.Config{}, HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(nil),
		DrawHandler:     handlers.NewDrawHandler(nil, nil, nil),
		SettingsHandler: handlers.NewSettingsHandler(nil),
		Tokens:          jwt.NewTokenService("x", time.Hour),
		HealthCheck:     func(context.Context) error { return errors.New("mongo unreachable") },
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDrawRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/draws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/draws/run", s.operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunDrawFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/draws/run", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var run struct {
		Draw models.Draw `json:"draw"`
	}
	decode(t, w, &run)
	assert.Equal(t, "2024-W10", run.Draw.CycleID)
	assert.Equal(t, engine.DrawStatusCompleted, run.Draw.Status)
	require.Len(t, run.Draw.Allocations, 3)

	w = s.do(t, http.MethodPost, "/api/v1/draws/run", s.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/draws/"+run.Draw.ID.Hex(), s.operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/draws/cycle/2024-W10", s.operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/draws/"+run.Draw.ID.Hex()+"/winners", s.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var winners struct {
		Data []models.Winner `json:"data"`
	}
	decode(t, w, &winners)
	assert.Len(t, winners.Data, 3)

	w = s.do(t, http.MethodGet, "/api/v1/draws/cycle/2024-W10/notifications", s.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications struct {
		Data []models.Notification `json:"data"`
	}
	decode(t, w, &notifications)
	assert.Len(t, notifications.Data, 3)

	w = s.do(t, http.MethodGet, "/api/v1/draws?page=1&limit=10", s.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data  []models.Draw `json:"data"`
		Total int64         `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Len(t, list.Data, 1)
}

func TestDrawLookupErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/draws/not-an-id", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/draws/65f000000000000000000000", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/draws/cycle/2019-W01/replay", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreflightRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/draws/preflight", s.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result services.PreflightResult
	decode(t, w, &result)
	assert.True(t, result.Sufficient)
	assert.Equal(t, 10, result.EligibleCount)
	assert.Equal(t, 3, result.Required)
}

func TestPreflightRouteDoesNotAlertAdmins(t *testing.T) {
	s := newTestServer(t)

	settings := models.DefaultDrawSettings()
	settings.WinnersPerDraw = 20
	w := s.do(t, http.MethodPut, "/api/v1/settings/draw", s.admin, settings)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for i := 0; i < 3; i++ {
		w = s.do(t, http.MethodGet, "/api/v1/draws/preflight", s.operator, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var result services.PreflightResult
		decode(t, w, &result)
		assert.False(t, result.Sufficient)
		assert.Equal(t, 20, result.Required)
		assert.False(t, result.AdminsNotified)
	}

	assert.Empty(t, s.store.Notifications.All())
}

func TestSettingsRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/settings/draw", s.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.DrawSettings
	decode(t, w, &settings)
	assert.Equal(t, models.DefaultDrawSettings().WinnersPerDraw, settings.WinnersPerDraw)

	settings.WinnersPerDraw = 4
	w = s.do(t, http.MethodPut, "/api/v1/settings/draw", s.operator, settings)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/settings/draw", s.admin, settings)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.DrawSettings
	decode(t, w, &updated)
	assert.Equal(t, 4, updated.WinnersPerDraw)
	assert.Equal(t, "admin@example.com", updated.UpdatedBy)

	settings.DrawSharePercent = 90
	w = s.do(t, http.MethodPut, "/api/v1/settings/draw", s.admin, settings)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	register := models.RegisterRequest{FirstName: "Op", LastName: "Erator", Email: "new@example.com", Password: "long-enough-pw"}
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", s.operator, register)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", s.admin, register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "long-enough-pw")

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", s.admin, register)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "new@example.com", Password: "long-enough-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var login services.LoginResponse
	decode(t, w, &login)
	claims, err := s.tokens.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, services.RoleOperator, claims.Role)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "new@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
