package handler_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"docbrief/internal/config"
	"docbrief/internal/db"
	"docbrief/internal/handler"
	"docbrief/internal/repo"
	"docbrief/internal/service"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database test")
	}
	port := 5432
	if raw := os.Getenv("TEST_DB_PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		require.NoError(t, err)
		port = parsed
	}
	user := os.Getenv("TEST_DB_USER")
	if user == "" {
		user = "postgres"
	}
	name := os.Getenv("TEST_DB_NAME")
	if name == "" {
		name = "docbrief_test"
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   name,
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		for _, table := range []string{"events", "upload_history", "user_stats", "counters", "users"} {
			conn.Exec("DELETE FROM " + table)
		}
		conn.Close()
	})
	return conn
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := openTestDB(t)
	cfg := &config.Config{
		Port: 8080,
		Auth: config.AuthConfig{
			AccessSecret:     "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTTLMinutes: 15,
			RefreshTTLHours:  168,
		},
	}

	userRepo := repo.NewUserRepo(conn)
	counterRepo := repo.NewCounterRepo(conn)
	statsRepo := repo.NewStatsRepo(conn)
	historyRepo := repo.NewHistoryRepo(conn)
	eventRepo := repo.NewEventRepo(conn)

	engine := gin.New()
	handler.RegisterRoutes(engine, handler.RouterDeps{
		Config:   cfg,
		Auth:     service.NewAuthService(userRepo, counterRepo, cfg.Auth),
		Stats:    service.NewStatsService(statsRepo, historyRepo),
		Tracking: service.NewTrackingService(eventRepo),
	})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestSignupLoginProfileFlow(t *testing.T) {
	engine := setupRouter(t)

	resp := doJSON(t, engine, http.MethodPost, "/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	var signup struct {
		Message string `json:"message"`
		User    struct {
			CustomID string `json:"customId"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &signup))
	require.Equal(t, "User created successfully", signup.Message)
	require.Regexp(t, `^AI\d{3,}$`, signup.User.CustomID)

	// duplicate email
	resp = doJSON(t, engine, http.MethodPost, "/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// wrong password gets the same message as an unknown email
	resp = doJSON(t, engine, http.MethodPost, "/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "Invalid credentials")

	resp = doJSON(t, engine, http.MethodPost, "/auth/login", map[string]string{
		"email": "ada@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var login struct {
		AccessToken string `json:"access_token"`
		ID          string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, signup.User.CustomID, login.ID)

	var refreshCookie *http.Cookie
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == "refreshToken" {
			refreshCookie = cookie
		}
	}
	require.NotNil(t, refreshCookie)
	require.True(t, refreshCookie.HttpOnly)

	resp = doJSON(t, engine, http.MethodGet, "/auth/get-profile", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "ada@example.com")

	// refresh only works with the cookie
	resp = doJSON(t, engine, http.MethodPost, "/auth/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, engine, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(refreshCookie)
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "access_token")

	// the access token is not a valid refresh token
	resp = doJSON(t, engine, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: login.AccessToken})
	})
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := setupRouter(t)

	resp := doJSON(t, engine, http.MethodGet, "/auth/get-profile", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, engine, http.MethodGet, "/dash/get-details", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-token")
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDashboardDefaults(t *testing.T) {
	engine := setupRouter(t)

	resp := doJSON(t, engine, http.MethodPost, "/auth/signup", map[string]string{
		"name": "Ada", "email": "dash@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(t, engine, http.MethodPost, "/auth/login", map[string]string{
		"email": "dash@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = doJSON(t, engine, http.MethodGet, "/dash/get-details", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var dash struct {
		Stats struct {
			FilesUploaded  int64 `json:"filesUploaded"`
			TotalSummaries int64 `json:"totalSummaries"`
			FreeTrialsLeft int64 `json:"freeTrialsLeft"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &dash))
	require.Equal(t, int64(0), dash.Stats.FilesUploaded)
	require.Equal(t, int64(5), dash.Stats.FreeTrialsLeft)
}

func TestTrackEndpoint(t *testing.T) {
	engine := setupRouter(t)

	resp := doJSON(t, engine, http.MethodPost, "/track", map[string]interface{}{
		"event_name": "PAGE_VIEW",
		"timestamp":  "2026-09-01T12:00:00Z",
		"session_id": "session-1",
		"source":     "frontend",
		"payload":    map[string]interface{}{"page": "home"},
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var track struct {
		Status  string `json:"status"`
		EventID string `json:"event_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &track))
	require.Equal(t, "success", track.Status)
	require.NotEmpty(t, track.EventID)
}
