package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server) (*Client, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	c, err := New(server.URL, storage)
	require.NoError(t, err)
	return c, storage
}

func TestRefreshRetryOnce(t *testing.T) {
	var refreshCalls, profileCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-token"})
		case "/auth/get-profile":
			calls := atomic.AddInt32(&profileCalls, 1)
			if calls == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "Token invalid or expired"})
				return
			}
			require.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]string{"name": "Ada", "email": "ada@example.com"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	storage.Set(keyAccessToken, "stale-token")

	profile, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ada", profile.Name)
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, int32(2), atomic.LoadInt32(&profileCalls))
	require.Equal(t, "fresh-token", storage.Get(keyAccessToken))
}

func TestRefreshFailureClearsTokenAndSurfacesSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or expired refresh token"})
		case "/auth/get-profile":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	storage.Set(keyAccessToken, "stale-token")

	_, err := c.GetProfile(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Empty(t, storage.Get(keyAccessToken))
}

func TestConcurrentRefreshFailsFast(t *testing.T) {
	refreshStarted := make(chan struct{})
	releaseRefresh := make(chan struct{})
	var refreshCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			if atomic.AddInt32(&refreshCalls, 1) == 1 {
				close(refreshStarted)
				<-releaseRefresh
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-token"})
		case "/auth/get-profile":
			if r.Header.Get("Authorization") == "Bearer fresh-token" {
				json.NewEncoder(w).Encode(map[string]string{"name": "Ada"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	storage.Set(keyAccessToken, "stale-token")

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := c.GetProfile(context.Background())
		firstErr <- err
	}()

	<-refreshStarted
	// second request's 401 lands while the first is mid-refresh
	_, err := c.GetProfile(context.Background())
	require.ErrorIs(t, err, ErrRefreshInFlight)

	close(releaseRefresh)
	wg.Wait()
	require.NoError(t, <-firstErr)
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestLoginFailureDoesNotTriggerRefresh(t *testing.T) {
	var refreshCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			w.WriteHeader(http.StatusForbidden)
		case "/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c, _ := newTestClient(t, server)
	err := c.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	require.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
}

func TestLoginStoresSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "refresh-1", Path: "/"})
		json.NewEncoder(w).Encode(map[string]string{"access_token": "token-1", "id": "AI007"})
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	require.NoError(t, c.Login(context.Background(), "ada@example.com", "secret"))
	require.Equal(t, "token-1", storage.Get(keyAccessToken))
	require.Equal(t, "AI007", storage.Get(keyUserID))
	require.True(t, c.LoggedIn())
}

func TestTrialGateBlocksAnonymousAtZero(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	storage.Set(keyFreeTrials, "0")

	_, err := c.SummarizePDF(context.Background(), "doc.pdf", []byte("%PDF-1.4"))
	require.ErrorIs(t, err, ErrTrialsExhausted)
	require.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestTrialDecrementsAfterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summarize/pdf", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"summary": "ok"})
	}))
	defer server.Close()

	c, _ := newTestClient(t, server)
	require.Equal(t, defaultFreeTrials, c.FreeTrialsLeft())

	result, err := c.SummarizePDF(context.Background(), "doc.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.False(t, result.Rejected())
	require.Equal(t, defaultFreeTrials-1, c.FreeTrialsLeft())
}

func TestTrialNotSpentOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"message": "The summarization model is temporarily unavailable. Please try again later."})
	}))
	defer server.Close()

	c, _ := newTestClient(t, server)
	before := c.FreeTrialsLeft()

	_, err := c.SummarizePDF(context.Background(), "doc.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)
	require.Equal(t, before, c.FreeTrialsLeft())
}

func TestLoggedInUserSkipsTrialGate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"summary": "ok"})
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	storage.Set(keyAccessToken, "token-1")
	storage.Set(keyFreeTrials, "0")

	_, err := c.SummarizePDF(context.Background(), "doc.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, 0, c.FreeTrialsLeft())
}

func TestTrackSendsEnvelope(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/track", r.URL.Path)
		var event map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "event_id": event["event_id"].(string)})
	}))
	defer server.Close()

	c, storage := newTestClient(t, server)
	require.NoError(t, c.Track(context.Background(), "PAGE_VIEW", map[string]interface{}{"page": "home"}))

	event := <-received
	require.Equal(t, "PAGE_VIEW", event["event_name"])
	require.Equal(t, "frontend", event["source"])
	require.NotEmpty(t, event["event_id"])
	require.NotEmpty(t, event["session_id"])
	// session id persists across events
	require.Equal(t, event["session_id"], storage.Get(keySessionID))
	_, err := time.Parse(time.RFC3339, event["timestamp"].(string))
	require.NoError(t, err)
}
