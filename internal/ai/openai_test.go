package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newOpenAITestProvider(t *testing.T, server *httptest.Server) Provider {
	t.Helper()
	provider, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return provider
}

func TestOpenAIGenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  {\"summary\": \"ok\"}  "}},
			},
		})
	}))
	defer server.Close()

	provider := newOpenAITestProvider(t, server)
	out, err := provider.GenerateText(context.Background(), "gpt-test", "system prompt", "user prompt")
	require.NoError(t, err)
	require.Equal(t, `{"summary": "ok"}`, out)
}

func TestOpenAIGenerateImage(t *testing.T) {
	raw := []byte("png-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/generations", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(raw)}},
		})
	}))
	defer server.Close()

	provider := newOpenAITestProvider(t, server)
	data, err := provider.GenerateImage(context.Background(), "img-test", "prompt")
	require.NoError(t, err)
	require.Equal(t, raw, data)
}

func TestOpenAIGenerateVideoCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			json.NewEncoder(w).Encode(map[string]string{"id": "vid_1", "status": "completed"})
		case r.Method == http.MethodGet && r.URL.Path == "/videos/vid_1/content":
			w.Write([]byte("mp4-bytes"))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	provider := newOpenAITestProvider(t, server)
	data, err := provider.GenerateVideo(context.Background(), "video-test", "prompt", 4)
	require.NoError(t, err)
	require.Equal(t, []byte("mp4-bytes"), data)
}

// A job that never leaves in_progress must be abandoned when the caller's
// wait budget runs out, not polled forever.
func TestOpenAIGenerateVideoWaitBudget(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			json.NewEncoder(w).Encode(map[string]string{"id": "vid_1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/videos/vid_1":
			atomic.AddInt32(&polls, 1)
			json.NewEncoder(w).Encode(map[string]string{"id": "vid_1", "status": "in_progress"})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	provider := newOpenAITestProvider(t, server)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.GenerateVideo(ctx, "video-test", "prompt", 4)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, int32(0), atomic.LoadInt32(&polls))
}

func TestOpenAIGenerateVideoFailedJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/videos", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "vid_1", "status": "failed"})
	}))
	defer server.Close()

	provider := newOpenAITestProvider(t, server)
	_, err := provider.GenerateVideo(context.Background(), "video-test", "prompt", 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "vid_1")
}

func TestOpenAIWithoutKeyIsUnavailable(t *testing.T) {
	provider, err := NewProvider("openai", map[string]interface{}{"api_key": ""})
	require.NoError(t, err)
	_, err = provider.GenerateText(context.Background(), "m", "s", "p")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = provider.GenerateImage(context.Background(), "m", "p")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = provider.GenerateVideo(context.Background(), "m", "p", 4)
	require.ErrorIs(t, err, ErrUnavailable)
}
