package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrSessionExpired means a request hit a 401 and the refresh attempt
	// failed too; the stored access token is cleared and the user must log
	// in again.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrRefreshInFlight is the fail-fast answer for a 401 that lands
	// while another request is already refreshing. Callers retry on their
	// own schedule instead of queueing behind the refresh.
	ErrRefreshInFlight  = errors.New("token refresh already in progress")
	ErrTrialsExhausted  = errors.New("free trials exhausted, please sign up")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Client talks to the docbrief backend. The refresh token lives in a
// cookie managed by the jar; only the access token is kept in Storage.
type Client struct {
	baseURL string
	http    *http.Client
	storage Storage

	refreshMu  sync.Mutex
	refreshing bool
}

func New(baseURL string, storage Storage) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute, Jar: jar},
		storage: storage,
	}, nil
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.Status)
}

func (e *apiError) Unwrap() error {
	return ErrUnexpectedStatus
}

// doJSON runs an authenticated request and decodes the JSON response into
// out. On a 401 it refreshes the access token and retries exactly once;
// auth endpoints themselves never trigger a refresh.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	rewind, err := rewindable(body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, rewind(), contentType)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		drain(resp)
		if err := c.refreshAccessToken(ctx); err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, rewind(), contentType)
		if err != nil {
			return err
		}
	}
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.storage.Get(keyAccessToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sid := c.storage.Get(keySessionID); sid != "" {
		req.Header.Set("X-Session-Id", sid)
	}
	return c.http.Do(req)
}

// refreshAccessToken is single-flight with fail-fast semantics: the first
// 401 refreshes, concurrent 401s get ErrRefreshInFlight immediately.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	c.refreshMu.Lock()
	if c.refreshing {
		c.refreshMu.Unlock()
		return ErrRefreshInFlight
	}
	c.refreshing = true
	c.refreshMu.Unlock()
	defer func() {
		c.refreshMu.Lock()
		c.refreshing = false
		c.refreshMu.Unlock()
	}()

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.storage.Delete(keyAccessToken)
		return ErrSessionExpired
	}
	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.AccessToken == "" {
		c.storage.Delete(keyAccessToken)
		return ErrSessionExpired
	}
	return c.storage.Set(keyAccessToken, parsed.AccessToken)
}

// FreeTrialsLeft reads the local trial counter, seeding it on first use.
func (c *Client) FreeTrialsLeft() int {
	raw := c.storage.Get(keyFreeTrials)
	if raw == "" {
		c.storage.Set(keyFreeTrials, strconv.Itoa(defaultFreeTrials))
		return defaultFreeTrials
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (c *Client) consumeTrial() {
	n := c.FreeTrialsLeft()
	if n > 0 {
		n--
	}
	c.storage.Set(keyFreeTrials, strconv.Itoa(n))
}

func (c *Client) LoggedIn() bool {
	return c.storage.Get(keyAccessToken) != ""
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/login") ||
		strings.HasPrefix(path, "/auth/signup") ||
		strings.HasPrefix(path, "/auth/refresh")
}

// rewindable buffers the body so a retried request can resend it.
func rewindable(body io.Reader) (func() io.Reader, error) {
	if body == nil {
		return func() io.Reader { return nil }, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return func() io.Reader { return strings.NewReader(string(data)) }, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed struct {
			Message string `json:"message"`
		}
		json.Unmarshal(data, &parsed)
		if resp.StatusCode == http.StatusUnauthorized {
			return ErrSessionExpired
		}
		return &apiError{Status: resp.StatusCode, Message: parsed.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
