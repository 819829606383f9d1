package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

type SignupResult struct {
	Message string `json:"message"`
	User    struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		CustomID  string `json:"customId"`
		CreatedAt string `json:"createdAt"`
	} `json:"user"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*SignupResult, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": password})
	var result SignupResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", bytes.NewReader(body), "application/json", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	var result struct {
		AccessToken string `json:"access_token"`
		ID          string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), "application/json", &result); err != nil {
		return err
	}
	if err := c.storage.Set(keyAccessToken, result.AccessToken); err != nil {
		return err
	}
	return c.storage.Set(keyUserID, result.ID)
}

// Logout always clears local session state, even when the server call
// fails; a stale token is worse than a missed logout event.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, "", nil)
	c.storage.Delete(keyAccessToken)
	c.storage.Delete(keyUserID)
	return err
}

type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	CustomID  string `json:"customId"`
}

func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/get-profile", nil, "", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ChangeName(ctx context.Context, name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})
	return c.doJSON(ctx, http.MethodPut, "/auth/change-name", bytes.NewReader(body), "application/json", nil)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body, _ := json.Marshal(map[string]string{"current_password": current, "new_password": next})
	return c.doJSON(ctx, http.MethodPut, "/auth/change-password", bytes.NewReader(body), "application/json", nil)
}
