package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docbrief/internal/config"
	appErr "docbrief/internal/pkg/errors"
	"docbrief/internal/pkg/response"
	"docbrief/internal/service"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	auth     *service.AuthService
	tracking *service.TrackingService
	cfg      config.AuthConfig
}

func NewAuthHandler(auth *service.AuthService, tracking *service.TrackingService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: auth, tracking: tracking, cfg: cfg}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if err == appErr.ErrInvalid {
			response.Message(c, http.StatusBadRequest, "Name, email and password are required")
			return
		}
		h.tracking.Emit("SIGNUP_FAILED", "", map[string]interface{}{"error": err.Error()})
		handleError(c, err)
		return
	}
	h.tracking.Emit("USER_SIGNUP", user.ID, map[string]interface{}{"email": user.Email})
	response.JSON(c, http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user": gin.H{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"customId":  user.CustomID,
			"createdAt": formatTime(user.Ctime),
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Invalid request")
		return
	}
	user, access, refresh, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == appErr.ErrUnauthorized {
			response.Message(c, http.StatusBadRequest, "Invalid credentials")
			return
		}
		handleError(c, err)
		return
	}
	h.tracking.Emit("USER_LOGIN", user.ID, map[string]interface{}{"email": user.Email})
	h.setRefreshCookie(c, refresh, int(time.Duration(h.cfg.RefreshTTLHours)*time.Hour/time.Second))
	response.JSON(c, http.StatusOK, gin.H{"access_token": access, "id": user.CustomID})
}

// Refresh accepts the refresh token only from its cookie. Tokens supplied
// in the body or a header are ignored so an access token can never be
// replayed as a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		response.Message(c, http.StatusUnauthorized, "No refresh token found in cookies")
		return
	}
	access, err := h.auth.Refresh(refreshToken)
	if err != nil {
		response.Message(c, http.StatusForbidden, "Invalid or expired refresh token")
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"access_token": access})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID := getUserID(c)
	h.setRefreshCookie(c, "", -1)
	h.tracking.Emit("USER_LOGOUT", userID, map[string]interface{}{"logout_reason": "manual_logout"})
	response.JSON(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"name":      user.Name,
		"email":     user.Email,
		"createdAt": formatTime(user.Ctime),
		"customId":  user.CustomID,
	})
}

type changeNameRequest struct {
	Name string `json:"name"`
}

func (h *AuthHandler) ChangeName(c *gin.Context) {
	var req changeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Name is required")
		return
	}
	user, err := h.auth.ChangeName(c.Request.Context(), getUserID(c), req.Name)
	if err != nil {
		if err == appErr.ErrInvalid {
			response.Message(c, http.StatusBadRequest, "Name must be between 2 and 100 characters")
			return
		}
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message":  "Name updated successfully",
		"name":     user.Name,
		"customId": user.CustomID,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Current and new passwords are required")
		return
	}
	err := h.auth.ChangePassword(c.Request.Context(), getUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if err == appErr.ErrInvalid {
			response.Message(c, http.StatusBadRequest, "Incorrect password or invalid new password")
			return
		}
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	if h.cfg.CookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(refreshCookieName, value, maxAge, "/", "", h.cfg.CookieSecure, true)
}

func formatTime(unixMilli int64) string {
	return time.UnixMilli(unixMilli).UTC().Format(time.RFC3339)
}
