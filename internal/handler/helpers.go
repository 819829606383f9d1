package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docbrief/internal/middleware"
	appErr "docbrief/internal/pkg/errors"
	"docbrief/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case appErr.IsNotFound(err):
		response.Message(c, http.StatusNotFound, "User not found")
	case appErr.IsConflict(err):
		response.Message(c, http.StatusBadRequest, "User already exists")
	default:
		switch err {
		case appErr.ErrUnauthorized:
			response.Message(c, http.StatusUnauthorized, "Unauthorized")
		case appErr.ErrForbidden:
			response.Message(c, http.StatusForbidden, "Forbidden")
		case appErr.ErrInvalid:
			response.Message(c, http.StatusBadRequest, "Invalid request")
		default:
			response.Message(c, http.StatusInternalServerError, "Internal server error")
		}
	}
}

func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}
