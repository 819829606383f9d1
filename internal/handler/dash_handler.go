package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docbrief/internal/pkg/response"
	"docbrief/internal/service"
)

type DashHandler struct {
	stats *service.StatsService
}

func NewDashHandler(stats *service.StatsService) *DashHandler {
	return &DashHandler{stats: stats}
}

func (h *DashHandler) GetDetails(c *gin.Context) {
	details, err := h.stats.Details(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"stats": details})
}
