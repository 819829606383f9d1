package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docbrief/internal/filestore"
	"docbrief/internal/pkg/response"
)

// FileHandler serves stored artifacts by key. S3-backed stores return
// presigned-style URLs directly and never route through here.
type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		response.Message(c, http.StatusBadRequest, "Invalid file key")
		return
	}
	reader, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		response.Message(c, http.StatusNotFound, "File not found")
		return
	}
	defer reader.Close()
	c.Header("Content-Type", contentTypeByExt(key))
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}

func contentTypeByExt(key string) string {
	switch filepath.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
