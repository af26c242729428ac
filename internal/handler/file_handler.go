package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/pkg/response"
	"github.com/studybuddy/studybuddy-api/pkg/storage"
)

// FileHandler serves uploaded course materials through signed URLs.
type FileHandler struct {
	uploads *service.UploadService
	store   *storage.LocalStorage
}

// NewFileHandler constructs a new FileHandler.
func NewFileHandler(uploads *service.UploadService, store *storage.LocalStorage) *FileHandler {
	return &FileHandler{uploads: uploads, store: store}
}

// Download godoc
// @Summary Download an uploaded file via a signed token
// @Tags Files
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	relPath, err := h.uploads.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
