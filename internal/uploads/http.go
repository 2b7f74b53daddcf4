package uploads

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/auth"
)

// UploadRecorder logs completed uploads for audit; failures are the
// recorder's problem.
type UploadRecorder interface {
	Upload(ctx context.Context, fileName, fileType string, fileSize int64, uploadedBy, url, providerID string)
}

// Handler exposes the admin image upload endpoint.
type Handler struct {
	uploader Uploader
	recorder UploadRecorder
	log      zerolog.Logger
}

func NewHandler(uploader Uploader, recorder UploadRecorder, log zerolog.Logger) *Handler {
	return &Handler{
		uploader: uploader,
		recorder: recorder,
		log:      log.With().Str("component", "uploads").Logger(),
	}
}

// Register attaches the upload route to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup, guard *auth.Guard) {
	rg.POST("/upload", guard.RequireAdmin(), h.upload)
}

// upload accepts a multipart image under the field name "file", falling back
// to "image" for older clients.
func (h *Handler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		header, err = c.FormFile("image")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	if err := ValidateUpload(header.Header.Get("Content-Type"), header.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	if h.recorder != nil {
		session, _ := auth.SessionFrom(c)
		h.recorder.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"),
			header.Size, session.Email, result.URL, result.PublicID)
	}

	c.JSON(http.StatusOK, gin.H{"url": result.URL})
}
