package storage

import (
	"net/http"

	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/platform/httpkit"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/phone"

	"github.com/gin-gonic/gin"
)

// AttachmentResponse describes an uploaded file in the same shape chat
// messages embed.
type AttachmentResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Module is the attachments module implementing http.Module. When MinIO is
// not configured the module registers nothing and operators simply cannot
// attach files.
type Module struct {
	svc    *MinIOService
	bucket string
	log    *logger.Logger
}

func NewModule(svc *MinIOService, bucket string, log *logger.Logger) *Module {
	return &Module{svc: svc, bucket: bucket, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "storage"
}

// RegisterRoutes mounts the attachment upload route on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.svc == nil {
		return
	}
	ctx.Protected.POST("/attachments", m.Upload)
}

// Upload receives a multipart file, stores it, and returns the attachment
// descriptor for a subsequent manual send.
func (m *Module) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file field is required", nil)
		return
	}

	digits := phone.Digits(c.PostForm("phone"))
	if digits == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone field is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read file", nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := fileHeader.Header.Get("Content-Type")
	fileKey, err := m.svc.UploadAttachment(
		c.Request.Context(), m.bucket, digits,
		fileHeader.Filename, contentType, file, fileHeader.Size,
	)
	if httpkit.HandleError(c, err) {
		return
	}

	downloadURL, err := m.svc.DownloadURL(c.Request.Context(), m.bucket, fileKey)
	if httpkit.HandleError(c, err) {
		return
	}

	m.log.Info("attachment uploaded", "phone", digits, "key", fileKey)
	httpkit.OK(c, AttachmentResponse{
		Name: fileHeader.Filename,
		Type: contentType,
		URL:  downloadURL,
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
