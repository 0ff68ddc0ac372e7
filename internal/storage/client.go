// Package storage holds chat attachment files in S3-compatible object
// storage and hands out download URLs for conversation messages.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"leadchat_backend/platform/apperr"
	"leadchat_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DownloadURLTTL is the lifetime of attachment download links. Links are
// embedded in stored chat messages, so they get the longest TTL SigV4
// allows.
const DownloadURLTTL = 7 * 24 * time.Hour

// Attachment content types operators may upload into a chat.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
}

// MinIOService stores and serves chat attachments.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// ValidateContentType checks if the content type is allowed for chat
// attachments.
func (s *MinIOService) ValidateContentType(contentType string) error {
	if !allowedContentTypes[contentType] {
		return apperr.Validation(fmt.Sprintf("content type %s is not allowed", contentType))
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 || sizeBytes > s.maxFileSize {
		return apperr.Validation(fmt.Sprintf("file size must be between 1 and %d bytes", s.maxFileSize))
	}
	return nil
}

// UploadAttachment stores an attachment under the lead's phone prefix and
// returns the file key. The key embeds a short UUID so repeated uploads of
// the same file name never overwrite each other.
func (s *MinIOService) UploadAttachment(ctx context.Context, bucket, phone, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if err := s.ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := s.ValidateFileSize(size); err != nil {
		return "", err
	}

	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	fileKey := filepath.ToSlash(filepath.Join(phone, uniqueFileName))

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}

	return fileKey, nil
}

// DownloadURL returns a presigned GET URL for a stored attachment.
func (s *MinIOService) DownloadURL(ctx context.Context, bucket, fileKey string) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, bucket, fileKey, DownloadURLTTL, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presigned.String(), nil
}
