// Package storage persists uploaded images and hands back the URL under
// which they can be fetched. Two backends exist: the local filesystem
// (served by the HTTP server itself) and S3-compatible object storage.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/tbourn/go-recipes-backend/internal/config"
)

// ErrInvalidImage is returned when an upload is not a decodable image.
var ErrInvalidImage = errors.New("invalid image")

// Storage stores image bytes and returns a dereferenceable URL.
type Storage interface {
	// Save stores data under key and returns its URL.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind url. URLs not owned by the backend
	// are ignored.
	Delete(ctx context.Context, url string) error
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeImage accepts either a data URI ("data:image/png;base64,....") or
// bare base64 and returns the bytes with their sniffed content type. The
// declared type of a data URI is not trusted.
func DecodeImage(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidImage
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.HasSuffix(s[:i], ";base64") {
			return nil, ErrInvalidImage
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExt[ct]
	if !ok {
		return nil, ErrInvalidImage
	}
	return &Image{Data: data, ContentType: ct, Ext: ext}, nil
}

// NewKey builds a unique object key inside dir, e.g. "recipes/<uuid>.png".
func NewKey(dir, ext string) string {
	return path.Join(dir, uuid.NewString()+ext)
}

// New selects the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return NewLocal(cfg.MediaRoot, cfg.MediaURL)
	}
}
