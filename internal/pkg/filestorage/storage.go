package filestorage

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/librarium/internal/pkg/apperrors"
)

// Storage keeps uploaded files and hands back an opaque key to store in the database
type Storage interface {
	// Save stores the uploaded file under dir and returns its key
	Save(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error)

	// Delete removes the object behind key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns an address the client can fetch key from
	URL(ctx context.Context, key string) (string, error)
}

// PhotoExtensions are the extensions accepted for forum photos
var PhotoExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// ValidatePhoto rejects filenames whose extension is not an allowed image type
func ValidatePhoto(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := PhotoExtensions[ext]; !ok {
		return apperrors.ErrUnsupportedPhoto
	}
	return nil
}

// objectKey generates a collision free key keeping the original extension
func objectKey(dir, filename string) string {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	if dir == "" {
		return name
	}
	return strings.Trim(dir, "/") + "/" + name
}

// cleanKey refuses keys that would escape the storage root
func cleanKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	cleaned := filepath.ToSlash(filepath.Clean("/" + key))[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", false
	}
	return cleaned, true
}
