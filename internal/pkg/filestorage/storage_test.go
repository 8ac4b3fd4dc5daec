package filestorage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/librarium/internal/pkg/apperrors"
)

func uploadedFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	files := req.MultipartForm.File["photo"]
	require.Len(t, files, 1)
	return files[0]
}

func TestValidatePhoto(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"cat.png", false},
		{"cat.JPG", false},
		{"cat.jpeg", false},
		{"cat.gif", false},
		{"cat.bmp", true},
		{"script.php", true},
		{"noext", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			err := ValidatePhoto(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCleanKey(t *testing.T) {
	key, ok := cleanKey("forum/abc.png")
	assert.True(t, ok)
	assert.Equal(t, "forum/abc.png", key)

	for _, bad := range []string{"", "/", "../etc/passwd", "forum/../../x"} {
		_, ok := cleanKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ls, err := NewLocalStorage(dir, "/uploads/", zerolog.Nop())
	require.NoError(t, err)

	key, err := ls.Save(ctx, uploadedFile(t, "Photo.PNG", "png-bytes"), "forum")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "forum/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url, err := ls.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+key, url)

	require.NoError(t, ls.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	// second delete is a no-op
	assert.NoError(t, ls.Delete(ctx, key))
	assert.Error(t, ls.Delete(ctx, "../outside.png"))
}

func TestLocalStorageSaveRequiresFile(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "/uploads", zerolog.Nop())
	require.NoError(t, err)

	_, err = ls.Save(context.Background(), nil, "forum")
	assert.Error(t, err)
}
