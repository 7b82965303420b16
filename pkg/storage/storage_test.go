package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeader 构造一个multipart文件头
func fileHeader(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestReadImage(t *testing.T) {
	cfg := &config.StorageConfig{MaxFileSize: 1 << 20, AllowedTypes: []string{"image/png"}}

	file, err := ReadImage(cfg, fileHeader(t, "Sun.PNG", "image/png", pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "png", file.Ext())

	_, err = ReadImage(cfg, fileHeader(t, "a.gif", "image/gif", pngBytes(t)))
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))

	_, err = ReadImage(cfg, fileHeader(t, "fake.png", "image/png", []byte("not an image")))
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))

	_, err = ReadImage(cfg, nil)
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))
}

func TestLocalStorage(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "/media/")
	ctx := context.Background()

	url, err := s.Put(ctx, "users/3/profile.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/users/3/profile.png", url)

	data, err := os.ReadFile(filepath.Join(root, "users", "3", "profile.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	// 越界路径被限制在根目录内
	_, err = s.Put(ctx, "../../escape.txt", []byte("y"), "text/plain")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "users/3/profile.png"))
	require.NoError(t, s.Delete(ctx, "users/3/profile.png"))
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "users/4/profile.jpg", ProfilePhotoKey(4, &File{Name: "noext"}))
	assert.Equal(t, "users/4/profile.png", ProfilePhotoKey(4, &File{Name: "me.PNG"}))
}

func TestNewStorage(t *testing.T) {
	s, err := New(&config.StorageConfig{Type: "local", Local: config.LocalStorage{Path: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	s, err = New(&config.StorageConfig{Type: "cos", COS: config.COSStorage{BucketURL: "https://bucket.cos.ap-guangzhou.myqcloud.com"}})
	require.NoError(t, err)
	assert.IsType(t, &COSStorage{}, s)

	_, err = New(&config.StorageConfig{Type: "s3"})
	assert.Error(t, err)
}
