package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/storage"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newMediaService(t *testing.T, gate *mockAdmissionGate) (*MediaService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "/media/")
	require.NoError(t, err)
	return NewMediaService(store, gate, nil, MediaServiceConfig{MaxFileSize: 1024}), dir
}

func mediaUpload(content []byte) MediaUpload {
	return MediaUpload{Filename: "file", Size: int64(len(content)), Content: bytes.NewReader(content)}
}

func TestMediaServiceUpload(t *testing.T) {
	svc, _ := newMediaService(t, &mockAdmissionGate{})

	resp, err := svc.Upload(context.Background(), "Gallery", mediaUpload(testPNG))
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Regexp(t, `^gallery/[0-9a-f-]{36}\.png$`, resp.Path)
	assert.Equal(t, "/media/"+resp.Path, resp.URL)
	assert.Equal(t, int64(len(testPNG)), resp.Size)
}

func TestMediaServiceUploadRejects(t *testing.T) {
	svc, _ := newMediaService(t, &mockAdmissionGate{})
	ctx := context.Background()

	_, err := svc.Upload(ctx, "../etc", mediaUpload(testPNG))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upload(ctx, "news", mediaUpload([]byte("plain text is not an image")))
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Details["file"], "text/plain")

	_, err = svc.Upload(ctx, "news", mediaUpload(bytes.Repeat([]byte("a"), 2048)))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upload(ctx, "news", MediaUpload{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upload(ctx, "news", mediaUpload([]byte("%PDF-1.4\n")))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMediaServiceUploadDocument(t *testing.T) {
	gate := &mockAdmissionGate{settings: &models.AdmissionSettings{IsActive: true}}
	svc, _ := newMediaService(t, gate)

	resp, err := svc.UploadDocument(context.Background(), mediaUpload([]byte("%PDF-1.4\n%...")))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.ContentType)
	assert.Regexp(t, `^ppdb/.+\.pdf$`, resp.Path)

	gate.err = appErrors.ErrAdmissionClosed
	_, err = svc.UploadDocument(context.Background(), mediaUpload(testPNG))
	assert.ErrorIs(t, err, appErrors.ErrAdmissionClosed)
}

func TestSniffMimeRewinds(t *testing.T) {
	r := bytes.NewReader(testPNG)
	mimeType, err := sniffMime(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, testPNG, rest)
}
