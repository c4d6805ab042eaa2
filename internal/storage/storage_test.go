package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizboard/quizboard/internal/storage"
)

// pngBytes is a PNG signature followed by filler; enough for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type mockStore struct {
	putFn func(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	urlFn func(name string) (string, error)

	putName        string
	putContentType string
	putSize        int64
	deleted        []string
}

func (m *mockStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	m.putName = name
	m.putContentType = contentType
	m.putSize = size
	if m.putFn != nil {
		return m.putFn(ctx, name, r, size, contentType)
	}
	return nil
}

func (m *mockStore) Delete(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockStore) PublicURL(name string) (string, error) {
	if m.urlFn != nil {
		return m.urlFn(name)
	}
	return "http://cdn.test/" + name, nil
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1767225600000)
	const id = "5f0c"

	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", "1767225600000-5f0c-photo.png"},
		{"my photo (1).jpg", "1767225600000-5f0c-my-photo-1-.jpg"},
		{"../../etc/passwd", "1767225600000-5f0c-passwd"},
		{"C:\\Users\\me\\cat.gif", "1767225600000-5f0c-cat.gif"},
		{"", "1767225600000-5f0c-image"},
		{"???", "1767225600000-5f0c-image"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, storage.ObjectName(now, id, tt.filename))
		})
	}
}

func TestUploader_SameNameSameMillisecond(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	up := storage.NewUploader(store, 1024)
	fixed := time.UnixMilli(1767225600000)
	up.SetClock(func() time.Time { return fixed })

	first := append(append([]byte{}, pngBytes...), 'A')
	second := append(append([]byte{}, pngBytes...), 'B')

	url1, err := up.Upload(context.Background(), storage.Upload{Filename: "flag.png", Body: bytes.NewReader(first)})
	require.NoError(t, err)
	url2, err := up.Upload(context.Background(), storage.Upload{Filename: "flag.png", Body: bytes.NewReader(second)})
	require.NoError(t, err)

	require.NotEqual(t, url1, url2)

	onDisk1, err := os.ReadFile(filepath.Join(dir, path.Base(url1)))
	require.NoError(t, err)
	assert.Equal(t, first, onDisk1, "first image keeps its own bytes")

	onDisk2, err := os.ReadFile(filepath.Join(dir, path.Base(url2)))
	require.NoError(t, err)
	assert.Equal(t, second, onDisk2)
}

func TestUploader_Discard(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	up := storage.NewUploader(store, 1024)

	url, err := up.Upload(context.Background(), storage.Upload{Filename: "board.png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)

	require.NoError(t, up.Discard(context.Background(), url))
	assert.Equal(t, []string{store.putName}, store.deleted)

	assert.Error(t, up.Discard(context.Background(), "http://cdn.test/"))
}

func TestUploader_Success(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	up := storage.NewUploader(store, 1024)

	url, err := up.Upload(context.Background(), storage.Upload{Filename: "board.png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(store.putName, "-board.png"))
	assert.Equal(t, "image/png", store.putContentType)
	assert.Equal(t, int64(len(pngBytes)), store.putSize)
	assert.Equal(t, "http://cdn.test/"+store.putName, url)
}

func TestUploader_TooLarge(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	up := storage.NewUploader(store, 8)

	_, err := up.Upload(context.Background(), storage.Upload{Filename: "big.png", Body: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, storage.ErrTooLarge)
	assert.Empty(t, store.putName, "nothing is stored")
}

func TestUploader_NotImage(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	up := storage.NewUploader(store, 1024)

	_, err := up.Upload(context.Background(), storage.Upload{Filename: "notes.png", Body: strings.NewReader("just some text")})
	assert.ErrorIs(t, err, storage.ErrNotImage)
	assert.Empty(t, store.putName)
}

func TestUploader_PutFails(t *testing.T) {
	t.Parallel()

	store := &mockStore{
		putFn: func(context.Context, string, io.Reader, int64, string) error {
			return errors.New("bucket unavailable")
		},
	}
	up := storage.NewUploader(store, 1024)

	url, err := up.Upload(context.Background(), storage.Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, storage.ErrUploadFailed)
	assert.Empty(t, url)
}

func TestUploader_URLResolutionFails(t *testing.T) {
	t.Parallel()

	store := &mockStore{
		urlFn: func(string) (string, error) { return "", errors.New("no public url") },
	}
	up := storage.NewUploader(store, 1024)

	url, err := up.Upload(context.Background(), storage.Upload{Filename: "a.png", Body: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, storage.ErrUploadFailed)
	assert.Empty(t, url)
	assert.Equal(t, []string{store.putName}, store.deleted, "stored object is removed again")
}

func TestLocalStore_PutAndServe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "1-a.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png"))

	onDisk, err := os.ReadFile(filepath.Join(dir, "1-a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, onDisk)

	url, err := store.PublicURL("1-a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/1-a.png", url)

	req := httptest.NewRequest(http.MethodGet, "/uploads/1-a.png", nil)
	w := httptest.NewRecorder()
	store.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())
}

func TestLocalStore_NeverOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "1-a.png", bytes.NewReader(pngBytes), 0, "image/png"))
	assert.Error(t, store.Put(ctx, "1-a.png", strings.NewReader("other"), 0, "image/png"))

	onDisk, err := os.ReadFile(filepath.Join(dir, "1-a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, onDisk)

	require.NoError(t, store.Delete(ctx, "1-a.png"))
	_, err = os.Stat(filepath.Join(dir, "1-a.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, "1-a.png"), "deleting a missing object is a no-op")
	assert.Error(t, store.Delete(ctx, "../1-a.png"))
}

func TestLocalStore_RejectsPathNames(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape.png", bytes.NewReader(pngBytes), 0, "image/png")
	assert.Error(t, err)
}

func TestLocalStore_BadBaseURL(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocalStore(t.TempDir(), "http://[::1")
	require.NoError(t, err)

	_, err = store.PublicURL("x.png")
	assert.Error(t, err)
}
