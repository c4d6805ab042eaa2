package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size cap.
var ErrTooLarge = errors.New("image exceeds maximum upload size")

// ErrNotImage is returned when the uploaded bytes are not an accepted image type.
var ErrNotImage = errors.New("file is not a supported image")

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Upload is a single client-supplied file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Uploader validates images and writes them to an ObjectStore.
type Uploader struct {
	store    ObjectStore
	maxBytes int64
	now      func() time.Time
	newID    func() string
}

// NewUploader creates an Uploader that accepts files up to maxBytes.
func NewUploader(store ObjectStore, maxBytes int64) *Uploader {
	return &Uploader{
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Upload stores the image under a unique timestamp-prefixed name and returns its
// public URL. No URL is returned unless both the put and the URL resolution
// succeed.
func (u *Uploader) Upload(ctx context.Context, up Upload) (string, error) {
	data, err := io.ReadAll(io.LimitReader(up.Body, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading upload: %v", ErrUploadFailed, err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return "", ErrNotImage
	}

	name := ObjectName(u.now(), u.newID(), up.Filename)
	if err := u.store.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		slog.Error("failed to store image", "error", err, "object", name)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	publicURL, err := u.store.PublicURL(name)
	if err != nil {
		slog.Error("failed to resolve image URL", "error", err, "object", name)
		u.remove(ctx, name)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return publicURL, nil
}

// Discard deletes the object behind a URL returned by Upload. It is used when
// the record that would have referenced the image could not be saved.
func (u *Uploader) Discard(ctx context.Context, imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("parsing image URL: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "/" || name == "." {
		return fmt.Errorf("image URL %q has no object name", imageURL)
	}
	return u.store.Delete(ctx, name)
}

func (u *Uploader) remove(ctx context.Context, name string) {
	if err := u.store.Delete(ctx, name); err != nil {
		slog.Warn("failed to remove orphaned image", "error", err, "object", name)
	}
}
