// Package storage holds question images in object storage and resolves the
// public URL each image is served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrUploadFailed wraps any failure to store an object or resolve its URL.
var ErrUploadFailed = errors.New("image upload failed")

// ObjectStore is the minimal object storage surface: put by name, resolve
// the public retrieval URL for that name, and delete it again.
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	PublicURL(name string) (string, error)
	Delete(ctx context.Context, name string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectName builds a URL-safe object name from the upload time, a random
// id and the client-supplied file name, e.g.
// "1767225600000-0b9e3c1a-...-my-photo.png". The id keeps names unique when
// the same file name is uploaded twice within a millisecond.
func ObjectName(now time.Time, id, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "image"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), id, base)
}
