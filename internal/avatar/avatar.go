// Package avatar validates uploaded profile images and stores them on an
// external image host.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrEmpty    = errors.New("empty file")
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
)

// Host stores an object under key and returns its public URL.
type Host interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type Uploader struct {
	host     Host
	folder   string
	maxBytes int64
	newKey   func() string
}

func NewUploader(host Host, folder string, maxBytes int64) *Uploader {
	return &Uploader{
		host:     host,
		folder:   strings.Trim(folder, "/"),
		maxBytes: maxBytes,
		newKey:   func() string { return uuid.NewString() },
	}
}

func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload reads at most MaxBytes from r, checks the content is an image and
// hands it to the host. It returns the public URL of the stored file.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	key := path.Join(u.folder, u.newKey()+mt.Extension())
	url, err := u.host.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mt.String())
	if err != nil {
		return "", fmt.Errorf("store avatar %s: %w", key, err)
	}
	return url, nil
}
