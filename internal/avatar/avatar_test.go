package avatar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-api/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeHost struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeHost) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.contentType = key, contentType
	f.body, _ = io.ReadAll(body)
	return "https://img.test/" + key, nil
}

func TestUploader_StoresImage(t *testing.T) {
	host := &fakeHost{}
	u := NewUploader(host, "/avatars/", 1024)
	u.newKey = func() string { return "fixed" }

	url, err := u.Upload(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/avatars/fixed.png", url)
	assert.Equal(t, "avatars/fixed.png", host.key)
	assert.Equal(t, "image/png", host.contentType)
	assert.Equal(t, pngHeader, host.body)
}

func TestUploader_Rejections(t *testing.T) {
	u := NewUploader(&fakeHost{}, "avatars", 16)

	_, err := u.Upload(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = u.Upload(context.Background(), strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = u.Upload(context.Background(), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploader_HostFailure(t *testing.T) {
	boom := errors.New("connection refused")
	u := NewUploader(&fakeHost{err: boom}, "avatars", 1024)
	_, err := u.Upload(context.Background(), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, boom)
}

type fakePutter struct {
	input *s3.PutObjectInput
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3Host_Put(t *testing.T) {
	p := &fakePutter{}
	h := newS3Host(p, "media", "https://cdn.test/media/")

	url, err := h.Put(context.Background(), "avatars/a.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/media/avatars/a.png", url)
	assert.Equal(t, "media", aws.ToString(p.input.Bucket))
	assert.Equal(t, "avatars/a.png", aws.ToString(p.input.Key))
	assert.Equal(t, "image/png", aws.ToString(p.input.ContentType))
	assert.Equal(t, int64(len(pngHeader)), aws.ToInt64(p.input.ContentLength))
}

func TestPublicBase(t *testing.T) {
	cfg := &config.Config{}
	cfg.Avatar.Bucket = "media"
	cfg.Avatar.Region = "eu-west-1"
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", publicBase(cfg))

	cfg.Avatar.Endpoint = "http://localhost:9000/"
	assert.Equal(t, "http://localhost:9000/media", publicBase(cfg))

	cfg.Avatar.PublicBaseURL = "https://cdn.test"
	assert.Equal(t, "https://cdn.test", publicBase(cfg))
}

func TestNewS3Host_RequiresBucket(t *testing.T) {
	_, err := NewS3Host(context.Background(), &config.Config{})
	assert.Error(t, err)
}
