package services

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/models"
)

func TestBucketForKind(t *testing.T) {
	bucket, ok := BucketForKind(models.KindIndex)
	assert.True(t, ok)
	assert.Equal(t, "entrada_imagenes", bucket)

	bucket, ok = BucketForKind(models.KindBlog)
	assert.True(t, ok)
	assert.Equal(t, "blog_imagenes", bucket)

	_, ok = BucketForKind("podcast")
	assert.False(t, ok)
}

func TestDiskBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := DiskBackend{Base: t.TempDir()}

	require.NoError(t, backend.Put(ctx, BucketBlogImages, "a.jpg", "image/jpeg", []byte("jpeg-bytes")))
	body, err := backend.Open(ctx, BucketBlogImages, "a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, backend.Remove(ctx, BucketBlogImages, "a.jpg"))
	require.NoError(t, backend.Remove(ctx, BucketBlogImages, "a.jpg"))

	_, err = backend.Open(ctx, BucketBlogImages, "a.jpg")
	status, ok := StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDiskBackendRejectsTraversal(t *testing.T) {
	backend := DiskBackend{Base: t.TempDir()}
	assert.Error(t, backend.Put(context.Background(), "..", "x", "", []byte("x")))
	assert.Error(t, backend.Put(context.Background(), BucketBlogImages, "../x", "", []byte("x")))
}

func TestJPEGFilename(t *testing.T) {
	assert.Equal(t, "portada.jpg", jpegFilename("portada.png"))
	assert.Equal(t, "foto.jpg", jpegFilename("/tmp/foto.webp"))
	assert.Equal(t, "", jpegFilename(""))
}
