package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"radiohits-backend-go/internal/models"
)

const (
	BucketIndexImages = "entrada_imagenes"
	BucketBlogImages  = "blog_imagenes"

	msgMediaNotFound = "Imagen no encontrada"
)

var kindBuckets = map[models.ContentKind]string{
	models.KindIndex: BucketIndexImages,
	models.KindBlog:  BucketBlogImages,
}

// BucketForKind is the upload destination for images attached to kind.
func BucketForKind(kind models.ContentKind) (string, bool) {
	bucket, ok := kindBuckets[kind]
	return bucket, ok
}

func BuildAssetURL(assetID string) string {
	return "/api/public/media/" + assetID
}

// ObjectBackend stores media bytes addressed by bucket and key.
type ObjectBackend interface {
	Put(ctx context.Context, bucket, key, contentType string, data []byte) error
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, bucket, key string) error
	// Root is the local path used for disk usage reporting, or "" when remote.
	Root() string
}

// DiskBackend keeps each bucket as a directory under Base.
type DiskBackend struct {
	Base string
}

func (d DiskBackend) path(bucket, key string) (string, error) {
	if strings.ContainsAny(bucket+key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q/%q", bucket, key)
	}
	return filepath.Join(d.Base, bucket, key), nil
}

func (d DiskBackend) Put(_ context.Context, bucket, key, _ string, data []byte) error {
	target, err := d.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	return os.Rename(tmp, target)
}

func (d DiskBackend) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	target, err := d.path(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound(msgMediaNotFound)
	}
	return file, err
}

func (d DiskBackend) Remove(_ context.Context, bucket, key string) error {
	target, err := d.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (d DiskBackend) Root() string {
	return d.Base
}

// MinioBackend stores media in one S3-compatible bucket, using the logical
// bucket name as the object key prefix.
type MinioBackend struct {
	Client *minio.Client
	Bucket string
}

// NewMinioBackend connects to endpoint and creates the bucket when missing.
func NewMinioBackend(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBackend, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object storage: %w", err)
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &MinioBackend{Client: client, Bucket: bucket}, nil
}

func (m *MinioBackend) Put(ctx context.Context, bucket, key, contentType string, data []byte) error {
	_, err := m.Client.PutObject(ctx, m.Bucket, path.Join(bucket, key), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return WrapError(err, "put object")
}

func (m *MinioBackend) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, path.Join(bucket, key), minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapError(err, "get object")
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound(msgMediaNotFound)
		}
		return nil, WrapError(err, "stat object")
	}
	return obj, nil
}

func (m *MinioBackend) Remove(ctx context.Context, bucket, key string) error {
	return WrapError(m.Client.RemoveObject(ctx, m.Bucket, path.Join(bucket, key), minio.RemoveObjectOptions{}), "remove object")
}

func (m *MinioBackend) Root() string {
	return ""
}

// MediaStore records uploaded images in media_assets and keeps their bytes in
// an ObjectBackend.
type MediaStore struct {
	DB      *sqlx.DB
	Backend ObjectBackend
}

// SaveImage normalizes an uploaded image and stores it in bucket.
func (s MediaStore) SaveImage(ctx context.Context, bucket, ownerID, filename string, body io.Reader) (models.MediaAsset, error) {
	processed, err := NormalizeImage(body)
	if err != nil {
		return models.MediaAsset{}, err
	}
	sum := sha256.Sum256(processed.Data)
	sha := hex.EncodeToString(sum[:])
	asset := models.MediaAsset{
		ID:          uuid.NewString(),
		Bucket:      bucket,
		ContentType: "image/jpeg",
		SizeBytes:   int64(len(processed.Data)),
		Sha256:      &sha,
		Width:       processed.Width,
		Height:      processed.Height,
		CreatedAt:   time.Now().UTC(),
	}
	asset.StorageKey = asset.ID + ".jpg"
	if ownerID != "" {
		asset.OwnerUserID = &ownerID
	}
	if name := jpegFilename(filename); name != "" {
		asset.Filename = &name
	}

	if err := s.Backend.Put(ctx, bucket, asset.StorageKey, asset.ContentType, processed.Data); err != nil {
		return models.MediaAsset{}, fmt.Errorf("store image: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, width, height, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, asset.ID, asset.OwnerUserID, asset.Bucket, asset.StorageKey, asset.Filename, asset.ContentType,
		asset.SizeBytes, asset.Sha256, asset.Width, asset.Height, asset.CreatedAt)
	if err != nil {
		_ = s.Backend.Remove(ctx, bucket, asset.StorageKey)
		return models.MediaAsset{}, fmt.Errorf("insert media asset: %w", err)
	}
	return asset, nil
}

func (s MediaStore) Get(ctx context.Context, id string) (models.MediaAsset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.MediaAsset{}, ErrNotFound(msgMediaNotFound)
	}
	var asset models.MediaAsset
	err := s.DB.GetContext(ctx, &asset, `
SELECT id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, width, height, created_at
FROM media_assets WHERE id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaAsset{}, ErrNotFound(msgMediaNotFound)
	}
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("get media asset: %w", err)
	}
	return asset, nil
}

// Open returns the asset metadata with a reader over its bytes.
func (s MediaStore) Open(ctx context.Context, id string) (models.MediaAsset, io.ReadCloser, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	body, err := s.Backend.Open(ctx, asset.Bucket, asset.StorageKey)
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	return asset, body, nil
}

// Delete removes the asset row and its bytes. A missing asset, or one an
// entry still shows, is left alone.
func (s MediaStore) Delete(ctx context.Context, id string) error {
	asset, err := s.Get(ctx, id)
	if err != nil {
		if status, ok := StatusOf(err); ok && status == 404 {
			return nil
		}
		return err
	}
	res, err := s.DB.ExecContext(ctx, `
DELETE FROM media_assets m
WHERE m.id = $1
  AND NOT EXISTS (SELECT 1 FROM content_items c WHERE c.image_asset_id = m.id)
`, id)
	if err != nil {
		return fmt.Errorf("delete media asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// still shown by an entry
		return nil
	}
	return s.Backend.Remove(ctx, asset.Bucket, asset.StorageKey)
}

func jpegFilename(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}
