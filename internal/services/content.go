package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"radiohits-backend-go/internal/models"
)

const (
	MaxTitleLength = 200

	msgEntryNotFound = "Entrada no encontrada"
	msgNotAuthor     = "Solo el autor puede modificar esta entrada."
	msgInvalidImage  = "Imagen inválida."
)

// ContentStore persists index and blog entries in content_items.
type ContentStore struct {
	DB *sqlx.DB
}

const contentColumns = `
c.id, c.kind, c.author_id, COALESCE(u.display_name, u.email) AS author_name,
c.title, c.body, c.image_asset_id, c.created_at, c.updated_at`

// FetchAll returns every entry of kind, newest first.
func (s ContentStore) FetchAll(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT`+contentColumns+`
FROM content_items c
JOIN users u ON u.id = c.author_id
WHERE c.kind = $1
ORDER BY c.created_at DESC, c.id DESC
`, kind)
	if err != nil {
		return nil, fmt.Errorf("select %s entries: %w", kind, err)
	}
	return items, nil
}

// Get returns one entry of kind or a 404 ServiceError.
func (s ContentStore) Get(ctx context.Context, kind models.ContentKind, id string) (models.ContentItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.ContentItem{}, ErrNotFound(msgEntryNotFound)
	}
	var item models.ContentItem
	err := s.DB.GetContext(ctx, &item, `
SELECT`+contentColumns+`
FROM content_items c
JOIN users u ON u.id = c.author_id
WHERE c.kind = $1 AND c.id = $2
`, kind, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ContentItem{}, ErrNotFound(msgEntryNotFound)
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("get %s entry: %w", kind, err)
	}
	return item, nil
}

// NormalizeContentFields trims the fields and enforces the title and body
// constraints.
func NormalizeContentFields(in models.ContentFields) (models.ContentFields, error) {
	out := models.ContentFields{
		Title: strings.TrimSpace(in.Title),
		Body:  strings.TrimSpace(in.Body),
	}
	if out.Title == "" {
		return out, ErrBadRequest("El título es obligatorio.")
	}
	if utf8.RuneCountInString(out.Title) > MaxTitleLength {
		return out, ErrBadRequest(fmt.Sprintf("El título no puede superar %d caracteres.", MaxTitleLength))
	}
	if out.Body == "" {
		return out, ErrBadRequest("El contenido es obligatorio.")
	}
	if in.ImageAssetID != nil {
		id := strings.TrimSpace(*in.ImageAssetID)
		if id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return out, ErrBadRequest(msgInvalidImage)
			}
			out.ImageAssetID = &id
		}
	}
	return out, nil
}

// ImageRef is what an entry write needs to know about the image it attaches.
type ImageRef struct {
	OwnerUserID *string `db:"owner_user_id"`
	Bucket      string  `db:"bucket"`
	// UsedBy is the entry already showing the image, if any.
	UsedBy *string `db:"used_by"`
}

// CheckImageRef accepts an image only when actorID uploaded it into the
// bucket of kind and no entry other than entryID shows it.
func CheckImageRef(ref ImageRef, kind models.ContentKind, actorID, entryID string) error {
	bucket, ok := BucketForKind(kind)
	if !ok || ref.Bucket != bucket {
		return ErrBadRequest(msgInvalidImage)
	}
	if ref.OwnerUserID == nil || *ref.OwnerUserID != actorID {
		return ErrBadRequest(msgInvalidImage)
	}
	if ref.UsedBy != nil && *ref.UsedBy != entryID {
		return ErrBadRequest(msgInvalidImage)
	}
	return nil
}

// checkImage locks the referenced asset row so it cannot be released while
// the entry write is in flight.
func checkImage(ctx context.Context, tx *sqlx.Tx, kind models.ContentKind, imageID *string, actorID, entryID string) error {
	if imageID == nil {
		return nil
	}
	var ref ImageRef
	err := tx.GetContext(ctx, &ref, `
SELECT m.owner_user_id, m.bucket,
       (SELECT c.id::text FROM content_items c WHERE c.image_asset_id = m.id LIMIT 1) AS used_by
FROM media_assets m
WHERE m.id = $1
FOR SHARE OF m
`, *imageID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadRequest(msgInvalidImage)
	}
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	return CheckImageRef(ref, kind, actorID, entryID)
}

// isUniqueViolation reports a concurrent write that attached the same image.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create stores a new entry authored by authorID. The timestamp is assigned
// here and never changes afterwards.
func (s ContentStore) Create(ctx context.Context, kind models.ContentKind, authorID string, in models.ContentFields) (models.ContentItem, error) {
	fields, err := NormalizeContentFields(in)
	if err != nil {
		return models.ContentItem{}, err
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	if err := checkImage(ctx, tx, kind, fields.ImageAssetID, authorID, id); err != nil {
		return models.ContentItem{}, err
	}
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
INSERT INTO content_items (id, kind, author_id, title, body, image_asset_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, id, kind, authorID, fields.Title, fields.Body, fields.ImageAssetID, now)
	if isUniqueViolation(err) {
		return models.ContentItem{}, ErrBadRequest(msgInvalidImage)
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("insert %s entry: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ContentItem{}, fmt.Errorf("commit: %w", err)
	}
	return s.Get(ctx, kind, id)
}

// lockOwned loads an entry for update and checks that actorID wrote it.
func lockOwned(ctx context.Context, tx *sqlx.Tx, kind models.ContentKind, id, actorID string) (*string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound(msgEntryNotFound)
	}
	row := struct {
		AuthorID     string  `db:"author_id"`
		ImageAssetID *string `db:"image_asset_id"`
	}{}
	err := tx.GetContext(ctx, &row, `
SELECT author_id, image_asset_id FROM content_items
WHERE kind = $1 AND id = $2
FOR UPDATE
`, kind, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound(msgEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s entry: %w", kind, err)
	}
	if row.AuthorID != actorID {
		return nil, ErrForbidden(msgNotAuthor)
	}
	return row.ImageAssetID, nil
}

// Update replaces the editable fields of an entry owned by actorID. The
// returned replaced id is the image asset that is no longer referenced, if any.
func (s ContentStore) Update(ctx context.Context, kind models.ContentKind, id, actorID string, in models.ContentFields) (models.ContentItem, *string, error) {
	fields, err := NormalizeContentFields(in)
	if err != nil {
		return models.ContentItem{}, nil, err
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.ContentItem{}, nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	previousImage, err := lockOwned(ctx, tx, kind, id, actorID)
	if err != nil {
		return models.ContentItem{}, nil, err
	}
	if err := checkImage(ctx, tx, kind, fields.ImageAssetID, actorID, id); err != nil {
		return models.ContentItem{}, nil, err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE content_items
SET title = $1, body = $2, image_asset_id = $3, updated_at = $4
WHERE id = $5
`, fields.Title, fields.Body, fields.ImageAssetID, time.Now().UTC(), id)
	if isUniqueViolation(err) {
		return models.ContentItem{}, nil, ErrBadRequest(msgInvalidImage)
	}
	if err != nil {
		return models.ContentItem{}, nil, fmt.Errorf("update %s entry: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ContentItem{}, nil, fmt.Errorf("commit: %w", err)
	}
	var replaced *string
	if previousImage != nil && (fields.ImageAssetID == nil || *fields.ImageAssetID != *previousImage) {
		replaced = previousImage
	}
	item, err := s.Get(ctx, kind, id)
	return item, replaced, err
}

// Delete permanently removes an entry owned by actorID and returns the image
// asset it referenced so the caller can release it.
func (s ContentStore) Delete(ctx context.Context, kind models.ContentKind, id, actorID string) (*string, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	image, err := lockOwned(ctx, tx, kind, id, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_items WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete %s entry: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return image, nil
}
