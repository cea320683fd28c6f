package models

import (
	"strings"
	"time"
)

// ContentKind discriminates the two editorial content types.
type ContentKind string

const (
	KindIndex ContentKind = "index"
	KindBlog  ContentKind = "blog"
)

var contentKinds = []ContentKind{KindIndex, KindBlog}

func ContentKinds() []ContentKind {
	return append([]ContentKind(nil), contentKinds...)
}

// ParseContentKind accepts the URL form of a kind ("index", "blog").
func ParseContentKind(raw string) (ContentKind, bool) {
	value := ContentKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, kind := range contentKinds {
		if kind == value {
			return kind, true
		}
	}
	return "", false
}

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	DisplayName  *string    `db:"display_name"`
	PasswordHash string     `db:"password_hash"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

type MediaAsset struct {
	ID          string    `db:"id"`
	OwnerUserID *string   `db:"owner_user_id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      *string   `db:"sha256"`
	Width       int       `db:"width"`
	Height      int       `db:"height"`
	CreatedAt   time.Time `db:"created_at"`
}

// ContentItem is an index (carousel) entry or a blog entry. Timestamp is
// assigned on insert and never updated.
type ContentItem struct {
	ID           string      `db:"id"`
	Kind         ContentKind `db:"kind"`
	AuthorID     string      `db:"author_id"`
	AuthorName   string      `db:"author_name"`
	Title        string      `db:"title"`
	Body         string      `db:"body"`
	ImageAssetID *string     `db:"image_asset_id"`
	Timestamp    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

// ContentFields are the author-editable parts of a ContentItem.
type ContentFields struct {
	Title        string
	Body         string
	ImageAssetID *string
}

// ScheduleSlot is one program in the weekly grid. Times are "HH:MM".
type ScheduleSlot struct {
	ID          string    `db:"id" json:"id"`
	Day         Weekday   `db:"day" json:"day"`
	StartTime   string    `db:"start_time" json:"startTime"`
	EndTime     string    `db:"end_time" json:"endTime"`
	ProgramName string    `db:"program_name" json:"programName"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

type ScheduleFields struct {
	StartTime   string
	EndTime     string
	ProgramName string
}
