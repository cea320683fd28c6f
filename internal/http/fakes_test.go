package httpapi

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/config"
	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/listing"
	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

type fakeContent struct {
	mu    sync.Mutex
	items map[string]models.ContentItem
	media *fakeMedia
}

func newFakeContent(media *fakeMedia) *fakeContent {
	return &fakeContent{items: map[string]models.ContentItem{}, media: media}
}

// checkImageLocked mirrors the store's image checks; f.mu must be held.
func (f *fakeContent) checkImageLocked(kind models.ContentKind, imageID *string, actorID, entryID string) error {
	if imageID == nil {
		return nil
	}
	ref, ok := f.media.ref(*imageID)
	if !ok {
		return services.ErrBadRequest("Imagen inválida.")
	}
	for _, item := range f.items {
		if item.ImageAssetID != nil && *item.ImageAssetID == *imageID {
			id := item.ID
			ref.UsedBy = &id
			break
		}
	}
	return services.CheckImageRef(ref, kind, actorID, entryID)
}

func (f *fakeContent) add(item models.ContentItem) models.ContentItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	f.items[item.ID] = item
	return item
}

func (f *fakeContent) FetchAll(_ context.Context, kind models.ContentKind) ([]models.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ContentItem{}
	for _, item := range f.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeContent) Get(_ context.Context, kind models.ContentKind, id string) (models.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.Kind != kind {
		return models.ContentItem{}, services.ErrNotFound("Entrada no encontrada")
	}
	return item, nil
}

func (f *fakeContent) Create(ctx context.Context, kind models.ContentKind, authorID string, in models.ContentFields) (models.ContentItem, error) {
	fields, err := services.NormalizeContentFields(in)
	if err != nil {
		return models.ContentItem{}, err
	}
	id := uuid.NewString()
	f.mu.Lock()
	err = f.checkImageLocked(kind, fields.ImageAssetID, authorID, id)
	f.mu.Unlock()
	if err != nil {
		return models.ContentItem{}, err
	}
	return f.add(models.ContentItem{
		ID:           id,
		Kind:         kind,
		AuthorID:     authorID,
		AuthorName:   "Locutor",
		Title:        fields.Title,
		Body:         fields.Body,
		ImageAssetID: fields.ImageAssetID,
		Timestamp:    time.Now().UTC(),
	}), nil
}

func (f *fakeContent) owned(kind models.ContentKind, id, actorID string) (models.ContentItem, error) {
	item, ok := f.items[id]
	if !ok || item.Kind != kind {
		return models.ContentItem{}, services.ErrNotFound("Entrada no encontrada")
	}
	if item.AuthorID != actorID {
		return models.ContentItem{}, services.ErrForbidden("Solo el autor puede modificar esta entrada.")
	}
	return item, nil
}

func (f *fakeContent) Update(_ context.Context, kind models.ContentKind, id, actorID string, in models.ContentFields) (models.ContentItem, *string, error) {
	fields, err := services.NormalizeContentFields(in)
	if err != nil {
		return models.ContentItem{}, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.owned(kind, id, actorID)
	if err != nil {
		return models.ContentItem{}, nil, err
	}
	if err := f.checkImageLocked(kind, fields.ImageAssetID, actorID, id); err != nil {
		return models.ContentItem{}, nil, err
	}
	var replaced *string
	if item.ImageAssetID != nil && (fields.ImageAssetID == nil || *fields.ImageAssetID != *item.ImageAssetID) {
		replaced = item.ImageAssetID
	}
	item.Title, item.Body, item.ImageAssetID = fields.Title, fields.Body, fields.ImageAssetID
	f.items[id] = item
	return item, replaced, nil
}

func (f *fakeContent) Delete(_ context.Context, kind models.ContentKind, id, actorID string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.owned(kind, id, actorID)
	if err != nil {
		return nil, err
	}
	delete(f.items, id)
	return item.ImageAssetID, nil
}

type fakeSchedule struct {
	mu    sync.Mutex
	slots []models.ScheduleSlot
}

func (f *fakeSchedule) List(_ context.Context, day models.Weekday) ([]models.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ScheduleSlot{}
	for _, slot := range f.slots {
		if slot.Day == day {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (f *fakeSchedule) Week(ctx context.Context) (map[models.Weekday][]models.ScheduleSlot, error) {
	week := map[models.Weekday][]models.ScheduleSlot{}
	for _, day := range models.Weekdays() {
		week[day], _ = f.List(ctx, day)
	}
	return week, nil
}

func (f *fakeSchedule) Create(ctx context.Context, day models.Weekday, in models.ScheduleFields) (models.ScheduleSlot, error) {
	fields, err := services.NormalizeScheduleFields(in)
	if err != nil {
		return models.ScheduleSlot{}, err
	}
	existing, _ := f.List(ctx, day)
	if _, found := services.FindOverlap(existing, fields, ""); found {
		return models.ScheduleSlot{}, services.ErrConflict("overlap")
	}
	slot := models.ScheduleSlot{ID: uuid.NewString(), Day: day, StartTime: fields.StartTime, EndTime: fields.EndTime, ProgramName: fields.ProgramName}
	f.mu.Lock()
	f.slots = append(f.slots, slot)
	f.mu.Unlock()
	return slot, nil
}

func (f *fakeSchedule) Update(ctx context.Context, day models.Weekday, id string, in models.ScheduleFields) (models.ScheduleSlot, error) {
	fields, err := services.NormalizeScheduleFields(in)
	if err != nil {
		return models.ScheduleSlot{}, err
	}
	existing, _ := f.List(ctx, day)
	if _, found := services.FindOverlap(existing, fields, id); found {
		return models.ScheduleSlot{}, services.ErrConflict("overlap")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, slot := range f.slots {
		if slot.ID == id && slot.Day == day {
			f.slots[i].StartTime, f.slots[i].EndTime, f.slots[i].ProgramName = fields.StartTime, fields.EndTime, fields.ProgramName
			return f.slots[i], nil
		}
	}
	return models.ScheduleSlot{}, services.ErrNotFound("Programa no encontrado")
}

func (f *fakeSchedule) Delete(_ context.Context, day models.Weekday, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, slot := range f.slots {
		if slot.ID == id && slot.Day == day {
			f.slots = append(f.slots[:i], f.slots[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound("Programa no encontrado")
}

type savedImage struct {
	bucket, owner, filename string
}

type fakeMedia struct {
	mu      sync.Mutex
	assets  map[string][]byte
	refs    map[string]services.ImageRef
	saved   []savedImage
	deleted []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{assets: map[string][]byte{}, refs: map[string]services.ImageRef{}}
}

// put registers an uploaded image owned by ownerID in bucket.
func (f *fakeMedia) put(bucket, ownerID string) string {
	id := uuid.NewString()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[id] = []byte("jpeg")
	f.refs[id] = services.ImageRef{OwnerUserID: &ownerID, Bucket: bucket}
	return id
}

func (f *fakeMedia) ref(id string) (services.ImageRef, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[id]
	return ref, ok
}

func (f *fakeMedia) SaveImage(_ context.Context, bucket, ownerID, filename string, body io.Reader) (models.MediaAsset, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return models.MediaAsset{}, err
	}
	if len(data) == 0 {
		return models.MediaAsset{}, services.ErrBadRequest("El archivo está vacío.")
	}
	id := uuid.NewString()
	f.mu.Lock()
	f.assets[id] = data
	owner := ownerID
	f.refs[id] = services.ImageRef{OwnerUserID: &owner, Bucket: bucket}
	f.saved = append(f.saved, savedImage{bucket: bucket, owner: ownerID, filename: filename})
	f.mu.Unlock()
	return models.MediaAsset{ID: id, Bucket: bucket, ContentType: "image/jpeg", Width: 10, Height: 5}, nil
}

func (f *fakeMedia) Open(_ context.Context, id string) (models.MediaAsset, io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.assets[id]
	if !ok {
		return models.MediaAsset{}, nil, services.ErrNotFound("Imagen no encontrada")
	}
	sum := "abc123"
	asset := models.MediaAsset{ID: id, ContentType: "image/jpeg", Sha256: &sum, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return asset, io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMedia) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
	delete(f.refs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeIndicators struct {
	value services.Indicators
}

func (f fakeIndicators) Get(context.Context) services.Indicators { return f.value }

type fakeUsers struct {
	users map[string]models.User
	roles map[string][]string
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return models.User{}, services.ErrNotFound("Usuario no encontrado.")
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, services.ErrNotFound("Usuario no encontrado.")
	}
	return user, nil
}

func (f *fakeUsers) Roles(_ context.Context, userID string) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeUsers) SetLastLogin(context.Context, string) error { return nil }

type pingOK struct{}

func (pingOK) PingContext(context.Context) error { return nil }

type testEnv struct {
	server   *Server
	content  *fakeContent
	schedule *fakeSchedule
	media    *fakeMedia
	users    *fakeUsers
}

const (
	staffID   = "11111111-1111-1111-1111-111111111111"
	otherID   = "22222222-2222-2222-2222-222222222222"
	outsideID = "33333333-3333-3333-3333-333333333333"
	password  = "radio-secret"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens := services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "radiohits",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
	hash, err := tokens.HashPassword(password)
	require.NoError(t, err)
	name := "Locutor"
	users := &fakeUsers{
		users: map[string]models.User{
			staffID:   {ID: staffID, Email: "dj@radio.cl", DisplayName: &name, PasswordHash: hash, Status: services.UserStatusActive},
			otherID:   {ID: otherID, Email: "otro@radio.cl", PasswordHash: hash, Status: services.UserStatusActive},
			outsideID: {ID: outsideID, Email: "fan@radio.cl", PasswordHash: hash, Status: services.UserStatusActive},
		},
		roles: map[string][]string{staffID: {services.RoleStaff}, otherID: {services.RoleAdmin}},
	}
	media := newFakeMedia()
	content := newFakeContent(media)
	schedule := &fakeSchedule{}
	locale := i18n.New("es")
	lister := listing.NewLister(content, time.UTC, locale)
	dolar := 941.5
	env := &testEnv{
		content:  content,
		schedule: schedule,
		media:    media,
		users:    users,
		server: &Server{
			DB: pingOK{},
			Config: config.Config{
				SiteName:                 "Radio Hits",
				SiteURL:                  "https://radiohits.cl/",
				IndicatorsTimeoutSeconds: 1,
			},
			Tokens:     tokens,
			Auth:       services.Authenticator{Users: users, Tokens: tokens},
			Users:      users,
			Content:    content,
			Lister:     lister,
			Schedule:   schedule,
			Media:      media,
			MediaRoot:  t.TempDir(),
			Indicators: fakeIndicators{value: services.Indicators{Dolar: &dolar, ConsultDate: "19 de octubre de 2026", Available: true}},
			OnAir:      services.NewOnAirHub(),
			Limiter:    services.NewLoginLimiter(5, time.Minute),
			Metrics:    NewHTTPMetrics(),
			Locale:     locale,
			Location:   time.UTC,
		},
	}
	return env
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	user := e.users.users[userID]
	access, _, err := e.server.Tokens.CreateAccessToken(userID, user.Email, e.users.roles[userID])
	require.NoError(t, err)
	return access
}
