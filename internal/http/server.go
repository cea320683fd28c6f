package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"radiohits-backend-go/internal/config"
	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/listing"
	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

// ContentRepository is the content store as the handlers use it.
type ContentRepository interface {
	listing.Store
	Get(ctx context.Context, kind models.ContentKind, id string) (models.ContentItem, error)
	Create(ctx context.Context, kind models.ContentKind, authorID string, in models.ContentFields) (models.ContentItem, error)
	Update(ctx context.Context, kind models.ContentKind, id, actorID string, in models.ContentFields) (models.ContentItem, *string, error)
	Delete(ctx context.Context, kind models.ContentKind, id, actorID string) (*string, error)
}

type ScheduleRepository interface {
	List(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error)
	Week(ctx context.Context) (map[models.Weekday][]models.ScheduleSlot, error)
	Create(ctx context.Context, day models.Weekday, in models.ScheduleFields) (models.ScheduleSlot, error)
	Update(ctx context.Context, day models.Weekday, id string, in models.ScheduleFields) (models.ScheduleSlot, error)
	Delete(ctx context.Context, day models.Weekday, id string) error
}

type MediaRepository interface {
	SaveImage(ctx context.Context, bucket, ownerID, filename string, body io.Reader) (models.MediaAsset, error)
	Open(ctx context.Context, id string) (models.MediaAsset, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

type IndicatorSource interface {
	Get(ctx context.Context) services.Indicators
}

type Server struct {
	DB         services.Pinger
	Config     config.Config
	Tokens     services.TokenService
	Auth       services.Authenticator
	Users      services.UserRepository
	Content    ContentRepository
	Lister     *listing.Lister
	Schedule   ScheduleRepository
	Media      MediaRepository
	MediaRoot  string
	Indicators IndicatorSource
	OnAir      *services.OnAirHub
	Limiter    *services.LoginLimiter
	Metrics    *HTTPMetrics
	Locale     i18n.Locale
	Location   *time.Location
}

// NewServer wires the Postgres-backed stores, the given media backend and the
// on-air hub into a Server.
func NewServer(db *sqlx.DB, cfg config.Config, backend services.ObjectBackend, hub *services.OnAirHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	users := services.UserStore{DB: db}
	content := services.ContentStore{DB: db}
	locale := i18n.New(cfg.SiteLocale)
	loc := cfg.Location()
	return &Server{
		DB:       db,
		Config:   cfg,
		Tokens:   tokens,
		Auth:     services.Authenticator{Users: users, Tokens: tokens},
		Users:    users,
		Content:  content,
		Lister:   listing.NewLister(content, loc, locale),
		Schedule: services.ScheduleStore{DB: db},
		Media:    services.MediaStore{DB: db, Backend: backend},
		MediaRoot: backend.Root(),
		Indicators: services.NewIndicatorClient(
			cfg.IndicatorsURL,
			time.Duration(cfg.IndicatorsTimeoutSeconds)*time.Second,
			time.Duration(cfg.IndicatorsCacheSeconds)*time.Second,
			locale, loc,
		),
		OnAir:    hub,
		Limiter:  services.NewLoginLimiter(5, time.Minute),
		Metrics:  NewHTTPMetrics(),
		Locale:   locale,
		Location: loc,
	}
}

func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
	}
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if s.Limiter != nil {
		go s.Limiter.Cleanup(ctx)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.With(WithAuth(s.Tokens)).Get("/me", s.Me)

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/home", s.Home)
			pub.Get("/carousel", s.Carousel)
			pub.Get("/indicators", s.GetIndicators)
			pub.Get("/schedule", s.PublicSchedule)
			pub.Get("/media/{assetId}", s.MediaContent)
			pub.Get("/content/{kind}", s.PublicListContent)
			pub.Get("/content/{kind}/{id}", s.PublicContentDetail)
		})

		api.Route("/staff", func(staff chi.Router) {
			staff.Use(WithAuth(s.Tokens))
			staff.Use(RequireAnyRole(services.RoleStaff, services.RoleAdmin))

			staff.Route("/content/{kind}", func(content chi.Router) {
				content.Get("/", s.StaffListContent)
				content.Post("/", s.CreateContent)
				content.Get("/{id}", s.PublicContentDetail)
				content.Put("/{id}", s.UpdateContent)
				content.Delete("/{id}", s.DeleteContent)
			})
			staff.Post("/media/{kind}", s.UploadImage)
			staff.Route("/schedule/{day}", func(schedule chi.Router) {
				schedule.Post("/", s.CreateSlot)
				schedule.Put("/{id}", s.UpdateSlot)
				schedule.Delete("/{id}", s.DeleteSlot)
			})
		})
	})

	r.Get("/feed.xml", s.Feed)
	r.Get("/healthz", s.Health)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	r.Get("/ws/on-air", s.OnAirSocket)
	return r
}
