package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"radiohits-backend-go/internal/config"
	"radiohits-backend-go/internal/db"
	httpapi "radiohits-backend-go/internal/http"
	"radiohits-backend-go/internal/logging"
	"radiohits-backend-go/internal/migrations"
	"radiohits-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	closeLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer closeLogs()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	backend, err := mediaBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("media storage: %v", err)
	}

	hub := services.NewOnAirHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(database, cfg, backend, hub)
	server.Metrics.RegisterListenerGauge(hub.Len)
	go hub.Watch(ctx, services.ScheduleStore{DB: database}, cfg.Location(), time.Duration(cfg.OnAirTickSeconds)*time.Second)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (tz=%s, locale=%s)", addr, cfg.SiteTimezone, cfg.SiteLocale)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}

// mediaBackend picks the S3-compatible store when an endpoint is configured
// and the local disk otherwise.
func mediaBackend(ctx context.Context, cfg config.Config) (services.ObjectBackend, error) {
	if cfg.MediaS3Endpoint == "" {
		log.Printf("media: disk storage at %s", cfg.MediaStoragePath)
		return services.DiskBackend{Base: cfg.MediaStoragePath}, nil
	}
	log.Printf("media: bucket %s at %s", cfg.MediaS3Bucket, cfg.MediaS3Endpoint)
	backend, err := services.NewMinioBackend(ctx, cfg.MediaS3Endpoint, cfg.MediaS3Access, cfg.MediaS3Secret, cfg.MediaS3Bucket, cfg.MediaS3UseSSL)
	if err != nil {
		return nil, err
	}
	return backend, nil
}
