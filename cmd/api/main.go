package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dentalab.org/internal/auth"
	"dentalab.org/internal/config"
	"dentalab.org/internal/httpapi"
	"dentalab.org/internal/obs"
	"dentalab.org/internal/store/memory"
	"dentalab.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("BUILD_COMMIT"))

	var (
		store auth.Store
		probe httpapi.ReadyProbe
	)
	if cfg.Database.DSN != "" {
		pgStore, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("no database DSN configured, using in-memory store")
		store = memory.New()
	}

	svc, err := auth.NewService(store)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 15*time.Second)
	if err := svc.Bootstrap(bootstrapCtx, bootstrapPassword(cfg)); err != nil {
		cancelBootstrap()
		log.Fatalf("bootstrap: %v", err)
	}
	cancelBootstrap()

	api := httpapi.New(svc, probe, version, httpapi.RateLimitConfig{
		PerMinute: cfg.Login.RatePerMinute,
		Burst:     cfg.Login.Burst,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting dentalab-auth %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

func bootstrapPassword(cfg *config.Config) string {
	if cfg.Auth.BootstrapAdminPassword != "" {
		return cfg.Auth.BootstrapAdminPassword
	}
	// Matches the historical default; rotate it right after first login.
	return "admin123"
}
