package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qatysu.org/internal/attendance"
	"qatysu.org/internal/badge"
	"qatysu.org/internal/config"
	"qatysu.org/internal/directory"
	"qatysu.org/internal/httpapi"
	"qatysu.org/internal/obs"
	"qatysu.org/internal/store/pg"
	"qatysu.org/internal/stream"
	"qatysu.org/internal/verify"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	codec, err := badge.New([]byte(cfg.BadgeSecret), badge.WithMaxAge(cfg.BadgeMaxAge))
	if err != nil {
		log.Fatalf("badge codec: %v", err)
	}

	var (
		ledger attendance.Service
		dir    directory.Service
		store  *pg.Store
	)
	if cfg.PGDSN != "" {
		store, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		ledger = store
		dir = pg.NewDirectory(store)
	} else {
		log.Print("no QATYSU_PG_DSN set, using in-memory stores")
		ledger = attendance.NewInMemory()
		dir = directory.NewInMemory()
	}

	var verifier verify.Verifier
	if cfg.VerifierURL != "" {
		verifier, err = verify.NewHTTPClient(cfg.VerifierURL)
		if err != nil {
			log.Fatalf("verifier client: %v", err)
		}
	} else {
		log.Print("no QATYSU_VERIFIER_URL set, face verification is stubbed to accept")
		verifier = verify.Static{Verified: true}
	}

	ready := httpapi.ReadyProbe{}
	if store != nil {
		ready.DB = store.DB()
	}

	api := httpapi.New(httpapi.Options{
		Ready:             ready,
		Version:           version,
		Codec:             codec,
		Ledger:            ledger,
		Directory:         dir,
		Verifier:          verifier,
		Stream:            stream.New(),
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPassHash,
		RateBurst:         cfg.RateLimitBurst,
		RatePerSec:        cfg.RateLimitPerSec,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting qatysu-api %s on %s", version, srv.Addr)

	// graceful shutdown
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
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}
