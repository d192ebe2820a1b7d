package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cadetquiz/internal/app"
	"cadetquiz/internal/scheduler"
)

func main() {
	cfg := app.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	store, dbConn, err := app.OpenStore(context.Background(), cfg)
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}

	svc, err := app.NewServices(cfg, store, dbConn)
	if err != nil {
		log.Printf("startup error: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	sweeper := scheduler.New(svc.Exam, svc.Results, scheduler.Config{
		Interval:    cfg.SweepInterval(),
		SessionIdle: cfg.SessionIdle(),
	})
	if err := sweeper.Start(); err != nil {
		log.Printf("scheduler error: %v", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("cadetquiz web listening on %s (results in %s)", cfg.HTTPAddr, cfg.ResultStore)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
