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

	"golang.org/x/sync/errgroup"

	"pactum/agreement"
	"pactum/auth"
	"pactum/config"
	"pactum/counterparty"
	"pactum/db"
	"pactum/httpapi"
	"pactum/outbox"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("PACTUM_CONFIG")
	if cfgPath == "" {
		cfgPath = "pactum.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("bootstrap config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret)
	crudService := agreement.NewCRUDService(pool)
	statusService := agreement.NewStatusService(pool)
	terminationService := agreement.NewService(pool, nil)
	counterpartyService := counterparty.NewService(counterparty.NewRepository(pool))

	handler, err := httpapi.New(httpapi.Config{
		Auth:           authService,
		Agreements:     crudService,
		Status:         statusService,
		Terminations:   terminationService,
		Counterparties: counterpartyService,
	})
	if err != nil {
		log.Fatalf("bootstrap http api: %v", err)
	}

	dispatcher := outbox.NewDispatcher(pool, nil, nil,
		outbox.WithInterval(time.Duration(cfg.Outbox.Interval)),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithWorkers(cfg.Outbox.Workers),
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("api listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("api exited: %v", err)
	}
}
