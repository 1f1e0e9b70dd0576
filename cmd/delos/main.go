// cmd/delos/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fawad-mazhar/delos/internal/api/routes"
	"github.com/fawad-mazhar/delos/internal/config"
	"github.com/fawad-mazhar/delos/internal/loader"
	"github.com/fawad-mazhar/delos/internal/metrics"
	"github.com/fawad-mazhar/delos/internal/orchestrator"
	"github.com/fawad-mazhar/delos/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create load function registry with the sample functions
	registry := worker.NewRegistry()
	if err := worker.RegisterDefaults(registry); err != nil {
		log.Fatalf("Failed to register load functions: %v", err)
	}

	// Create and start the async loader
	totalThreads := &metrics.AtomicGauge{}
	activeThreads := &metrics.AtomicGauge{}
	ld := loader.New(totalThreads, activeThreads, cfg.Loader.MaxThreads, cfg.Loader.LogFailures)
	ld.Start()

	// Create orchestrator (registers configured load plans)
	orch, err := orchestrator.NewOrchestrator(cfg, ld, registry, totalThreads, activeThreads)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	log.Printf("Starting delos %s with %d workers", orch.ID(), cfg.Loader.MaxThreads)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.SetupRouter(orch),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
	}

	// Drain scheduled work, then stop the worker pool
	shutdownTimeout := time.Duration(cfg.Loader.ShutdownTimeout) * time.Second
	if err := orch.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Shutdown complete")
}
