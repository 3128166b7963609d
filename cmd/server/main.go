package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricetracker/internal/api"
	"pricetracker/internal/config"
	"pricetracker/internal/db"
	"pricetracker/internal/deribit"
	"pricetracker/internal/fetcher"
	"pricetracker/internal/notifications"
	"pricetracker/internal/repository"
)

const banner = `
╔══════════════════════════════════════╗
║      Deribit Price Tracker v1.0      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.TestConnection(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	}

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Schema setup failed: %v\n", err)
		os.Exit(1)
	}

	priceRepo := repository.NewPriceRepo(pool)

	// Alerting
	notify := notifications.NewSender(cfg.WebhookURL, cfg.ServiceName)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(pool, priceRepo, cfg.APIPort, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Fetch scheduler
	client := deribit.NewClient(cfg.DeribitBaseURL)
	task := fetcher.NewTask(client, fetcher.NewRepoStore(priceRepo), cfg.Instruments)
	sched := fetcher.NewScheduler(task, fetcher.SchedulerConfig{
		Interval:       cfg.FetchInterval,
		OnCycleFailure: notify.CycleFailed,
	})
	sched.Start()

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
