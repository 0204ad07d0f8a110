package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-retrieval/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the orphan repair worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("no-worker", false, "do not run the periodic orphan repair in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, true)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log.Printf("sercha-retrieval %s starting", version)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	noWorker, _ := cmd.Flags().GetBool("no-worker")
	var w *worker.Worker
	if cfg.Repair.Enabled && !noWorker {
		w = worker.New(worker.Config{
			Repairer: a.services.Ingest,
			Lock:     a.lock,
			Logger:   logger,
			Interval: cfg.Repair.Interval,
			LockTTL:  cfg.Repair.LockTTL,
		})
		if err := w.Start(ctx); err != nil {
			return err
		}
		log.Printf("Repair worker enabled (interval=%s)", cfg.Repair.Interval)
	} else {
		log.Println("Repair worker disabled")
	}

	server := http.NewServer(http.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}, a.services, a.checks)

	// Start blocks until SIGINT/SIGTERM
	serveErr := server.Start()

	cancel()
	if w != nil {
		log.Println("Stopping worker...")
		w.Stop()
		log.Println("Worker stopped")
	}
	return serveErr
}
