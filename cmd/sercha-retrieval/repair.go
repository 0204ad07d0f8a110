package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-retrieval/internal/worker"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Remove indexed passages whose document was deleted",
	Long: `Runs one orphan sweep under the distributed lock. A sweep already
running on another instance makes this a no-op.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, false)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	w := worker.New(worker.Config{
		Repairer: a.services.Ingest,
		Lock:     a.lock,
		Logger:   logger,
		LockTTL:  cfg.Repair.LockTTL,
	})
	if !w.Sweep(ctx) {
		fmt.Println("Another instance is repairing; nothing done.")
		return nil
	}

	health := w.Health(ctx)
	if health.Error != "" {
		return fmt.Errorf("repair failed: %s", health.Error)
	}
	if r := health.LastReport; r != nil {
		fmt.Printf("Indexed documents: %d, stored: %d\n", r.IndexedDocuments, r.StoredDocuments)
		fmt.Printf("Orphans: %d removed, %d failed\n", r.Removed, r.Failed)
		for _, id := range r.Orphans {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
