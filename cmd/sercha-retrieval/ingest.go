package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest text, Markdown or HTML files into the corpus",
	Long: `Extracts each file, classifies its sections, segments it into passages
and indexes them. Files may carry [PAGE n] markers or form feeds between
pages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, false)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	batch := &domain.BatchIngestResult{Results: []*domain.IngestResult{}}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			batch.Add(&domain.IngestResult{Filename: path, Status: domain.IngestStatusFailed, Error: err.Error()})
			continue
		}

		filename := filepath.Base(path)
		result, err := a.services.Ingest.IngestFile(ctx, filename, "", data)
		if err != nil {
			if result == nil {
				result = &domain.IngestResult{Filename: filename, Status: domain.IngestStatusFailed}
			}
			result.Error = err.Error()
		}
		batch.Add(result)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	}

	for _, r := range batch.Results {
		switch r.Status {
		case domain.IngestStatusIngested:
			fmt.Printf("%-40s ingested  %d passages, %d pages, sections: %v\n",
				r.Filename, r.Document.PassageCount, r.Document.PageCount, r.Document.Sections)
		default:
			fmt.Printf("%-40s %-9s %s\n", r.Filename, r.Status, r.Error)
		}
	}
	fmt.Printf("\n%d ingested, %d failed\n", batch.Succeeded, batch.Failed)

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", batch.Failed, len(batch.Results))
	}
	return nil
}
