package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve ranked passages for a question, or answer it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("k", domain.DefaultTopK, "number of passages to return")
	queryCmd.Flags().StringSlice("doc", nil, "restrict retrieval to these document ids")
	queryCmd.Flags().Bool("answer", false, "generate an answer from the retrieved passages")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, false)

	k, _ := cmd.Flags().GetInt("k")
	docs, _ := cmd.Flags().GetStringSlice("doc")
	answer, _ := cmd.Flags().GetBool("answer")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")
	opts := domain.RetrieveOptions{K: k, AllowDocumentIDs: docs}

	var out any
	var citations []domain.Citation
	if answer {
		res, err := a.services.Answer.Ask(ctx, question, opts)
		if err != nil {
			return err
		}
		out, citations = res, res.Citations
		if len(citations) == 0 {
			citations = res.Sources
		}
		if !jsonOutput {
			fmt.Printf("%s\n\nConfidence: %.2f\n", res.Answer, res.Confidence)
		}
	} else {
		res, err := a.services.Retrieval.Retrieve(ctx, question, opts)
		if err != nil {
			return err
		}
		out, citations = res, res.Citations
		if !jsonOutput {
			if res.Empty() {
				fmt.Println("No relevant passages found.")
				return nil
			}
			fmt.Printf("Confidence: %.2f\n", res.Confidence)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println()
	for _, c := range citations {
		fmt.Printf("[Source %d] %s, %s, p. %d (score %.3f)\n  %s\n\n",
			c.Source, c.Title, c.Section, c.Page, c.Score, c.Excerpt)
	}
	return nil
}
