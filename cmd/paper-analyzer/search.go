// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-analyzer/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search arXiv and Semantic Scholar for papers",
	Long: `Search queries arXiv, Semantic Scholar, or both for papers matching a
free-text query. With both sources the result limit is split between them and
duplicates are removed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("source", search.SourceArxiv, "arxiv, semantic_scholar, or both")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (default 10)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("provide a search query")
	}
	source, _ := cmd.Flags().GetString("source")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxResults <= 0 {
		maxResults = cfg.Search.MaxResults
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.search.Search(cmd.Context(), query, source, maxResults)
	if err != nil {
		return err
	}
	for _, e := range out.BackendErrors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	if asJSON {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}
