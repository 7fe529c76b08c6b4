// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-analyzer/internal/pipeline"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Synthesize findings across papers",
	Long: `Synthesize searches both arXiv and Semantic Scholar for --query and builds a
cross-paper narrative: per-paper insights, common themes, and conflicting
findings. Paper ids are resolved against results returned earlier by the same
process, so from the command line they are useful only alongside --query.`,
	RunE: runSynthesize,
}

func init() {
	synthesizeCmd.Flags().String("query", "", "search query supplying the papers")
	synthesizeCmd.Flags().String("ids", "", "paper ids from earlier search results (comma-separated)")
	synthesizeCmd.Flags().String("mode", string(types.ModeComprehensive), "comprehensive, comparative, or thematic")
	synthesizeCmd.Flags().Bool("json", false, "print the result as JSON")
	synthesizeCmd.Flags().Bool("audio", false, "render the narrative as audio")

	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	ids, _ := cmd.Flags().GetString("ids")
	mode, _ := cmd.Flags().GetString("mode")
	asJSON, _ := cmd.Flags().GetBool("json")
	withAudio, _ := cmd.Flags().GetBool("audio")

	if strings.TrimSpace(query) == "" && strings.TrimSpace(ids) == "" {
		return fmt.Errorf("provide --query or --ids")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if !withAudio {
		a.pipeline.Audio = nil
	}

	resp, err := a.pipeline.Synthesize(cmd.Context(), pipeline.SynthesisRequest{
		IDs:   pipeline.ParseIDs(ids),
		Query: strings.TrimSpace(query),
		Mode:  types.SynthesisMode(strings.ToLower(mode)),
	})

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return fmt.Errorf("encoding result: %w", encErr)
		}
	} else {
		fmt.Println(resp.Synthesis)
		if resp.Audio != "" {
			fmt.Printf("\nAudio: %s\n", resp.Audio)
		}
	}
	if len(resp.MissingIDs) > 0 {
		fmt.Fprintf(os.Stderr, "Not found: %s\n", strings.Join(resp.MissingIDs, ", "))
	}
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	return nil
}
