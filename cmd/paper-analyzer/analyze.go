// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-analyzer/internal/acquire"
	"github.com/pdiddy/paper-analyzer/internal/citation"
	"github.com/pdiddy/paper-analyzer/internal/classify"
	"github.com/pdiddy/paper-analyzer/internal/pipeline"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file.pdf|url|doi...]",
	Short: "Summarize, cite, and narrate papers",
	Long: `Analyze runs each input through extraction, metadata, summarization,
citation, and audio. Inputs may be local PDF files, web URLs, arXiv IDs, or
DOIs. Per-paper progress goes to stderr; results go to stdout.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("topics", "", "candidate topics for classification (comma-separated)")
	analyzeCmd.Flags().Bool("json", false, "print responses as JSON")
	analyzeCmd.Flags().String("csl", "", "write CSL-YAML citations of analyzed papers to this file")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files, URLs, or DOIs")
	}
	topicsFlag, _ := cmd.Flags().GetString("topics")
	asJSON, _ := cmd.Flags().GetBool("json")
	cslPath, _ := cmd.Flags().GetString("csl")

	reqs, err := buildRequests(args, classify.ParseTopics(topicsFlag))
	if err != nil {
		return err
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

	result := a.pipeline.AnalyzeBatch(cmd.Context(), reqs, os.Stderr)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Responses); err != nil {
			return fmt.Errorf("encoding responses: %w", err)
		}
	} else {
		printResponses(os.Stdout, result.Responses)
	}

	if cslPath != "" {
		if err := writeCSL(cslPath, result.Responses); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Citations written to %s\n", cslPath)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed analysis", result.Failed)
	}
	return nil
}

// buildRequests turns arguments into pipeline requests. Existing files are
// uploads; DOIs go through DOI resolution; everything else is fetched.
func buildRequests(args []string, topics []string) ([]pipeline.Request, error) {
	reqs := make([]pipeline.Request, 0, len(args))
	for _, arg := range args {
		if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
			raw, err := os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", arg, err)
			}
			reqs = append(reqs, pipeline.Request{Kind: types.SourceUpload, Name: filepath.Base(arg), Raw: raw, Topics: topics})
			continue
		}
		kind := types.SourceURL
		if t, _ := acquire.Classify(arg); t == acquire.TypeDOI {
			kind = types.SourceDOI
		}
		reqs = append(reqs, pipeline.Request{Kind: kind, Identifier: arg, Topics: topics})
	}
	return reqs, nil
}

func printResponses(w io.Writer, resps []pipeline.Response) {
	for i, r := range resps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.SourceInfo != nil && r.SourceInfo.Title != "" {
			fmt.Fprintf(w, "== %s\n", r.SourceInfo.Title)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "Classification: %s\n", r.Classification)
		fmt.Fprintf(w, "Summary: %s\n", r.Summary)
		if r.Citations != nil {
			fmt.Fprintf(w, "APA: %s\n", r.Citations.APA)
		}
		if r.Audio != "" {
			fmt.Fprintf(w, "Audio: %s\n", r.Audio)
		}
	}
}

func writeCSL(path string, resps []pipeline.Response) error {
	var items []citation.CSLItem
	for _, r := range resps {
		if r.Error == "" {
			items = append(items, citation.ToCSL(r.Metadata))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := citation.WriteCSL(items, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
