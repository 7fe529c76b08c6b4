// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs (arXiv, Semantic Scholar) and returns
// unified, deduplicated paper records. Results are kept in a short-lived
// cache so later synthesis requests can refer to papers by identifier.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Errors returned by Search.
var (
	ErrEmptyQuery = errors.New("query is empty")
	ErrNoBackends = errors.New("no search backends configured")
)

// Backend searches a single academic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error)
}

// Output holds the merged results and per-backend failures.
type Output struct {
	Results       []types.SearchResult
	DupsRemoved   int
	BackendErrors []string
}

// Search fans the query out to every backend concurrently with the given
// per-backend limit, then deduplicates and ranks the union. A failing
// backend is reported in BackendErrors and written to w; the others still
// contribute.
func Search(ctx context.Context, query string, backends []Backend, limit int, w io.Writer) (Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Output{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return Output{}, ErrNoBackends
	}
	if w == nil {
		w = io.Discard
	}

	type backendResult struct {
		order   int
		name    string
		results []types.SearchResult
		err     error
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, limit)
			ch <- backendResult{order: i, name: b.Name(), results: results, err: err}
		}(i, b)
	}
	wg.Wait()
	close(ch)

	// Merge in backend order so ties in score keep a stable source order.
	collected := make([]backendResult, len(backends))
	for br := range ch {
		collected[br.order] = br
	}

	var all []types.SearchResult
	var backendErrors []string
	for _, br := range collected {
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.results...)
	}

	deduped, removed := deduplicate(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	return Output{
		Results:       deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// deduplicate merges results that share an identifier or normalized title.
func deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]int)
	deduped := make([]types.SearchResult, 0, len(results))
	removed := 0

	for _, r := range results {
		keys := dedupKeys(r)
		idx, dup := -1, false
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				idx, dup = i, true
				break
			}
		}
		if dup {
			mergeInto(&deduped[idx], r)
			removed++
		} else {
			idx = len(deduped)
			deduped = append(deduped, r)
		}
		for _, k := range dedupKeys(deduped[idx]) {
			seen[k] = idx
		}
	}
	return deduped, removed
}

// dedupKeys returns every key a result can collide on: its identifier, its
// DOI, and its normalized title.
func dedupKeys(r types.SearchResult) []string {
	var keys []string
	if r.Identifier != "" {
		keys = append(keys, "id:"+r.Identifier)
	}
	if r.DOI != "" {
		keys = append(keys, "doi:"+strings.ToLower(r.DOI))
	}
	if t := normalizeTitle(r.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.Year == "" {
		dst.Year = src.Year
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.PDFURL == "" {
		dst.PDFURL = src.PDFURL
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if src.Source != "" && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// positionScore gives the first of total results 1.0 and the last 0.1.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range out.Results {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.PublicationYear(), r.RelevanceScore, r.Identifier)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	results := out.Results
	if results == nil {
		results = []types.SearchResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
