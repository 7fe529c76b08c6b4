// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client *httputil.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return SourceArxiv }

// Search runs an all-fields phrase query sorted by relevance.
func (b *ArxivBackend) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"search_query": {buildArxivQuery(query)},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	resp, err := b.Client.Get(ctx, arxivAPIBase+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	results := make([]types.SearchResult, 0, total)
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.SearchResult{
			Identifier:     arxivID,
			Title:          collapseSpace(entry.Title),
			Abstract:       collapseSpace(entry.Summary),
			Venue:          strings.TrimSpace(entry.JournalRef),
			DOI:            strings.TrimSpace(entry.DOI),
			URL:            "https://arxiv.org/abs/" + arxivID,
			PDFURL:         "https://arxiv.org/pdf/" + arxivID + ".pdf",
			Source:         SourceArxiv,
			RelevanceScore: positionScore(i, total),
		}
		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}
		for _, c := range entry.Categories {
			if c.Term != "" {
				r.Categories = append(r.Categories, c.Term)
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			r.Date = t
			r.Year = t.Format("2006")
		}

		results = append(results, r)
	}
	return results, nil
}

// buildArxivQuery quotes the query as an all-fields phrase.
func buildArxivQuery(q string) string {
	q = strings.ReplaceAll(strings.Join(strings.Fields(q), " "), `"`, "")
	return `all:"` + q + `"`
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string          `xml:"http://arxiv.org/schemas/atom journal_ref"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
