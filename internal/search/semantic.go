// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors.name,abstract,year,venue,url,paperId,externalIds"

// SemanticScholarBackend queries the Semantic Scholar graph API.
type SemanticScholarBackend struct {
	Client *httputil.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return SourceSemanticScholar }

// Search runs a keyword query against the paper search endpoint.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := b.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	total := len(sr.Data)
	results := make([]types.SearchResult, 0, total)
	for i, paper := range sr.Data {
		r := types.SearchResult{
			Identifier:     paper.PaperID,
			Title:          paper.Title,
			Abstract:       paper.Abstract,
			Venue:          paper.Venue,
			URL:            paper.URL,
			DOI:            paper.ExternalIDs.DOI,
			Source:         SourceSemanticScholar,
			RelevanceScore: positionScore(i, total),
		}
		if paper.Year > 0 {
			r.Year = strconv.Itoa(paper.Year)
		}
		for _, a := range paper.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}
		if paper.ExternalIDs.ArXiv != "" {
			r.PDFURL = "https://arxiv.org/pdf/" + paper.ExternalIDs.ArXiv + ".pdf"
		}
		results = append(results, r)
	}
	return results, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Abstract    string              `json:"abstract"`
	Year        int                 `json:"year"`
	Venue       string              `json:"venue"`
	URL         string              `json:"url"`
	Authors     []semanticAuthor    `json:"authors"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
