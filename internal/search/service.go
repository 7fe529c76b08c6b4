// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Source selectors accepted by Service.Search. Any other value searches
// both backends.
const (
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
	SourceBoth            = "both"
)

// Service selects backends by source, bounds each search with a timeout,
// and remembers returned papers by identifier.
type Service struct {
	arxiv    Backend
	semantic Backend
	papers   *cache.Cache
	timeout  time.Duration
	logger   *zap.Logger

	// OnSearch, when set, is called once per backend search.
	OnSearch func(backend string, results int, err error)
}

// NewService builds a Service backed by the live arXiv and Semantic
// Scholar APIs.
func NewService(cfg types.SearchConfig, timeout time.Duration, logger *zap.Logger) *Service {
	client := httputil.New(cfg.HTTPConfig)
	return NewServiceWithBackends(
		&ArxivBackend{Client: client},
		&SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey},
		cfg.CacheTTL, timeout, logger,
	)
}

// NewServiceWithBackends builds a Service over arbitrary backends. A zero
// ttl keeps papers for one hour.
func NewServiceWithBackends(arxiv, semantic Backend, ttl, timeout time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		arxiv:    arxiv,
		semantic: semantic,
		papers:   cache.New(ttl, 10*time.Minute),
		timeout:  timeout,
		logger:   logger,
	}
}

// Search queries the backends named by source. A single source gets
// maxResults; both sources get half each. Backend failures yield fewer
// (possibly zero) results, never an error; only an empty query is an error.
func (s *Service) Search(ctx context.Context, query, source string, maxResults int) (Output, error) {
	if strings.TrimSpace(query) == "" {
		return Output{Results: []types.SearchResult{}}, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	var backends []Backend
	limit := maxResults
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceArxiv:
		backends = []Backend{s.arxiv}
	case SourceSemanticScholar:
		backends = []Backend{s.semantic}
	default:
		backends = []Backend{s.arxiv, s.semantic}
		limit = max(maxResults/2, 1)
	}
	return s.run(ctx, query, backends, limit), nil
}

// Papers resolves ids against previously returned search results and, when
// query is non-empty, appends fresh results from both backends. Each
// backend contributes len(ids) papers, or perSource when ids is empty.
// Unknown ids are returned in missing.
func (s *Service) Papers(ctx context.Context, ids []string, query string, perSource int) (papers []types.PaperRecord, missing []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		r, ok := s.Lookup(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		seen[id] = true
		papers = append(papers, r.PaperRecord())
	}

	if strings.TrimSpace(query) == "" {
		return papers, missing
	}
	limit := perSource
	if len(ids) > 0 {
		limit = len(ids)
	}
	if limit <= 0 {
		limit = 5
	}
	out := s.run(ctx, query, []Backend{s.arxiv, s.semantic}, limit)
	for _, r := range out.Results {
		if seen[r.Identifier] {
			continue
		}
		seen[r.Identifier] = true
		papers = append(papers, r.PaperRecord())
	}
	return papers, missing
}

// Lookup returns a paper previously returned by Search.
func (s *Service) Lookup(id string) (types.SearchResult, bool) {
	if x, found := s.papers.Get(id); found {
		return x.(types.SearchResult), true
	}
	return types.SearchResult{}, false
}

// Cached reports how many papers are currently resolvable by id.
func (s *Service) Cached() int { return s.papers.ItemCount() }

func (s *Service) run(ctx context.Context, query string, backends []Backend, limit int) Output {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var live []Backend
	for _, b := range backends {
		if b != nil {
			live = append(live, observed{Backend: b, s: s})
		}
	}

	out, err := Search(ctx, query, live, limit, io.Discard)
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return Output{Results: []types.SearchResult{}}
	}
	for _, e := range out.BackendErrors {
		s.logger.Warn("search backend failed", zap.String("query", query), zap.String("error", e))
	}
	for _, r := range out.Results {
		if r.Identifier != "" {
			s.papers.Set(r.Identifier, r, cache.DefaultExpiration)
		}
	}
	s.logger.Info("search complete",
		zap.String("query", query),
		zap.Int("results", len(out.Results)),
		zap.Int("duplicates", out.DupsRemoved))
	return out
}

// observed reports each backend call to Service.OnSearch.
type observed struct {
	Backend
	s *Service
}

func (o observed) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	results, err := o.Backend.Search(ctx, query, limit)
	if o.s.OnSearch != nil {
		o.s.OnSearch(o.Backend.Name(), len(results), err)
	}
	return results, err
}
