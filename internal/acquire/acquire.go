// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire fetches source documents over the network. An identifier
// is an arXiv ID, a DOI, or an http(s) URL. DOIs are resolved through
// OpenAlex for an open-access PDF, falling back to the doi.org landing
// page; CrossRef and arXiv supply bibliographic metadata that seeds the
// extracted metadata.
package acquire

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// ErrUnrecognized is returned for identifiers that are not an arXiv ID, a
// DOI, or an http(s) URL.
var ErrUnrecognized = errors.New("unrecognized identifier")

const (
	defaultMaxBytes = 50 << 20
	metadataMax     = 4 << 20
	acceptHeader    = "application/pdf, text/html;q=0.9, */*;q=0.8"
)

// Source is a fetched document and whatever registry metadata came with it.
type Source struct {
	// Identifier is the normalized arXiv ID, DOI, or URL.
	Identifier string
	Type       IdentifierType

	// URL is where Raw was finally served from, after redirects.
	URL string

	// Name is a filename for storage, derived from the identifier.
	Name        string
	ContentType string
	Raw         []byte

	// Seed holds registry metadata. Its fields take priority over anything
	// extracted from Raw.
	Seed types.Metadata

	// Via names the resolution path (arxiv, openalex, doi, url).
	Via string
}

// SourceKind maps the identifier type to the pipeline's source kind.
func (s Source) SourceKind() types.SourceKind {
	if s.Type == TypeDOI {
		return types.SourceDOI
	}
	return types.SourceURL
}

// Fetcher downloads documents with a bounded body size.
type Fetcher struct {
	Client   *httputil.Client
	MaxBytes int64
	Mailto   string
	Logger   *zap.Logger
}

// NewFetcher builds a Fetcher from cfg.
func NewFetcher(cfg types.FetchConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		Client:   httputil.New(cfg.HTTPConfig),
		MaxBytes: cfg.MaxBytes,
		Mailto:   cfg.Mailto,
		Logger:   logger,
	}
}

// Fetch classifies identifier and fetches it.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (Source, error) {
	idType, normalized := Classify(identifier)
	switch idType {
	case TypeArxiv:
		return f.FetchArxiv(ctx, normalized)
	case TypeDOI:
		return f.FetchDOI(ctx, normalized)
	case TypeURL:
		return f.FetchURL(ctx, normalized)
	}
	return Source{}, fmt.Errorf("%w: %q", ErrUnrecognized, identifier)
}

// FetchURL downloads rawURL as-is.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (Source, error) {
	idType, normalized := Classify(rawURL)
	if idType != TypeURL {
		return Source{}, fmt.Errorf("%w: %q is not an http(s) URL", ErrUnrecognized, rawURL)
	}
	src := Source{Identifier: normalized, Type: TypeURL, Via: "url", Name: Slug(TypeURL, normalized)}
	if err := f.download(ctx, normalized, &src); err != nil {
		return Source{}, err
	}
	return src, nil
}

// FetchArxiv downloads the arXiv PDF and seeds metadata from the arXiv API.
func (f *Fetcher) FetchArxiv(ctx context.Context, id string) (Source, error) {
	src := Source{Identifier: id, Type: TypeArxiv, Via: "arxiv", Name: Slug(TypeArxiv, id)}
	if err := f.download(ctx, DocumentURL(TypeArxiv, id), &src); err != nil {
		return Source{}, err
	}
	md, err := f.arxivMetadata(ctx, id)
	if err != nil {
		f.Logger.Warn("arXiv metadata fetch failed", zap.String("id", id), zap.Error(err))
	}
	src.Seed = md
	if src.Seed.URL == "" {
		src.Seed.URL = "https://arxiv.org/abs/" + id
	}
	return src, nil
}

// FetchDOI seeds metadata from CrossRef, then downloads the open-access PDF
// OpenAlex reports for doi, or the doi.org landing page when there is none
// or it cannot be downloaded.
func (f *Fetcher) FetchDOI(ctx context.Context, doi string) (Source, error) {
	doi = NormalizeDOI(doi)
	if !doiPattern.MatchString(doi) {
		return Source{}, fmt.Errorf("%w: %q is not a DOI", ErrUnrecognized, doi)
	}
	src := Source{Identifier: doi, Type: TypeDOI, Name: Slug(TypeDOI, doi)}

	md, err := f.crossRefMetadata(ctx, doi)
	if err != nil {
		f.Logger.Warn("CrossRef metadata fetch failed", zap.String("doi", doi), zap.Error(err))
	}
	md.DOI = doi
	src.Seed = md

	oa, err := resolveOpenAlex(ctx, f.Client, doi, f.Mailto)
	if err != nil {
		f.Logger.Warn("OpenAlex lookup failed", zap.String("doi", doi), zap.Error(err))
	}
	if oa.PDFURL != "" {
		err := f.download(ctx, oa.PDFURL, &src)
		if err == nil {
			src.Via = "openalex"
			return src, nil
		}
		f.Logger.Warn("open-access PDF download failed",
			zap.String("doi", doi), zap.String("url", oa.PDFURL), zap.Error(err))
	}

	if err := f.download(ctx, DocumentURL(TypeDOI, doi), &src); err != nil {
		return Source{}, err
	}
	src.Via = "doi"
	return src, nil
}

// download fetches url into src, following redirects.
func (f *Fetcher) download(ctx context.Context, url string, src *Source) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.Client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	if resp.ContentLength > limit {
		resp.Body.Close()
		return fmt.Errorf("fetching %s: document is %d bytes, limit %d", url, resp.ContentLength, limit)
	}
	raw, err := httputil.ReadAll(resp, limit)
	if err != nil {
		return fmt.Errorf("reading %s: %w", url, err)
	}

	src.Raw = raw
	src.ContentType = resp.Header.Get("Content-Type")
	src.URL = url
	if resp.Request != nil && resp.Request.URL != nil {
		src.URL = resp.Request.URL.String()
	}
	f.Logger.Debug("fetched document",
		zap.String("url", src.URL),
		zap.String("content_type", src.ContentType),
		zap.Int("bytes", len(raw)))
	return nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	Authors    []arxivAuthor `xml:"author"`
	DOI        string        `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string        `xml:"http://arxiv.org/schemas/atom journal_ref"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// arxivMetadata retrieves metadata from the arXiv API.
func (f *Fetcher) arxivMetadata(ctx context.Context, arxivID string) (types.Metadata, error) {
	resp, err := f.Client.Get(ctx, fmt.Sprintf("%s?id_list=%s", arxivAPIBase, arxivID))
	if err != nil {
		return types.Metadata{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Metadata{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return types.Metadata{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return types.Metadata{}, fmt.Errorf("no entries found for arXiv ID %s", arxivID)
	}

	entry := feed.Entries[0]
	md := types.Metadata{
		Title:    strings.Join(strings.Fields(entry.Title), " "),
		Abstract: strings.Join(strings.Fields(entry.Summary), " "),
		Venue:    strings.TrimSpace(entry.JournalRef),
		DOI:      strings.TrimSpace(entry.DOI),
		URL:      "https://arxiv.org/abs/" + arxivID,
	}
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			md.Authors = append(md.Authors, name)
		}
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		md.Year = strconv.Itoa(t.Year())
	}
	return md, nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Abstract       string           `json:"abstract"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	Created        crossrefDate     `json:"created"`
	URL            string           `json:"URL"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() string {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 && d.DateParts[0][0] > 0 {
		return strconv.Itoa(d.DateParts[0][0])
	}
	return ""
}

// jatsTag matches the JATS markup CrossRef wraps abstracts in.
var jatsTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// crossRefMetadata retrieves metadata from the CrossRef API.
func (f *Fetcher) crossRefMetadata(ctx context.Context, doi string) (types.Metadata, error) {
	resp, err := f.Client.Get(ctx, crossrefAPIBase+doi)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("CrossRef API request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return types.Metadata{}, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}
	body, err := httputil.ReadAll(resp, metadataMax)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("reading CrossRef response: %w", err)
	}

	var cr crossrefResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return types.Metadata{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	w := cr.Message
	md := types.Metadata{URL: w.URL}
	if len(w.Title) > 0 {
		md.Title = strings.Join(strings.Fields(w.Title[0]), " ")
	}
	if len(w.ContainerTitle) > 0 {
		md.Venue = w.ContainerTitle[0]
	}
	if w.Abstract != "" {
		md.Abstract = strings.Join(strings.Fields(jatsTag.ReplaceAllString(w.Abstract, " ")), " ")
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		if name != "" {
			md.Authors = append(md.Authors, name)
		}
	}
	md.Year = w.Issued.year()
	if md.Year == "" {
		md.Year = w.Created.year()
	}
	return md, nil
}
