// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

const sampleArxivXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <title>Test Paper
      Title</title>
    <summary>This is the abstract of the test paper.</summary>
    <published>2023-01-17T18:58:28Z</published>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
    <arxiv:journal_ref>Journal of Tests 12 (2023)</arxiv:journal_ref>
  </entry>
</feed>`

const sampleCrossRefJSON = `{
  "status": "ok",
  "message": {
    "title": ["CrossRef Paper Title"],
    "container-title": ["Journal of Examples"],
    "abstract": "<jats:p>Abstract from <jats:italic>CrossRef</jats:italic>.</jats:p>",
    "author": [
      {"given": "Carol", "family": "White"},
      {"given": "Dave", "family": "Brown"},
      {"name": "The Consortium"}
    ],
    "issued": {"date-parts": [[2022, 11]]},
    "created": {"date-parts": [[2023, 6, 15]]},
    "URL": "http://dx.doi.org/10.1145/1234567"
  }
}`

const fakePDFContent = "%PDF-1.4 fake"

// fixture is an httptest server that serves fake PDF downloads, arXiv API
// responses, CrossRef responses, and OpenAlex records based on URL path.
type fixture struct {
	ts       *httptest.Server
	openAlex string
	oaStatus int
	hits     map[string]*int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		openAlex: `{"best_oa_location": null}`,
		oaStatus: http.StatusOK,
		hits:     map[string]*int32{},
	}
	for _, k := range []string{"pdf", "api", "works", "openalex", "doi", "oa-pdf"} {
		f.hits[k] = new(int32)
	}
	f.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			atomic.AddInt32(f.hits["pdf"], 1)
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case r.URL.Path == "/api/query":
			atomic.AddInt32(f.hits["api"], 1)
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, sampleArxivXML)
		case strings.HasPrefix(r.URL.Path, "/works/"):
			atomic.AddInt32(f.hits["works"], 1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, sampleCrossRefJSON)
		case strings.HasPrefix(r.URL.Path, "/openalex/"):
			atomic.AddInt32(f.hits["openalex"], 1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.oaStatus)
			fmt.Fprint(w, strings.ReplaceAll(f.openAlex, "{{base}}", f.ts.URL))
		case strings.HasPrefix(r.URL.Path, "/doi/"):
			// The landing page stands in for the publisher redirect target.
			atomic.AddInt32(f.hits["doi"], 1)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><head><title>Landing</title></head><body>Article</body></html>")
		case r.URL.Path == "/oa.pdf":
			atomic.AddInt32(f.hits["oa-pdf"], 1)
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case r.URL.Path == "/redirect":
			http.Redirect(w, r, "/pdf/moved", http.StatusFound)
		case r.URL.Path == "/big":
			fmt.Fprint(w, strings.Repeat("x", 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.ts.Close)

	origPDF, origAPI, origDOI, origCR, origOA := arxivPDFBase, arxivAPIBase, doiBase, crossrefAPIBase, openAlexAPIBase
	arxivPDFBase = f.ts.URL + "/pdf/"
	arxivAPIBase = f.ts.URL + "/api/query"
	doiBase = f.ts.URL + "/doi/"
	crossrefAPIBase = f.ts.URL + "/works/"
	openAlexAPIBase = f.ts.URL + "/openalex/"
	t.Cleanup(func() {
		arxivPDFBase, arxivAPIBase, doiBase, crossrefAPIBase, openAlexAPIBase = origPDF, origAPI, origDOI, origCR, origOA
	})
	return f
}

func (f *fixture) fetcher() *Fetcher {
	return &Fetcher{Client: &httputil.Client{HTTP: f.ts.Client(), UserAgent: "paper-analyzer-test/0.1"}}
}

func (f *fixture) count(k string) int32 { return atomic.LoadInt32(f.hits[k]) }

func TestFetchArxiv(t *testing.T) {
	f := newFixture(t)

	src, err := f.fetcher().Fetch(context.Background(), "arXiv:2301.07041")
	require.NoError(t, err)

	assert.Equal(t, TypeArxiv, src.Type)
	assert.Equal(t, "2301.07041", src.Identifier)
	assert.Equal(t, fakePDFContent, string(src.Raw))
	assert.Equal(t, "application/pdf", src.ContentType)
	assert.Equal(t, "arxiv", src.Via)

	assert.Equal(t, "Test Paper Title", src.Seed.Title)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, src.Seed.Authors)
	assert.Equal(t, "2023", src.Seed.Year)
	assert.Equal(t, "Journal of Tests 12 (2023)", src.Seed.Venue)
	assert.Equal(t, "https://arxiv.org/abs/2301.07041", src.Seed.URL)
}

func TestFetchDOI_LandingPageWhenNoOpenAccess(t *testing.T) {
	f := newFixture(t)

	src, err := f.fetcher().Fetch(context.Background(), "doi:10.1145/1234567")
	require.NoError(t, err)

	assert.Equal(t, TypeDOI, src.Type)
	assert.Equal(t, "doi", src.Via)
	assert.Contains(t, string(src.Raw), "Landing")
	assert.Contains(t, src.ContentType, "text/html")
	assert.Equal(t, int32(1), f.count("doi"))

	seed := src.Seed
	assert.Equal(t, "10.1145/1234567", seed.DOI)
	assert.Equal(t, "CrossRef Paper Title", seed.Title)
	assert.Equal(t, "Journal of Examples", seed.Venue)
	assert.Equal(t, "2022", seed.Year, "issued year wins over created")
	assert.Equal(t, []string{"Carol White", "Dave Brown", "The Consortium"}, seed.Authors)
	assert.Equal(t, "Abstract from CrossRef .", seed.Abstract)
}

func TestFetchDOI_PrefersOpenAccessPDF(t *testing.T) {
	f := newFixture(t)
	f.openAlex = `{"best_oa_location": {"pdf_url": "{{base}}/oa.pdf", "landing_page_url": "{{base}}/landing"}}`

	src, err := f.fetcher().FetchDOI(context.Background(), "10.1145/1234567")
	require.NoError(t, err)

	assert.Equal(t, "openalex", src.Via)
	assert.Equal(t, fakePDFContent, string(src.Raw))
	assert.Equal(t, int32(1), f.count("oa-pdf"))
	assert.Equal(t, int32(0), f.count("doi"), "landing page should not be fetched")
}

func TestFetchDOI_BrokenOpenAccessFallsBack(t *testing.T) {
	f := newFixture(t)
	f.openAlex = `{"best_oa_location": {"pdf_url": "{{base}}/missing.pdf"}}`

	src, err := f.fetcher().FetchDOI(context.Background(), "10.1145/1234567")
	require.NoError(t, err)
	assert.Equal(t, "doi", src.Via)
	assert.Equal(t, int32(1), f.count("doi"))
}

func TestFetchDOI_OpenAlexDownStillFetches(t *testing.T) {
	f := newFixture(t)
	f.oaStatus = http.StatusInternalServerError

	src, err := f.fetcher().FetchDOI(context.Background(), "10.1145/1234567")
	require.NoError(t, err)
	assert.Equal(t, "doi", src.Via)
}

func TestFetchURL_FollowsRedirects(t *testing.T) {
	f := newFixture(t)

	src, err := f.fetcher().FetchURL(context.Background(), f.ts.URL+"/redirect")
	require.NoError(t, err)
	assert.Equal(t, f.ts.URL+"/pdf/moved", src.URL)
	assert.Equal(t, types.SourceURL, src.SourceKind())
}

func TestFetchURL_Errors(t *testing.T) {
	f := newFixture(t)
	fe := f.fetcher()
	fe.MaxBytes = 1024

	_, err := fe.FetchURL(context.Background(), f.ts.URL+"/nothing-here")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = fe.FetchURL(context.Background(), f.ts.URL+"/big")
	assert.ErrorContains(t, err, "1024")

	_, err = fe.FetchURL(context.Background(), "not a url")
	assert.True(t, errors.Is(err, ErrUnrecognized))

	_, err = fe.FetchDOI(context.Background(), "11.nope")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestFetch_Unrecognized(t *testing.T) {
	_, err := (&Fetcher{Client: &httputil.Client{}}).Fetch(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestFetch_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.fetcher().FetchURL(ctx, f.ts.URL+"/pdf/x")
	assert.ErrorIs(t, err, context.Canceled)
}
