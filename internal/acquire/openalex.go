// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// openAccess is the best open-access location OpenAlex knows for a work.
type openAccess struct {
	PDFURL     string
	LandingURL string
}

// resolveOpenAlex queries OpenAlex for a DOI and returns its best
// open-access location. Both fields are empty when the work has none.
func resolveOpenAlex(ctx context.Context, client *httputil.Client, doi, mailto string) (openAccess, error) {
	apiURL := openAlexAPIBase + "https://doi.org/" + doi
	if mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(mailto)
	}

	resp, err := client.Get(ctx, apiURL)
	if err != nil {
		return openAccess{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return openAccess{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	body, err := httputil.ReadAll(resp, 4<<20)
	if err != nil {
		return openAccess{}, fmt.Errorf("reading OpenAlex response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return openAccess{}, fmt.Errorf("parsing OpenAlex response: invalid JSON")
	}

	loc := gjson.GetBytes(body, "best_oa_location")
	return openAccess{
		PDFURL:     loc.Get("pdf_url").String(),
		LandingURL: loc.Get("landing_page_url").String(),
	}, nil
}
