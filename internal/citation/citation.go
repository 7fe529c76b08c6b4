// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation renders bibliographic metadata as citation strings (APA,
// MLA, Chicago, BibTeX) and as CSL-YAML for reference managers.
package citation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Style names a citation format.
type Style string

const (
	APA     Style = "apa"
	MLA     Style = "mla"
	Chicago Style = "chicago"
	BibTeX  Style = "bibtex"
	All     Style = "all"
)

// Citations holds one rendering per style. Unrequested styles are empty.
type Citations struct {
	APA     string `json:"apa,omitempty"`
	MLA     string `json:"mla,omitempty"`
	Chicago string `json:"chicago,omitempty"`
	BibTeX  string `json:"bibtex,omitempty"`
}

// Render formats m in the requested style, or every style for All. Absent
// fields are rendered with their sentinel strings.
func Render(m types.Metadata, style Style) Citations {
	title := m.TitleOrSentinel()
	authors := m.AuthorsOrSentinel()
	year := m.YearOrSentinel()
	journal := m.VenueOrSentinel()
	byline := strings.TrimSuffix(authorList(authors), ".")

	var c Citations
	if style == APA || style == All {
		c.APA = fmt.Sprintf("%s. (%s). %s. %s.", byline, year, title, journal)
		if m.DOI != "" {
			c.APA += " https://doi.org/" + m.DOI
		}
	}
	if style == MLA || style == All {
		c.MLA = fmt.Sprintf("%s. \"%s.\" %s, %s.", byline, title, journal, year)
		if m.DOI != "" {
			c.MLA += " doi:" + m.DOI
		}
	}
	if style == Chicago || style == All {
		c.Chicago = fmt.Sprintf("%s. \"%s.\" %s (%s).", byline, title, journal, year)
		if m.DOI != "" {
			c.Chicago += " https://doi.org/" + m.DOI
		}
	}
	if style == BibTeX || style == All {
		c.BibTeX = fmt.Sprintf("@article{%s,\n  title={%s},\n  author={%s},\n  journal={%s},\n  year={%s},\n  doi={%s}\n}",
			BibKey(m), title, strings.Join(authors, " and "), journal, year, m.DOI)
	}
	return c
}

// authorList joins up to two authors; longer lists use "et al.".
func authorList(authors []string) string {
	if len(authors) <= 2 {
		return strings.Join(authors, ", ")
	}
	return authors[0] + " et al."
}

// BibKey is the lowercase surname of the first author followed by the year,
// or "unknown" when no author is known.
func BibKey(m types.Metadata) string {
	if !m.HasAuthors() {
		return "unknown"
	}
	fields := strings.Fields(m.Authors[0])
	if len(fields) == 0 {
		return "unknown"
	}
	surname := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, fields[len(fields)-1])
	if surname == "" {
		surname = "unknown"
	}
	return surname + m.Year
}
