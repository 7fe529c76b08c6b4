// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata recovers bibliographic fields (title, authors, year,
// venue, DOI, abstract) from extracted text and, when available, the source
// markup. Each field has an ordered list of candidate strategies; the first
// candidate that passes the field's plausibility filter wins. Authors are
// the exception: every strategy contributes and the union is filtered,
// deduplicated, and capped.
package metadata

import (
	"context"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-analyzer/internal/convert"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// MaxAuthors caps the author list.
const MaxAuthors = 5

// Scan windows, in lines.
const (
	titleWindow  = 20
	authorWindow = 50
	yearWindow   = 100
	venueWindow  = 100
)

// Input is what the extractor reads. Text is the extracted plain text;
// Markup is the raw HTML when the source was a web page.
type Input struct {
	Text   string
	Markup string
	URL    string
}

// Extract runs every field's strategies over in. It is a pure function of
// its input.
func Extract(in Input) types.Metadata {
	doc := parseMarkup(in.Markup)
	lines := strings.Split(in.Text, "\n")

	md := types.Metadata{URL: in.URL}
	md.Title = firstAccepted(titleCandidates(in, doc, lines), acceptTitle)
	md.Authors = mergeAuthors(in, doc, lines, md.Title)
	md.Year = firstAccepted(yearCandidates(doc, lines), acceptAny)
	md.Venue = firstAccepted(venueCandidates(in, doc, lines), acceptVenue)
	md.DOI = firstAccepted(doiCandidates(in, doc), acceptAny)
	md.Abstract = firstAccepted(abstractCandidates(in, doc), acceptAbstract)
	return md
}

// FromSource extracts metadata from a single blob that is either plain text
// or HTML markup. Markup is reduced to visible text for the text strategies.
func FromSource(textOrMarkup, sourceURL string) types.Metadata {
	in := Input{Text: textOrMarkup, URL: sourceURL}
	if looksLikeMarkup(textOrMarkup) {
		in.Markup = textOrMarkup
		if text, err := (convert.HTMLText{}).Convert(context.Background(), []byte(textOrMarkup)); err == nil {
			in.Text = text
		}
	}
	return Extract(in)
}

// Merge fills the empty fields of base from more. Fields already set in
// base are never overwritten.
func Merge(base, more types.Metadata) types.Metadata {
	out := base
	if out.Title == "" {
		out.Title = more.Title
	}
	if len(out.Authors) == 0 && len(more.Authors) > 0 {
		out.Authors = append([]string(nil), more.Authors...)
	}
	if out.Year == "" {
		out.Year = more.Year
	}
	if out.Venue == "" {
		out.Venue = more.Venue
	}
	if out.DOI == "" {
		out.DOI = more.DOI
	}
	if out.Abstract == "" {
		out.Abstract = more.Abstract
	}
	if out.URL == "" {
		out.URL = more.URL
	}
	return out
}

var reMarkupTag = regexp.MustCompile(`(?i)<(html|head|body|meta|title|div|p|script)[\s>]`)

func looksLikeMarkup(s string) bool {
	return reMarkupTag.MatchString(s[:min(len(s), 4096)])
}

// firstAccepted returns the first candidate that passes accept after
// cleaning, or "".
func firstAccepted(cands []string, accept func(string) bool) string {
	for _, c := range cands {
		c = cleanField(c)
		if c != "" && accept(c) {
			return c
		}
	}
	return ""
}

var (
	reTags     = regexp.MustCompile(`<[^>]+>`)
	reEntities = regexp.MustCompile(`&[a-zA-Z]+;`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// cleanField removes tags and entities and collapses whitespace.
func cleanField(s string) string {
	s = reTags.ReplaceAllString(s, "")
	s = reEntities.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func window(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func acceptAny(string) bool { return true }

// firstGroup returns group 1 of the first match of each pattern, in order.
func firstGroup(s string, patterns ...*regexp.Regexp) []string {
	var out []string
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// lineGroups scans lines in order and returns group 1 of every line match
// for each pattern, pattern by pattern.
func lineGroups(lines []string, patterns ...*regexp.Regexp) []string {
	var out []string
	for _, re := range patterns {
		for _, line := range lines {
			if m := re.FindStringSubmatch(line); m != nil {
				out = append(out, m[1])
			}
		}
	}
	return out
}
