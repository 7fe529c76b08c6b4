// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// boilerplate words disqualify a line as a title.
var titleBoilerplate = []string{"abstract", "introduction", "references", "table", "figure"}

var (
	reNumbered = regexp.MustCompile(`^\d+\.`)
	reAllUpper = regexp.MustCompile(`^[A-Z\s]+$`)

	reJSONTitle   = regexp.MustCompile(`(?i)"title":\s*"([^"]+)"`)
	reLabelTitle  = regexp.MustCompile(`(?im)^\s*title:\s*(.+)$`)
	reJSONJournal = regexp.MustCompile(`(?i)"journal":\s*"([^"]+)"`)
	reLabelVenue  = regexp.MustCompile(`(?i)journal:\s*([^,\n]+)`)
	rePublishedIn = regexp.MustCompile(`(?i)published in\s+([^,\n]+)`)
	reVenueName   = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Journal|Review|Letters|Proceedings))`)
	reVenueUpper  = regexp.MustCompile(`([A-Z]+(?:\s+[A-Z]+)*\s+(?:Journal|Review|Letters|Proceedings))`)

	reYear = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reDOI  = regexp.MustCompile(`10\.\d{4,}/[-._;()/:\w]+`)
)

func titleCandidates(in Input, doc *markupDoc, lines []string) []string {
	var cands []string
	cands = append(cands, doc.meta("citation_title")...)
	if doc != nil {
		cands = append(cands, doc.title, doc.h1)
		cands = append(cands, firstGroup(doc.raw, reJSONTitle)...)
	}
	cands = append(cands, doc.meta("title", "og:title", "dc.title")...)
	cands = append(cands, firstGroup(in.Text, reLabelTitle)...)
	for _, line := range window(lines, titleWindow) {
		cands = append(cands, strings.TrimSpace(line))
	}
	return cands
}

// acceptTitle requires a length in [10, 200), rejects numbered-list markers,
// all-uppercase lines, and section boilerplate.
func acceptTitle(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 10 || n >= 200 {
		return false
	}
	if reNumbered.MatchString(s) || reAllUpper.MatchString(s) {
		return false
	}
	lower := strings.ToLower(s)
	for _, w := range titleBoilerplate {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func yearCandidates(doc *markupDoc, lines []string) []string {
	var cands []string
	for _, v := range doc.meta("citation_publication_date", "citation_date", "dc.date", "article:published_time") {
		if m := reYear.FindString(v); m != "" {
			cands = append(cands, m)
		}
	}
	for _, line := range window(lines, yearWindow) {
		if m := reYear.FindString(line); m != "" {
			cands = append(cands, m)
			break
		}
	}
	return cands
}

func venueCandidates(in Input, doc *markupDoc, lines []string) []string {
	var cands []string
	cands = append(cands, doc.meta("citation_journal_title", "citation_publication", "citation_conference_title", "og:site_name")...)
	if doc != nil {
		cands = append(cands, firstGroup(doc.raw, reJSONJournal)...)
	}
	w := window(lines, venueWindow)
	cands = append(cands, lineGroups(w, rePublishedIn, reLabelVenue)...)
	cands = append(cands, lineGroups(w, reVenueName, reVenueUpper)...)
	return cands
}

// acceptVenue requires a length in (3, 100).
func acceptVenue(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 3 && n < 100
}

// doiCandidates checks the source URL first, then declared metadata, then
// the text and the raw markup.
func doiCandidates(in Input, doc *markupDoc) []string {
	var cands []string
	if m := reDOI.FindString(in.URL); m != "" {
		cands = append(cands, m)
	}
	for _, v := range doc.meta("citation_doi", "dc.identifier", "prism.doi") {
		if m := reDOI.FindString(v); m != "" {
			cands = append(cands, m)
		}
	}
	if m := reDOI.FindString(in.Text); m != "" {
		cands = append(cands, m)
	}
	if doc != nil {
		if m := reDOI.FindString(doc.raw); m != "" {
			cands = append(cands, m)
		}
	}
	for i, c := range cands {
		cands[i] = strings.TrimRight(c, ".,;")
	}
	return cands
}

func abstractCandidates(in Input, doc *markupDoc) []string {
	cands := doc.meta("citation_abstract", "description", "og:description", "dc.description")
	for _, marker := range []*regexp.Regexp{reAbstractMarker, reSummaryMarker} {
		if a := sectionAfter(in.Text, marker); a != "" {
			cands = append(cands, a)
		}
	}
	return cands
}

// acceptAbstract requires a length in (50, 1000).
func acceptAbstract(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 50 && n < 1000
}

var (
	reAbstractMarker = regexp.MustCompile(`(?i)\babstract\b`)
	reSummaryMarker  = regexp.MustCompile(`(?i)\bsummary\b`)
	reSectionEnd     = regexp.MustCompile(`\n\s*\n|\n[A-Z]|(?i:introduction|keywords)`)
)

// sectionAfter returns the text following the first marker match up to a
// blank line, a line starting with a capital letter, or an "Introduction"
// or "Keywords" heading.
func sectionAfter(text string, marker *regexp.Regexp) string {
	loc := marker.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := strings.TrimLeft(text[loc[1]:], ": \t\r\n")
	if end := reSectionEnd.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}
