// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// authorBlocklist rejects institutional and boilerplate fragments.
var authorBlocklist = []string{
	"university", "department", "institute", "email", "http", "www",
	"abstract", "introduction", "references", "table", "figure",
	"unknown", "anonymous", "et al", "and others", "corresponding",
}

var (
	reAllLower   = regexp.MustCompile(`^[a-z\s]+$`)
	reAllDigits  = regexp.MustCompile(`^\d+$`)
	reSplitNames = regexp.MustCompile(`,\s*|\sand\s+`)
	reEtAl       = regexp.MustCompile(`(?i)\s+et al\.?$`)
	reLeadingAnd = regexp.MustCompile(`(?i)^\s*and\s+`)

	reJSONAuthorList = []*regexp.Regexp{
		regexp.MustCompile(`(?is)"author":\s*\[(.*?)\]`),
		regexp.MustCompile(`(?is)"authors":\s*\[(.*?)\]`),
		regexp.MustCompile(`(?is)"creator":\s*\[(.*?)\]`),
	}
	reJSONAuthorString = regexp.MustCompile(`(?i)"authors?":\s*"([^"]+)"`)

	// Labeled patterns are case-insensitive; name-shape patterns are not,
	// otherwise any two words would look like a name.
	reAuthorLines = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*authors?:\s*([^,\n]+(?:,\s*[^,\n]+)*)`),
		regexp.MustCompile(`(?i)\bwritten by\s+([^,\n]+(?:,\s*[^,\n]+)*)`),
		regexp.MustCompile(`(?i)\bby\s+([^,\n]+(?:,\s*[^,\n]+)*)`),
		regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+(?:\s*,\s*[A-Z][a-z]+\s+[A-Z][a-z]+)*,?\s+and\s+[A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+(?:\s*,\s*[A-Z][a-z]+\s+[A-Z][a-z]+)*\s+et al\.)`),
		regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+(?:\s*,\s*[A-Z][a-z]+\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z]\.(?:\s*,\s*[A-Z][a-z]+,\s*[A-Z]\.)*)`),
		regexp.MustCompile(`^\s*([A-Z][a-z]+\s+(?:[A-Z]\.\s+)?[A-Z][a-z]+)\s*$`),
	}
)

// mergeAuthors runs every author strategy, concatenates their candidates in
// strategy order, and returns the filtered, deduplicated, capped list.
func mergeAuthors(in Input, doc *markupDoc, lines []string, title string) []string {
	var cands []string
	cands = append(cands, jsonLDAuthors(doc)...)
	cands = append(cands, metaAuthors(doc)...)
	cands = append(cands, inlineJSONAuthors(doc)...)
	cands = append(cands, textAuthors(lines, title)...)
	cands = append(cands, elementAuthors(doc)...)
	return filterAuthors(cands)
}

// jsonLDAuthors reads schema.org author objects from ld+json blocks.
func jsonLDAuthors(doc *markupDoc) []string {
	if doc == nil {
		return nil
	}
	var out []string
	for _, block := range doc.jsonLD {
		if !gjson.Valid(block) {
			continue
		}
		root := gjson.Parse(block)
		nodes := []gjson.Result{root}
		if root.IsArray() {
			nodes = root.Array()
		}
		for _, node := range nodes {
			if a := node.Get("author"); a.Exists() {
				out = append(out, personNames(a)...)
				continue
			}
			node.ForEach(func(key, value gjson.Result) bool {
				if key.String() != "@graph" {
					return true
				}
				for _, item := range value.Array() {
					if typeIsPerson(item) {
						if n := item.Get("name").String(); n != "" {
							out = append(out, n)
						}
					}
				}
				return false
			})
		}
	}
	return out
}

func typeIsPerson(item gjson.Result) bool {
	found := false
	item.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "@type" {
			found = value.String() == "Person"
			return false
		}
		return true
	})
	return found
}

// personNames accepts a single Person, a list of Persons, or bare strings.
func personNames(v gjson.Result) []string {
	var out []string
	items := []gjson.Result{v}
	if v.IsArray() {
		items = v.Array()
	}
	for _, it := range items {
		switch {
		case it.IsObject():
			if n := it.Get("name").String(); n != "" {
				out = append(out, n)
			}
		case it.Type == gjson.String:
			out = append(out, it.String())
		}
	}
	return out
}

// metaAuthors reads author meta tags. citation_author carries one author per
// tag, often as "Last, First".
func metaAuthors(doc *markupDoc) []string {
	var out []string
	for _, v := range doc.meta("citation_author") {
		out = append(out, flipName(v))
	}
	for _, v := range doc.meta("author", "dc.creator", "article:author") {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// flipName turns "Last, First" into "First Last".
func flipName(s string) string {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return s
	}
	first, last := strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	if first == "" || last == "" {
		return s
	}
	return first + " " + last
}

// inlineJSONAuthors reads author fields from JSON embedded anywhere in the
// page, such as client-side state blobs.
func inlineJSONAuthors(doc *markupDoc) []string {
	if doc == nil {
		return nil
	}
	var out []string
	for _, re := range reJSONAuthorList {
		m := re.FindStringSubmatch(doc.raw)
		if m == nil {
			continue
		}
		arr := "[" + m[1] + "]"
		if gjson.Valid(arr) {
			out = append(out, personNames(gjson.Parse(arr))...)
			continue
		}
		for _, s := range strings.Split(m[1], ",") {
			out = append(out, strings.Trim(strings.TrimSpace(s), `"'`))
		}
	}
	if m := reJSONAuthorString.FindStringSubmatch(doc.raw); m != nil {
		out = append(out, strings.Split(m[1], ",")...)
	}
	return out
}

// textAuthors tries each line pattern over the leading lines and stops at
// the first pattern that yields an acceptable name. The title line is
// skipped.
func textAuthors(lines []string, title string) []string {
	w := window(lines, authorWindow)
	for _, re := range reAuthorLines {
		for _, line := range w {
			if title != "" && strings.TrimSpace(line) == title {
				continue
			}
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			var names []string
			for _, name := range reSplitNames.Split(strings.TrimSpace(m[1]), -1) {
				name = reEtAl.ReplaceAllString(strings.TrimSpace(name), "")
				name = reLeadingAnd.ReplaceAllString(name, "")
				if utf8.RuneCountInString(name) > 3 && acceptAuthor(name) {
					names = append(names, name)
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}
	return nil
}

// elementAuthors reads elements whose class mentions "author".
func elementAuthors(doc *markupDoc) []string {
	if doc == nil {
		return nil
	}
	var out []string
	for _, t := range doc.authorEls {
		out = append(out, strings.Split(t, ",")...)
	}
	return out
}

// filterAuthors cleans each candidate, drops rejects and duplicates, and
// caps the list at MaxAuthors.
func filterAuthors(cands []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range cands {
		c = cleanField(c)
		if !acceptAuthor(c) || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == MaxAuthors {
			break
		}
	}
	return out
}

// acceptAuthor requires a length in (2, 100) and rejects blocklisted,
// numeric, all-uppercase, and all-lowercase names.
func acceptAuthor(s string) bool {
	n := utf8.RuneCountInString(s)
	if n <= 2 || n >= 100 {
		return false
	}
	lower := strings.ToLower(s)
	for _, w := range authorBlocklist {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return !reAllDigits.MatchString(s) && !reAllUpper.MatchString(s) && !reAllLower.MatchString(s)
}
