// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns a document to the closest user-supplied topic.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Unclassified is returned when no topic is close enough.
const Unclassified = "Unclassified"

// DefaultCutoff is the minimum similarity a topic needs to match.
const DefaultCutoff = 0.6

// ParseTopics splits a comma-separated topic list, trimming blanks.
func ParseTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Classify compares the first line of text with each topic and returns the
// most similar topic scoring at least DefaultCutoff, or Unclassified.
func Classify(text string, topics []string) string {
	return ClassifyWithCutoff(text, topics, DefaultCutoff)
}

// ClassifyWithCutoff is Classify with an explicit similarity threshold.
// Ties go to the earlier topic.
func ClassifyWithCutoff(text string, topics []string, cutoff float64) string {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	line = strings.TrimSpace(line)

	best, bestScore := Unclassified, -1.0
	for _, t := range topics {
		if s := Similarity(line, t); s >= cutoff && s > bestScore {
			best, bestScore = t, s
		}
	}
	return best
}

// Similarity returns 1 - distance/maxLen over the case-folded strings, in
// [0, 1].
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
