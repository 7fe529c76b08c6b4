// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-analyzer pipeline:
// documents and their validity verdicts, bibliographic metadata, summaries,
// synthesis results, audio artifacts, search results, and configuration.
package types

import "time"

// SearchResult represents a candidate paper returned by an academic API query.
type SearchResult struct {
	// Identifier is the canonical ID from the source (arXiv ID, Semantic
	// Scholar paper ID, or DOI).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"summary" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"published,omitempty" yaml:"date,omitempty"`

	// Year is the publication year when the source only reports a year.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// URL is the landing page of the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is a direct link to the full text when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// DOI is the digital object identifier, if known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Categories lists subject categories (arXiv only).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Source identifies which backend found this result (e.g. "arxiv", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// PublicationYear returns Year, or the year of Date when Year is unset.
func (r SearchResult) PublicationYear() string {
	if r.Year != "" {
		return r.Year
	}
	if !r.Date.IsZero() {
		return r.Date.Format("2006")
	}
	return ""
}

// PaperRecord returns the synthesis input view of the result.
func (r SearchResult) PaperRecord() PaperRecord {
	return PaperRecord{
		ID:      r.Identifier,
		Title:   r.Title,
		Authors: r.Authors,
		Year:    r.PublicationYear(),
		Summary: r.Abstract,
		Source:  r.Source,
	}
}
