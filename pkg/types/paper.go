// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Sentinel strings rendered for metadata fields that no strategy could
// determine. They only appear at the serialization boundary; inside the
// pipeline an absent field is the zero value.
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthor  = "Unknown Author"
	UnknownYear    = "Unknown Year"
	UnknownJournal = "Unknown Journal"
)

// SourceKind identifies how a document entered the pipeline.
type SourceKind string

const (
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
	SourceDOI    SourceKind = "doi"
)

// ContentKind selects the extraction method for a raw blob.
type ContentKind string

const (
	ContentPDF  ContentKind = "pdf"
	ContentHTML ContentKind = "html"
	ContentText ContentKind = "text"
)

// ExtractionStatus records whether text could be recovered from a source.
type ExtractionStatus string

const (
	ExtractionOK     ExtractionStatus = "ok"
	ExtractionFailed ExtractionStatus = "failed"
)

// Document is a source blob after extraction. Text is immutable once set.
type Document struct {
	// ID is the storage identifier the raw blob was persisted under.
	ID string `json:"id" yaml:"id"`

	// Source is the filename, URL, or DOI the document came from.
	Source string `json:"source" yaml:"source"`

	// SourceKind tells how the document was obtained.
	SourceKind SourceKind `json:"source_kind" yaml:"source_kind"`

	// ContentKind is the detected format of the raw blob.
	ContentKind ContentKind `json:"content_kind" yaml:"content_kind"`

	// StoredPath is where the raw blob was persisted, relative to the data root.
	StoredPath string `json:"stored_path,omitempty" yaml:"stored_path,omitempty"`

	// Status is ok when Text carries extracted content.
	Status ExtractionStatus `json:"status" yaml:"status"`

	// FailureReason is set when Status is failed (corrupted, protected, image-only, unknown).
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// Method names the extraction method that produced Text.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Text is the extracted plain text.
	Text string `json:"-" yaml:"-"`

	// Verdict is the validity gate result that accepted Text.
	Verdict ValidityVerdict `json:"verdict" yaml:"verdict"`
}

// Metadata holds bibliographic fields recovered from a document. An empty
// field means no strategy produced an accepted candidate.
type Metadata struct {
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year     string   `json:"year,omitempty" yaml:"year,omitempty"`
	Venue    string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// HasTitle reports whether a title was determined.
func (m Metadata) HasTitle() bool { return m.Title != "" }

// HasAuthors reports whether at least one author was determined.
func (m Metadata) HasAuthors() bool { return len(m.Authors) > 0 }

// TitleOrSentinel returns the title or UnknownTitle.
func (m Metadata) TitleOrSentinel() string {
	if m.Title == "" {
		return UnknownTitle
	}
	return m.Title
}

// AuthorsOrSentinel returns the authors or a single UnknownAuthor entry.
func (m Metadata) AuthorsOrSentinel() []string {
	if len(m.Authors) == 0 {
		return []string{UnknownAuthor}
	}
	out := make([]string, len(m.Authors))
	copy(out, m.Authors)
	return out
}

// YearOrSentinel returns the year or UnknownYear.
func (m Metadata) YearOrSentinel() string {
	if m.Year == "" {
		return UnknownYear
	}
	return m.Year
}

// VenueOrSentinel returns the venue or UnknownJournal.
func (m Metadata) VenueOrSentinel() string {
	if m.Venue == "" {
		return UnknownJournal
	}
	return m.Venue
}

// SourceInfo is the wire form of Metadata returned to HTTP callers. Absent
// fields carry the sentinel strings so clients never branch on shape.
type SourceInfo struct {
	Filename   string   `json:"filename,omitempty"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       string   `json:"year"`
	Journal    string   `json:"journal"`
	DOI        string   `json:"doi"`
	URL        string   `json:"url,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	AccessDate string   `json:"access_date"`
	FileSize   int64    `json:"file_size,omitempty"`
}

// NewSourceInfo renders m with sentinels for absent fields.
func NewSourceInfo(m Metadata, accessed time.Time) SourceInfo {
	return SourceInfo{
		Title:      m.TitleOrSentinel(),
		Authors:    m.AuthorsOrSentinel(),
		Year:       m.YearOrSentinel(),
		Journal:    m.VenueOrSentinel(),
		DOI:        m.DOI,
		URL:        m.URL,
		Abstract:   m.Abstract,
		AccessDate: accessed.Format("2006-01-02"),
	}
}
