// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// WriteCSL writes items as a CSL-YAML list to w.
func WriteCSL(items []CSLItem, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSL converts metadata to a CSLItem. Absent fields are omitted rather
// than rendered as sentinels.
func ToCSL(m types.Metadata) CSLItem {
	item := CSLItem{
		ID:             BibKey(m),
		Type:           "article-journal",
		Title:          m.Title,
		ContainerTitle: m.Venue,
		Abstract:       m.Abstract,
		DOI:            m.DOI,
		URL:            m.URL,
	}
	for _, a := range m.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if y, err := strconv.Atoi(m.Year); err == nil {
		item.Issued = &CSLDate{DateParts: [][]int{{y}}}
	}
	return item
}

// SearchResultCSL converts a search result to a CSLItem, keeping the full
// publication date when known.
func SearchResultCSL(r types.SearchResult) CSLItem {
	item := ToCSL(types.Metadata{
		Title:    r.Title,
		Authors:  r.Authors,
		Year:     r.PublicationYear(),
		Venue:    r.Venue,
		DOI:      r.DOI,
		Abstract: r.Abstract,
		URL:      r.URL,
	})
	item.ID = r.Identifier
	if !r.Date.IsZero() {
		item.Issued = &CSLDate{
			DateParts: [][]int{{r.Date.Year(), int(r.Date.Month()), r.Date.Day()}},
		}
	}
	if item.DOI == "" && strings.HasPrefix(r.Identifier, "10.") {
		item.DOI = r.Identifier
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
