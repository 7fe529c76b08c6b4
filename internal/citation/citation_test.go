// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var attention = types.Metadata{
	Title:   "Attention Is All You Need",
	Authors: []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"},
	Year:    "2017",
	Venue:   "NeurIPS",
	DOI:     "10.5555/3295222.3295349",
}

func TestRenderAll(t *testing.T) {
	c := Render(attention, All)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"apa", c.APA, "Ashish Vaswani et al. (2017). Attention Is All You Need. NeurIPS. https://doi.org/10.5555/3295222.3295349"},
		{"mla", c.MLA, `Ashish Vaswani et al. "Attention Is All You Need." NeurIPS, 2017. doi:10.5555/3295222.3295349`},
		{"chicago", c.Chicago, `Ashish Vaswani et al. "Attention Is All You Need." NeurIPS (2017). https://doi.org/10.5555/3295222.3295349`},
		{"bibtex", c.BibTeX, "@article{vaswani2017,\n  title={Attention Is All You Need},\n  author={Ashish Vaswani and Noam Shazeer and Niki Parmar},\n  journal={NeurIPS},\n  year={2017},\n  doi={10.5555/3295222.3295349}\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got\n%s\nwant\n%s", tt.got, tt.want)
			}
		})
	}
}

func TestRenderSingleStyle(t *testing.T) {
	c := Render(attention, MLA)
	if c.MLA == "" {
		t.Error("MLA should be rendered")
	}
	if c.APA != "" || c.Chicago != "" || c.BibTeX != "" {
		t.Errorf("only MLA should be rendered, got %+v", c)
	}
}

func TestRenderSentinels(t *testing.T) {
	c := Render(types.Metadata{}, All)
	want := "Unknown Author. (Unknown Year). Unknown Title. Unknown Journal."
	if c.APA != want {
		t.Errorf("APA = %q, want %q", c.APA, want)
	}
	if !strings.HasPrefix(c.BibTeX, "@article{unknown,") {
		t.Errorf("BibTeX key should be unknown, got %q", c.BibTeX)
	}
}

func TestRenderTwoAuthors(t *testing.T) {
	m := types.Metadata{Authors: []string{"Ada Lovelace", "Alan Turing"}}
	c := Render(m, APA)
	if !strings.HasPrefix(c.APA, "Ada Lovelace, Alan Turing. (") {
		t.Errorf("APA = %q", c.APA)
	}
}

func TestBibKey(t *testing.T) {
	tests := []struct {
		m    types.Metadata
		want string
	}{
		{types.Metadata{Authors: []string{"Grace Hopper"}, Year: "1952"}, "hopper1952"},
		{types.Metadata{Authors: []string{"Grace Hopper"}}, "hopper"},
		{types.Metadata{Authors: []string{"José O'Neil-Núñez"}, Year: "2020"}, "oneilnúñez2020"},
		{types.Metadata{}, "unknown"},
	}
	for _, tt := range tests {
		if got := BibKey(tt.m); got != tt.want {
			t.Errorf("BibKey(%v) = %q, want %q", tt.m.Authors, got, tt.want)
		}
	}
}

func TestToCSL(t *testing.T) {
	item := ToCSL(attention)

	if item.ID != "vaswani2017" {
		t.Errorf("ID = %q, want vaswani2017", item.ID)
	}
	if item.ContainerTitle != "NeurIPS" {
		t.Errorf("ContainerTitle = %q", item.ContainerTitle)
	}
	if len(item.Author) != 3 || item.Author[0].Family != "Vaswani" || item.Author[0].Given != "Ashish" {
		t.Errorf("Author = %+v", item.Author)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 {
		t.Errorf("Issued = %+v", item.Issued)
	}
}

func TestSearchResultCSL(t *testing.T) {
	r := types.SearchResult{
		Identifier: "10.1000/xyz",
		Title:      "A Paper",
		Authors:    []string{"Plato"},
		Date:       time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	item := SearchResultCSL(r)

	if item.ID != "10.1000/xyz" || item.DOI != "10.1000/xyz" {
		t.Errorf("ID/DOI = %q/%q", item.ID, item.DOI)
	}
	if item.Author[0].Literal != "Plato" {
		t.Errorf("single-token author should be literal, got %+v", item.Author[0])
	}
	if got := item.Issued.DateParts[0]; len(got) != 3 || got[1] != 3 || got[2] != 14 {
		t.Errorf("DateParts = %v", got)
	}
}

func TestWriteCSL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSL([]CSLItem{ToCSL(attention)}, &buf); err != nil {
		t.Fatalf("WriteCSL: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: vaswani2017", "type: article-journal", "DOI: 10.5555/3295222.3295349", "container-title: NeurIPS"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
