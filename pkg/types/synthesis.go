// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SynthesisMode selects the narrative structure of a synthesis.
type SynthesisMode string

const (
	ModeComprehensive SynthesisMode = "comprehensive"
	ModeComparative   SynthesisMode = "comparative"
	ModeThematic      SynthesisMode = "thematic"
)

// Known reports whether m is one of the supported modes.
func (m SynthesisMode) Known() bool {
	switch m {
	case ModeComprehensive, ModeComparative, ModeThematic:
		return true
	}
	return false
}

// PaperRecord is one input to the synthesizer. Any field may be empty.
type PaperRecord struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    string   `json:"year" yaml:"year"`
	Summary string   `json:"summary" yaml:"summary"`
	Source  string   `json:"source" yaml:"source"`
}

// Usable reports whether the record carries any field the synthesizer can use.
func (p PaperRecord) Usable() bool {
	return p.Title != "" || p.Summary != "" || len(p.Authors) > 0 || p.Year != ""
}

// PaperAnalysis is the per-paper view inside a SynthesisResult.
type PaperAnalysis struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        string   `json:"year"`
	KeyInsights []string `json:"key_insights"`
	Summary     string   `json:"summary"`
	Source      string   `json:"source"`
}

// SynthesisResult is the output of the cross-document synthesizer. Synthesis
// is never empty.
type SynthesisResult struct {
	Synthesis           string          `json:"synthesis"`
	PaperAnalyses       []PaperAnalysis `json:"paper_analyses"`
	CommonThemes        []string        `json:"common_themes"`
	ConflictingFindings []string        `json:"conflicting_findings"`
	Mode                SynthesisMode   `json:"synthesis_type"`
	TotalPapers         int             `json:"total_papers"`
	GeneratedAt         time.Time       `json:"generated_at"`

	// Err is set when the synthesis is an error result.
	Err error `json:"-"`
}

// Failed reports whether the result carries an error synthesis.
func (r SynthesisResult) Failed() bool { return r.Err != nil }
