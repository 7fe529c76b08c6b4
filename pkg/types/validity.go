// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict classifies a text blob.
type Verdict string

const (
	VerdictValid    Verdict = "valid"
	VerdictGarbled  Verdict = "garbled"
	VerdictTooShort Verdict = "too_short"
)

// ValidityVerdict is the outcome of the validity gate together with the
// measurements that produced it. It travels with the text it describes.
type ValidityVerdict struct {
	Verdict Verdict `json:"verdict" yaml:"verdict"`

	// Profile names the threshold profile used (extraction, summarization, audio).
	Profile string `json:"profile" yaml:"profile"`

	// Reason is a short human-readable description of the rule that fired.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	PrintableRatio float64 `json:"printable_ratio" yaml:"printable_ratio"`
	WordRatio      float64 `json:"word_ratio" yaml:"word_ratio"`
	ControlChars   int     `json:"control_chars" yaml:"control_chars"`
	TrimmedLength  int     `json:"trimmed_length" yaml:"trimmed_length"`
}

// OK reports whether the verdict is Valid.
func (v ValidityVerdict) OK() bool { return v.Verdict == VerdictValid }
