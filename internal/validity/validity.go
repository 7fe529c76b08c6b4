// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validity classifies text as well-formed prose, garbled/binary, or
// too short. Each call site names a threshold Profile so divergent tuning
// between stages stays visible in one place.
package validity

import (
	"strings"
	"unicode"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Profile holds the thresholds for one call site.
type Profile struct {
	// Name identifies the profile in verdicts and logs.
	Name string

	// MaxControlRatio is the largest tolerated share of control characters
	// (excluding \n, \r, \t).
	MaxControlRatio float64

	// MinPrintableRatio is the smallest tolerated share of printable or
	// whitespace characters.
	MinPrintableRatio float64

	// MinWordLen is the shortest alphabetic token that counts as a word.
	MinWordLen int

	// MinWordRatio is the smallest tolerated share of word tokens. Zero
	// disables the word check.
	MinWordRatio float64

	// MinLength is the shortest accepted trimmed text, in characters.
	MinLength int
}

// binarySignatures are container headers that mark raw bytes leaking into text.
var binarySignatures = []string{"%PDF-1.", "%PDF-2."}

// Named profiles for each stage.
var (
	// Extraction gates text recovered from PDF or HTML sources.
	Extraction = Profile{
		Name:              "extraction",
		MaxControlRatio:   0.10,
		MinPrintableRatio: 0.80,
		MinLength:         50,
	}

	// Summarization gates text before it is sent to the model.
	Summarization = Profile{
		Name:              "summarization",
		MaxControlRatio:   0.10,
		MinPrintableRatio: 0.80,
		MinWordLen:        3,
		MinWordRatio:      0.20,
		MinLength:         100,
	}

	// Audio gates text before speech synthesis. It is deliberately looser.
	Audio = Profile{
		Name:              "audio",
		MaxControlRatio:   0.10,
		MinPrintableRatio: 0.70,
		MinWordLen:        2,
		MinWordRatio:      0.10,
		MinLength:         10,
	}
)

// Assess applies p to text. Rules run in order and the first match decides:
// binary signature, control characters, printable ratio, word shape, length.
func Assess(text string, p Profile) types.ValidityVerdict {
	v := types.ValidityVerdict{
		Verdict: types.VerdictValid,
		Profile: p.Name,
	}

	runes := []rune(text)
	total := len(runes)
	v.TrimmedLength = len([]rune(strings.TrimSpace(text)))

	if total == 0 {
		v.Verdict = types.VerdictTooShort
		v.Reason = "empty text"
		return v
	}

	printable := 0
	for _, r := range runes {
		if isControl(r) {
			v.ControlChars++
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	v.PrintableRatio = float64(printable) / float64(total)
	v.WordRatio = wordRatio(text, p.MinWordLen)

	for _, sig := range binarySignatures {
		if strings.HasPrefix(text, sig) {
			v.Verdict = types.VerdictGarbled
			v.Reason = "binary container signature"
			return v
		}
	}

	if float64(v.ControlChars) > float64(total)*p.MaxControlRatio {
		v.Verdict = types.VerdictGarbled
		v.Reason = "too many control characters"
		return v
	}

	if v.PrintableRatio < p.MinPrintableRatio {
		v.Verdict = types.VerdictGarbled
		v.Reason = "printable ratio below threshold"
		return v
	}

	if p.MinWordRatio > 0 && len(strings.Fields(text)) > 0 && v.WordRatio < p.MinWordRatio {
		v.Verdict = types.VerdictGarbled
		v.Reason = "word ratio below threshold"
		return v
	}

	if v.TrimmedLength < p.MinLength {
		v.Verdict = types.VerdictTooShort
		v.Reason = "text too short"
		return v
	}

	return v
}

// IsGarbled reports whether text fails p for any reason other than length.
func IsGarbled(text string, p Profile) bool {
	return Assess(text, p).Verdict == types.VerdictGarbled
}

// isControl matches characters below 0x20 other than newline, carriage
// return, and tab.
func isControl(r rune) bool {
	return r < 32 && r != '\n' && r != '\r' && r != '\t'
}

// wordRatio returns the share of whitespace-separated tokens that are purely
// alphabetic and at least minLen runes long.
func wordRatio(text string, minLen int) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	words := 0
	for _, t := range tokens {
		if isWord(t, minLen) {
			words++
		}
	}
	return float64(words) / float64(len(tokens))
}

func isWord(t string, minLen int) bool {
	n := 0
	for _, r := range t {
		if !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n >= minLen && n > 0
}
