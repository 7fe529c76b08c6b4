// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

const prose = "Deep learning models have transformed natural language processing. " +
	"This paper studies how attention layers generalize across languages and tasks."

func TestAssess(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		profile Profile
		want    types.Verdict
		reason  string
	}{
		{"valid prose extraction", prose, Extraction, types.VerdictValid, ""},
		{"valid prose summarization", prose, Summarization, types.VerdictValid, ""},
		{"empty", "", Extraction, types.VerdictTooShort, "empty text"},
		{"pdf header", "%PDF-1.7 " + prose, Extraction, types.VerdictGarbled, "binary container signature"},
		{"pdf2 header", "%PDF-2.0 " + prose, Audio, types.VerdictGarbled, "binary container signature"},
		{"control chars", strings.Repeat("\x01\x02", 20) + "some words here", Extraction, types.VerdictGarbled, "too many control characters"},
		{"too short extraction", "Short but fine text.", Extraction, types.VerdictTooShort, "text too short"},
		{"too short summarization", prose[:80], Summarization, types.VerdictTooShort, "text too short"},
		{"symbol soup summarization", strings.Repeat("$1 %2 #3 ab ", 20), Summarization, types.VerdictGarbled, "word ratio below threshold"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Assess(tc.text, tc.profile)
			assert.Equal(t, tc.want, v.Verdict)
			assert.Equal(t, tc.reason, v.Reason)
			assert.Equal(t, tc.profile.Name, v.Profile)
		})
	}
}

func TestAssessLowPrintableAudio(t *testing.T) {
	// Private-use runes are not printable.
	for _, n := range []int{1, 5, 40} {
		text := strings.Repeat("\ue000", n*3) + strings.Repeat("a", n)
		v := Assess(text, Audio)
		assert.Less(t, v.PrintableRatio, 0.7)
		assert.Equal(t, types.VerdictGarbled, v.Verdict, "n=%d", n)
	}
}

func TestAssessControlBeatsPrintable(t *testing.T) {
	text := strings.Repeat("\x00", 30) + strings.Repeat("word ", 20)
	v := Assess(text, Extraction)
	assert.Equal(t, types.VerdictGarbled, v.Verdict)
	assert.Equal(t, 30, v.ControlChars)
	assert.Equal(t, "too many control characters", v.Reason)
}

func TestAssessNewlinesNotControl(t *testing.T) {
	text := strings.Repeat("line of readable text\n\r\t", 5)
	v := Assess(text, Extraction)
	assert.Zero(t, v.ControlChars)
	assert.True(t, v.OK())
}

func TestExtractionSkipsWordCheck(t *testing.T) {
	text := strings.Repeat("12 34 56 78 ", 10)
	assert.Equal(t, types.VerdictValid, Assess(text, Extraction).Verdict)
	assert.Equal(t, types.VerdictGarbled, Assess(text, Summarization).Verdict)
}

func TestWordRatio(t *testing.T) {
	assert.InDelta(t, 0.5, wordRatio("alpha b2 beta 42", 3), 1e-9)
	assert.InDelta(t, 1.0, wordRatio("ab cd", 2), 1e-9)
	assert.InDelta(t, 0.0, wordRatio("ab cd", 3), 1e-9)
	assert.Zero(t, wordRatio("   ", 2))
}

func TestIsGarbled(t *testing.T) {
	assert.False(t, IsGarbled("tiny", Extraction))
	assert.True(t, IsGarbled("%PDF-1.4", Extraction))
}
