// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/synthesize"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

const (
	defaultSynthesisAudioChars = 3000
	defaultPapers              = 5

	// SynthesisAudioNote is appended to narrative text cut for audio.
	SynthesisAudioNote = "\n\n[Audio truncated due to length]"
)

// SynthesisRequest names the papers to synthesize. IDs refer to earlier
// search results; Query adds fresh results from both search backends.
type SynthesisRequest struct {
	IDs   []string
	Query string
	Mode  types.SynthesisMode
}

// SynthesisResponse is a SynthesisResult with its audio rendering.
type SynthesisResponse struct {
	types.SynthesisResult
	Audio      string   `json:"audio"`
	MissingIDs []string `json:"missing_ids,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ParseIDs splits a comma-separated paper id list.
func ParseIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Synthesize resolves the requested papers, synthesizes them, and narrates
// the result. A failed synthesis is never narrated.
func (p *Pipeline) Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResponse, error) {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = types.ModeComprehensive
	}

	var papers []types.PaperRecord
	var missing []string
	if p.Papers != nil {
		perSource := p.Synthesis.DefaultPapers
		if perSource <= 0 {
			perSource = defaultPapers
		}
		papers, missing = p.Papers.Papers(ctx, req.IDs, req.Query, perSource)
	} else if len(req.IDs) > 0 {
		missing = req.IDs
	}
	if len(missing) > 0 {
		p.Logger.Info("paper ids not found in search cache", zap.Strings("ids", missing))
	}

	synth := p.Synthesizer
	if synth == nil {
		synth = synthesize.New(p.Synthesis, p.Logger)
	}
	sctx, cancel := withTimeout(ctx, p.Timeouts.Synthesize)
	res := synth.Synthesize(sctx, papers, req.Mode)
	cancel()

	resp := SynthesisResponse{SynthesisResult: res, MissingIDs: missing}
	if res.Failed() {
		kind := KindValidity
		if errors.Is(res.Err, synthesize.ErrUnknownMode) {
			kind = KindInvalidInput
		}
		se := &StageError{Stage: StageSynthesize, Kind: kind, Err: res.Err, Message: res.Synthesis}
		p.observe(StageSynthesize, start, se)
		resp.Error = res.Synthesis
		return resp, se
	}
	p.observe(StageSynthesize, start, nil)

	limit := p.Synthesis.AudioMaxChars
	if limit <= 0 {
		limit = defaultSynthesisAudioChars
	}
	if art, ok := p.renderAudio(ctx, AudioText(res.Synthesis, limit), "synthesis-"+res.GeneratedAt.UTC().Format("20060102T150405")); ok {
		resp.Audio = art.Path
	}
	return resp, nil
}

// AudioText cuts narrative text to limit runes and appends
// SynthesisAudioNote when it was cut.
func AudioText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + SynthesisAudioNote
}
