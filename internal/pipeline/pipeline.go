// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a source document through the analysis stages:
// acquisition, storage, extraction, metadata, classification,
// summarization, audio, and citations. Every stage runs under its own
// deadline and reports failure as a *StageError; the Response shape is the
// same whether the request succeeded or not.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-analyzer/internal/acquire"
	"github.com/pdiddy/paper-analyzer/internal/audio"
	"github.com/pdiddy/paper-analyzer/internal/citation"
	"github.com/pdiddy/paper-analyzer/internal/classify"
	"github.com/pdiddy/paper-analyzer/internal/convert"
	"github.com/pdiddy/paper-analyzer/internal/metadata"
	"github.com/pdiddy/paper-analyzer/internal/storage"
	"github.com/pdiddy/paper-analyzer/internal/summarize"
	"github.com/pdiddy/paper-analyzer/internal/synthesize"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Summary texts returned when the source could not be processed.
const (
	UploadFailedSummary = "PDF processing failed"
	URLFailedSummary    = "Error occurred while processing the paper"
	DOIFailedSummary    = "Error occurred while processing the DOI"
	InvalidFileSummary  = "Please upload a valid PDF file"
)

// Fetcher acquires documents over the network.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (acquire.Source, error)
	FetchDOI(ctx context.Context, doi string) (acquire.Source, error)
}

// PaperSource resolves synthesis inputs from paper ids and a query.
type PaperSource interface {
	Papers(ctx context.Context, ids []string, query string, perSource int) ([]types.PaperRecord, []string)
}

// Request is one document to analyze. Uploads carry Name and Raw; URL and
// DOI requests carry Identifier.
type Request struct {
	Kind       types.SourceKind
	Name       string
	Raw        []byte
	Identifier string
	Topics     []string
}

// Pipeline holds the stage implementations. Nil Audio disables audio; nil
// Fetcher rejects URL and DOI requests.
type Pipeline struct {
	Fetcher     Fetcher
	Store       *storage.Store
	Summarizer  *summarize.Summarizer
	Audio       *audio.Renderer
	Synthesizer *synthesize.Synthesizer
	Papers      PaperSource
	Timeouts    types.StageTimeouts
	Synthesis   types.SynthesisConfig
	Logger      *zap.Logger

	// NewExtractor returns the extractor for a content kind. Nil uses
	// convert.New.
	NewExtractor func(kind types.ContentKind) *convert.Extractor

	// OnStage, when set, is called after every stage.
	OnStage func(stage Stage, d time.Duration, err error)

	Now func() time.Time
}

// New returns a Pipeline with default extractors and clock.
func New(st *storage.Store, f Fetcher, s *summarize.Summarizer, a *audio.Renderer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Fetcher:    f,
		Store:      st,
		Summarizer: s,
		Audio:      a,
		Timeouts:   types.DefaultStageTimeouts(),
		Synthesis:  types.SynthesisConfig{AudioMaxChars: defaultSynthesisAudioChars, DefaultPapers: defaultPapers},
		Logger:     logger,
		Now:        time.Now,
	}
}

// withTimeout derives a stage context. A zero duration only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (p *Pipeline) observe(stage Stage, start time.Time, err error) {
	if p.OnStage != nil {
		p.OnStage(stage, time.Since(start), err)
	}
}

// source is a blob ready for storage and extraction.
type source struct {
	name        string
	origin      string
	kind        types.SourceKind
	contentType string
	raw         []byte
	seed        types.Metadata
	url         string
}

// Analyze runs req through every stage. The returned error is a
// *StageError when the request failed; resp is populated either way.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := p.analyze(ctx, req)
	fields := []zap.Field{
		zap.String("source_kind", string(req.Kind)),
		zap.String("source", requestLabel(req)),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		p.Logger.Warn("analysis failed", append(fields, zap.Error(err))...)
	} else {
		p.Logger.Info("analysis complete", append(fields,
			zap.String("document_id", resp.DocumentID),
			zap.String("classification", resp.Classification),
			zap.Bool("audio", resp.Audio != ""))...)
	}
	return resp, err
}

func (p *Pipeline) analyze(ctx context.Context, req Request) (Response, error) {
	src, err := p.acquire(ctx, req)
	if err != nil {
		return failure(req, err), err
	}

	content := convert.Detect(src.raw, src.contentType, src.name)
	rec, err := p.store(src, content)
	if err != nil {
		return failure(req, err), err
	}

	doc := types.Document{
		ID:          rec.ID,
		Source:      src.origin,
		SourceKind:  src.kind,
		ContentKind: content,
		StoredPath:  rec.File,
	}
	result, err := p.extract(ctx, content, src.raw)
	if err != nil {
		var xe *convert.ExtractionError
		if errors.As(err, &xe) {
			doc.FailureReason = string(xe.Reason)
		}
		rec.Status, rec.FailureReason = types.ExtractionFailed, doc.FailureReason
		p.writeRecord(rec)
		resp := failure(req, err)
		resp.DocumentID = doc.ID
		return resp, err
	}
	doc.Status, doc.Method, doc.Text, doc.Verdict = types.ExtractionOK, result.Method, result.Text, result.Verdict

	var (
		md      types.Metadata
		sum     types.Summary
		sumErr  error
		topic   string
		markup  string
		g, gctx = errgroup.WithContext(ctx)
	)
	if content == types.ContentHTML {
		markup = string(src.raw)
	}
	g.Go(func() error {
		md = p.metadata(gctx, metadata.Input{Text: doc.Text, Markup: markup, URL: src.url}, src.seed)
		topic = classify.Classify(doc.Text, req.Topics)
		return nil
	})
	g.Go(func() error {
		sum, sumErr = p.summarize(gctx, doc)
		return nil
	})
	_ = g.Wait()

	rec.Status, rec.Method, rec.Metadata = doc.Status, doc.Method, &md
	p.writeRecord(rec)

	info := p.sourceInfo(req, src, md)
	cites := citation.Render(md, citation.All)
	resp := Response{
		Classification: topic,
		SourceInfo:     &info,
		Citations:      &cites,
		DocumentID:     doc.ID,
		Metadata:       md,
	}
	if sumErr != nil {
		resp.Summary = Sentinel(sumErr)
		resp.Error = resp.Summary
		return resp, sumErr
	}
	resp.Summary, resp.Provenance = sum.Text, sum.Provenance

	if art, ok := p.renderAudio(ctx, sum.Text, doc.ID); ok {
		resp.Audio = art.Path
		resp.Artifact = &art
	}
	return resp, nil
}

// acquire turns req into raw bytes, fetching over the network for URL and
// DOI requests.
func (p *Pipeline) acquire(ctx context.Context, req Request) (source, error) {
	switch req.Kind {
	case types.SourceUpload:
		if !strings.EqualFold(filepath.Ext(req.Name), ".pdf") {
			return source{}, invalid("Only PDF files are supported")
		}
		return source{
			name:        filepath.Base(req.Name),
			origin:      filepath.Base(req.Name),
			kind:        types.SourceUpload,
			contentType: "application/pdf",
			raw:         req.Raw,
		}, nil
	case types.SourceURL, types.SourceDOI:
	default:
		return source{}, invalid("unsupported source kind %q", req.Kind)
	}

	id := strings.TrimSpace(req.Identifier)
	if id == "" {
		if req.Kind == types.SourceDOI {
			return source{}, invalid("DOI is required")
		}
		return source{}, invalid("URL is required")
	}
	if p.Fetcher == nil {
		return source{}, &StageError{Stage: StageFetch, Kind: KindInternal, Err: errors.New("no fetcher configured")}
	}

	start := time.Now()
	fctx, cancel := withTimeout(ctx, p.Timeouts.Fetch)
	defer cancel()
	var (
		src acquire.Source
		err error
	)
	if req.Kind == types.SourceDOI {
		src, err = p.Fetcher.FetchDOI(fctx, id)
	} else {
		src, err = p.Fetcher.Fetch(fctx, id)
	}
	if err != nil {
		kind := KindExternal
		if errors.Is(err, acquire.ErrUnrecognized) {
			kind = KindInvalidInput
		}
		se := &StageError{Stage: StageFetch, Kind: kind, Err: err}
		p.observe(StageFetch, start, se)
		return source{}, se
	}
	p.observe(StageFetch, start, nil)

	url := src.URL
	if src.Seed.URL != "" {
		url = src.Seed.URL
	}
	kind := src.SourceKind()
	if req.Kind == types.SourceDOI {
		kind = types.SourceDOI
	}
	return source{
		name:        src.Name,
		origin:      src.Identifier,
		kind:        kind,
		contentType: src.ContentType,
		raw:         src.Raw,
		seed:        src.Seed,
		url:         url,
	}, nil
}

// store persists the raw blob under a fresh identifier.
func (p *Pipeline) store(src source, content types.ContentKind) (storage.Record, error) {
	if p.Store == nil {
		return storage.Record{ID: storage.NewID()}, nil
	}
	start := time.Now()
	name := src.name
	if src.kind != types.SourceUpload {
		name += extensionFor(content)
	}
	rec, err := p.Store.SaveSource(name, src.raw, storage.Record{
		Source:      src.origin,
		SourceKind:  src.kind,
		ContentKind: content,
	})
	if err != nil {
		se := &StageError{Stage: StageStore, Kind: KindInternal, Err: err}
		p.observe(StageStore, start, se)
		return rec, se
	}
	p.observe(StageStore, start, nil)
	return rec, nil
}

func extensionFor(kind types.ContentKind) string {
	switch kind {
	case types.ContentPDF:
		return ".pdf"
	case types.ContentHTML:
		return ".html"
	}
	return ".txt"
}

func (p *Pipeline) writeRecord(rec storage.Record) {
	if p.Store == nil {
		return
	}
	if err := p.Store.WriteRecord(rec); err != nil {
		p.Logger.Warn("updating source record failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func (p *Pipeline) extract(ctx context.Context, kind types.ContentKind, raw []byte) (convert.Result, error) {
	start := time.Now()
	ectx, cancel := withTimeout(ctx, p.Timeouts.Extract)
	defer cancel()

	newExtractor := p.NewExtractor
	if newExtractor == nil {
		newExtractor = func(k types.ContentKind) *convert.Extractor { return convert.New(k, p.Logger) }
	}
	res, err := newExtractor(kind).Extract(ectx, raw)
	if err != nil {
		se := &StageError{Stage: StageExtract, Kind: KindExtraction, Err: err}
		var xe *convert.ExtractionError
		if !errors.As(err, &xe) {
			// Always surface the extraction sentinel, whatever went wrong.
			se.Err = &convert.ExtractionError{Kind: kind, Reason: convert.ReasonUnknown}
		}
		p.observe(StageExtract, start, se)
		return res, se
	}
	p.observe(StageExtract, start, nil)
	return res, nil
}

// metadata extracts fields from the document and fills the gaps in seed
// with them. Registry metadata in seed always wins.
func (p *Pipeline) metadata(ctx context.Context, in metadata.Input, seed types.Metadata) (md types.Metadata) {
	start := time.Now()
	mctx, cancel := withTimeout(ctx, p.Timeouts.Metadata)
	defer cancel()

	type out struct {
		md  types.Metadata
		err error
	}
	ch := make(chan out, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- out{err: fmt.Errorf("metadata extraction panicked: %v", r)}
			}
		}()
		ch <- out{md: metadata.Extract(in)}
	}()

	var err error
	select {
	case o := <-ch:
		md, err = o.md, o.err
	case <-mctx.Done():
		err = mctx.Err()
	}
	if err != nil {
		p.Logger.Warn("metadata extraction failed, using registry metadata only",
			zap.String("stage", "metadata"), zap.Error(err))
		p.observe(StageMetadata, start, &StageError{Stage: StageMetadata, Kind: KindInternal, Err: err})
		md = types.Metadata{URL: in.URL}
	} else {
		p.observe(StageMetadata, start, nil)
	}
	return metadata.Merge(seed, md)
}

func (p *Pipeline) summarize(ctx context.Context, doc types.Document) (types.Summary, error) {
	if p.Summarizer == nil {
		return types.Summary{}, &StageError{Stage: StageSummarize, Kind: KindInternal, Err: errors.New("no summarizer configured")}
	}
	start := time.Now()
	sctx, cancel := withTimeout(ctx, p.Timeouts.Summarize)
	defer cancel()

	sum, err := p.Summarizer.Summarize(sctx, doc)
	if err != nil {
		kind := KindExternal
		var rej *summarize.Rejection
		if errors.As(err, &rej) {
			kind = KindValidity
		}
		se := &StageError{Stage: StageSummarize, Kind: kind, Err: err}
		p.observe(StageSummarize, start, se)
		return sum, se
	}
	p.observe(StageSummarize, start, nil)
	return sum, nil
}

// renderAudio narrates text. Audio is optional: every failure is logged
// and reported as no artifact.
func (p *Pipeline) renderAudio(ctx context.Context, text, ref string) (types.AudioArtifact, bool) {
	if p.Audio == nil {
		return types.AudioArtifact{}, false
	}
	start := time.Now()
	actx, cancel := withTimeout(ctx, p.Timeouts.Audio)
	defer cancel()

	art, err := p.Audio.Render(actx, text, ref)
	if err != nil {
		if !errors.Is(err, audio.ErrSkipped) {
			p.Logger.Warn("audio unavailable", zap.String("stage", "audio"), zap.String("source", ref), zap.Error(err))
		}
		p.observe(StageAudio, start, &StageError{Stage: StageAudio, Kind: KindExternal, Err: err})
		return art, false
	}
	p.observe(StageAudio, start, nil)
	return art, true
}

func (p *Pipeline) sourceInfo(req Request, src source, md types.Metadata) types.SourceInfo {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	info := types.NewSourceInfo(md, now())
	switch req.Kind {
	case types.SourceUpload:
		info.Filename = src.name
		info.FileSize = int64(len(src.raw))
	case types.SourceDOI:
		info.DOI = src.origin
	}
	return info
}

func requestLabel(req Request) string {
	if req.Kind == types.SourceUpload {
		return req.Name
	}
	return req.Identifier
}
