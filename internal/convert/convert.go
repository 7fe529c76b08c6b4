// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns raw source blobs (PDF bytes, fetched HTML, plain
// text) into validated plain text. Each content kind has a primary and a
// fallback Converter; output from either must pass the extraction validity
// profile before it is accepted.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/validity"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Converter turns a raw blob into plain text. Different methods (whole
// document, page rows, DOM walk, tag stripping) implement this interface.
type Converter interface {
	// Name identifies the method in logs and results.
	Name() string

	// Convert returns the text recovered from raw.
	Convert(ctx context.Context, raw []byte) (string, error)
}

// Reason classifies why extraction failed.
type Reason string

const (
	ReasonCorrupted Reason = "corrupted"
	ReasonProtected Reason = "protected"
	ReasonImageOnly Reason = "image-only"
	ReasonUnknown   Reason = "unknown"
)

// Sentinel errors matched with errors.Is against an *ExtractionError.
var (
	ErrCorrupted  = errors.New("source is corrupted")
	ErrProtected  = errors.New("source is password-protected")
	ErrImageOnly  = errors.New("source contains no extractable text")
	ErrUnreadable = errors.New("source is unreadable")
)

// ExtractionError reports that neither method produced acceptable text.
type ExtractionError struct {
	Kind     types.ContentKind
	Reason   Reason
	Attempts []Attempt
}

// Attempt records one method's outcome.
type Attempt struct {
	Method  string
	Err     error
	Verdict types.ValidityVerdict
}

// Error renders the sentinel text returned to clients. It always begins with
// "Unable to extract text from".
func (e *ExtractionError) Error() string {
	subject := "document"
	if e.Kind == types.ContentPDF {
		subject = "PDF"
	}
	return fmt.Sprintf("Unable to extract text from %s. %s", subject, reasonDetail(e.Reason))
}

// Unwrap maps the reason to its sentinel error.
func (e *ExtractionError) Unwrap() error {
	switch e.Reason {
	case ReasonCorrupted:
		return ErrCorrupted
	case ReasonProtected:
		return ErrProtected
	case ReasonImageOnly:
		return ErrImageOnly
	default:
		return ErrUnreadable
	}
}

// SentinelPrefix begins every extraction failure message.
const SentinelPrefix = "Unable to extract"

func reasonDetail(r Reason) string {
	switch r {
	case ReasonCorrupted:
		return "The file appears to be corrupted."
	case ReasonProtected:
		return "The file is password-protected."
	case ReasonImageOnly:
		return "The file appears to contain only images."
	default:
		return "The file may be corrupted, password-protected, or contain only images."
	}
}

// Result is accepted extracted text with its provenance.
type Result struct {
	Text    string
	Method  string
	Verdict types.ValidityVerdict
}

// Extractor runs a primary Converter, then a fallback, gating each output.
type Extractor struct {
	Kind     types.ContentKind
	Primary  Converter
	Fallback Converter
	Profile  validity.Profile
	Logger   *zap.Logger
}

// New returns the default Extractor for kind.
func New(kind types.ContentKind, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{Kind: kind, Profile: validity.Extraction, Logger: logger}
	switch kind {
	case types.ContentPDF:
		e.Primary, e.Fallback = PDFText{}, PDFRows{}
	case types.ContentHTML:
		e.Primary, e.Fallback = HTMLText{}, TagStrip{}
	default:
		e.Primary = PlainText{}
	}
	return e
}

// Extract returns the first gated text produced by the primary or fallback
// method. When both fail it returns an *ExtractionError; it never panics.
func (e *Extractor) Extract(ctx context.Context, raw []byte) (Result, error) {
	var attempts []Attempt
	for _, c := range []Converter{e.Primary, e.Fallback} {
		if c == nil {
			continue
		}
		start := time.Now()
		text, err := run(ctx, c, raw)
		a := Attempt{Method: c.Name(), Err: err}
		if err == nil {
			a.Verdict = validity.Assess(text, e.Profile)
		}
		attempts = append(attempts, a)

		e.Logger.Debug("extraction attempt",
			zap.String("stage", "extract"),
			zap.String("method", c.Name()),
			zap.Int("chars", len(text)),
			zap.String("verdict", string(a.Verdict.Verdict)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))

		if err == nil && a.Verdict.OK() {
			return Result{Text: text, Method: c.Name(), Verdict: a.Verdict}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, &ExtractionError{Kind: e.Kind, Reason: classify(attempts), Attempts: attempts}
}

// run invokes c, converting a panic inside the parser into an error and
// abandoning the call when ctx is done.
func run(ctx context.Context, c Converter, raw []byte) (string, error) {
	type out struct {
		text string
		err  error
	}
	ch := make(chan out, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- out{err: fmt.Errorf("%s: %w: panic: %v", c.Name(), ErrCorrupted, r)}
			}
		}()
		text, err := c.Convert(ctx, raw)
		ch <- out{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", c.Name(), ctx.Err())
	case o := <-ch:
		return o.text, o.err
	}
}

// classify derives a failure reason from the attempts.
func classify(attempts []Attempt) Reason {
	var sawEmpty, sawCorrupt bool
	for _, a := range attempts {
		if a.Err != nil {
			if errors.Is(a.Err, ErrProtected) {
				return ReasonProtected
			}
			msg := strings.ToLower(a.Err.Error())
			switch {
			case strings.Contains(msg, "password") || strings.Contains(msg, "encrypt"):
				return ReasonProtected
			case errors.Is(a.Err, ErrCorrupted) || strings.Contains(msg, "malformed") || strings.Contains(msg, "not a pdf"):
				sawCorrupt = true
			}
			continue
		}
		switch a.Verdict.Verdict {
		case types.VerdictTooShort:
			sawEmpty = true
		case types.VerdictGarbled:
			sawCorrupt = true
		}
	}
	switch {
	case sawCorrupt:
		return ReasonCorrupted
	case sawEmpty:
		return ReasonImageOnly
	}
	return ReasonUnknown
}

// Detect picks the content kind for a blob from its bytes, the declared
// content type, and the source name.
func Detect(raw []byte, contentType, name string) types.ContentKind {
	if bytes.HasPrefix(raw, []byte("%PDF")) {
		return types.ContentPDF
	}
	ct := strings.ToLower(contentType)
	if ct == "" && len(raw) > 0 {
		ct = http.DetectContentType(raw)
	}
	switch {
	case strings.Contains(ct, "application/pdf"):
		return types.ContentPDF
	case strings.Contains(ct, "html"), strings.Contains(ct, "xml"):
		return types.ContentHTML
	}
	head := strings.ToLower(string(raw[:min(len(raw), 512)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") {
		return types.ContentHTML
	}
	if len(raw) == 0 && strings.EqualFold(filepath.Ext(name), ".pdf") {
		return types.ContentPDF
	}
	return types.ContentText
}

// IsSentinel reports whether text is an extraction failure message.
func IsSentinel(text string) bool {
	return strings.HasPrefix(text, SentinelPrefix) || strings.HasPrefix(text, "Error:")
}
