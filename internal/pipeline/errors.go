// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Stage names a pipeline step.
type Stage string

const (
	StageInput      Stage = "input"
	StageFetch      Stage = "fetch"
	StageStore      Stage = "store"
	StageExtract    Stage = "extract"
	StageMetadata   Stage = "metadata"
	StageSummarize  Stage = "summarize"
	StageSynthesize Stage = "synthesize"
	StageAudio      Stage = "audio"
)

// Kind classifies a stage failure.
type Kind string

const (
	// KindExtraction means no method recovered usable text from the source.
	KindExtraction Kind = "extraction"

	// KindValidity means text was recovered but the gate refused it.
	KindValidity Kind = "validity"

	// KindExternal means a network service or model failed with no fallback left.
	KindExternal Kind = "external"

	// KindInvalidInput means the request itself is wrong (missing field, wrong file type).
	KindInvalidInput Kind = "invalid-input"

	// KindInternal covers local faults such as a storage write failing.
	KindInternal Kind = "internal"
)

// StageError is the typed failure threaded through the pipeline. The
// client-facing sentinel text is produced only by Sentinel.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error

	// Message overrides the sentinel text when set.
	Message string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Sentinel returns the message shown to clients.
func (e *StageError) Sentinel() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err == nil {
		return "Error: " + string(e.Stage) + " failed"
	}
	switch e.Kind {
	case KindExtraction, KindValidity, KindInvalidInput:
		return e.Err.Error()
	}
	msg := e.Err.Error()
	if strings.HasPrefix(msg, "Error") {
		return msg
	}
	return "Error: " + msg
}

// StatusCode maps err to the HTTP status of the response that carries it.
// Validation faults and extraction failures are 400, validity rejections
// still return 200 with the error field set, everything else is 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se *StageError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Kind {
	case KindInvalidInput, KindExtraction:
		return http.StatusBadRequest
	case KindValidity:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// Sentinel returns the client message for any error.
func Sentinel(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Sentinel()
	}
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}

func invalid(format string, args ...any) *StageError {
	msg := fmt.Sprintf(format, args...)
	return &StageError{Stage: StageInput, Kind: KindInvalidInput, Err: errors.New(msg)}
}
