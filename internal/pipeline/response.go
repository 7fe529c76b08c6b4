// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"errors"

	"github.com/pdiddy/paper-analyzer/internal/citation"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Response is the analysis result. Every field is always present in the
// JSON encoding; on failure Error is set and the content fields hold safe
// defaults.
type Response struct {
	Summary        string               `json:"summary"`
	Classification string               `json:"classification"`
	Audio          string               `json:"audio"`
	SourceInfo     *types.SourceInfo    `json:"source_info"`
	Citations      *citation.Citations  `json:"citations"`
	Error          string               `json:"error"`
	DocumentID     string               `json:"document_id,omitempty"`
	Provenance     types.Provenance     `json:"-"`
	Metadata       types.Metadata       `json:"-"`
	Artifact       *types.AudioArtifact `json:"-"`
}

// MarshalJSON keeps source_info and citations present as empty objects on
// error responses.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	out := struct {
		plain
		SourceInfo any `json:"source_info"`
		Citations  any `json:"citations"`
	}{plain: plain(r), SourceInfo: struct{}{}, Citations: struct{}{}}
	if r.SourceInfo != nil {
		out.SourceInfo = r.SourceInfo
	}
	if r.Citations != nil {
		out.Citations = r.Citations
	}
	return json.Marshal(out)
}

// failure builds the error envelope for a request that produced no
// summary.
func failure(req Request, err error) Response {
	summary := URLFailedSummary
	switch {
	case req.Kind == types.SourceUpload && isInvalidInput(err):
		summary = InvalidFileSummary
	case req.Kind == types.SourceUpload:
		summary = UploadFailedSummary
	case req.Kind == types.SourceDOI:
		summary = DOIFailedSummary
	}
	return ErrorResponse(Sentinel(err), summary)
}

// ErrorResponse returns the stable error envelope.
func ErrorResponse(msg, summary string) Response {
	return Response{
		Summary:        summary,
		Classification: "Error",
		Error:          msg,
	}
}

func isInvalidInput(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Kind == KindInvalidInput
}
