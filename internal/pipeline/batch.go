// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// BatchResult holds the outcome of a batch analysis run.
type BatchResult struct {
	Analyzed  int
	Rejected  int
	Failed    int
	Responses []Response
}

// Total returns the total number of requests processed.
func (r BatchResult) Total() int {
	return r.Analyzed + r.Rejected + r.Failed
}

// HasFailures reports whether any request failed outright. Rejected
// documents (unreadable text, summary refused) are not failures.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AnalyzeBatch analyzes each request in turn, printing per-item status to
// w. It continues after individual failures and stops early only when ctx
// is done.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, reqs []Request, w io.Writer) BatchResult {
	var result BatchResult
	for _, req := range reqs {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", requestLabel(req), ctx.Err())
			result.Failed++
			continue
		}
		resp, err := p.Analyze(ctx, req)
		result.Responses = append(result.Responses, resp)
		switch {
		case err == nil:
			fmt.Fprintf(w, "analyzed: %s (%s, %s)\n", requestLabel(req), resp.DocumentID, resp.Provenance)
			result.Analyzed++
		case StatusCode(err) == http.StatusOK:
			fmt.Fprintf(w, "rejected: %s (%s)\n", requestLabel(req), resp.Error)
			result.Rejected++
		default:
			fmt.Fprintf(w, "failed:   %s (%s)\n", requestLabel(req), resp.Error)
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d analyzed, %d rejected, %d failed (total: %d)\n",
		result.Analyzed, result.Rejected, result.Failed, result.Total())
	return result
}
