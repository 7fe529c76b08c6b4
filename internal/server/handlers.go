// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/classify"
	"github.com/pdiddy/paper-analyzer/internal/pipeline"
	"github.com/pdiddy/paper-analyzer/internal/search"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseForm reads a multipart or urlencoded form bounded by the upload limit.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func formError(err error) (int, string) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge, "File too large"
	}
	return http.StatusBadRequest, "Invalid form data: " + err.Error()
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		status, msg := formError(err)
		writeJSON(w, status, pipeline.ErrorResponse(msg, pipeline.InvalidFileSummary))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.ErrorResponse("No file uploaded", pipeline.InvalidFileSummary))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		status, msg := formError(err)
		writeJSON(w, status, pipeline.ErrorResponse(msg, pipeline.UploadFailedSummary))
		return
	}

	s.analyze(w, r, pipeline.Request{
		Kind:   types.SourceUpload,
		Name:   header.Filename,
		Raw:    raw,
		Topics: classify.ParseTopics(r.FormValue("topics")),
	})
}

func (s *Server) handleProcessURL(w http.ResponseWriter, r *http.Request) {
	s.handleRemote(w, r, types.SourceURL, "url")
}

func (s *Server) handleProcessDOI(w http.ResponseWriter, r *http.Request) {
	s.handleRemote(w, r, types.SourceDOI, "doi")
}

func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request, kind types.SourceKind, field string) {
	summary := pipeline.URLFailedSummary
	if kind == types.SourceDOI {
		summary = pipeline.DOIFailedSummary
	}
	if err := s.parseForm(w, r); err != nil {
		status, msg := formError(err)
		writeJSON(w, status, pipeline.ErrorResponse(msg, summary))
		return
	}
	s.analyze(w, r, pipeline.Request{
		Kind:       kind,
		Identifier: r.FormValue(field),
		Topics:     classify.ParseTopics(r.FormValue("topics")),
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req pipeline.Request) {
	resp, err := s.pipeline.Analyze(r.Context(), req)
	writeJSON(w, pipeline.StatusCode(err), resp)
}

// searchResponse is the body of /search-papers/.
type searchResponse struct {
	Papers     []types.SearchResult `json:"papers"`
	Query      string               `json:"query"`
	Source     string               `json:"source"`
	TotalFound int                  `json:"total_found"`
	Error      string               `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	resp := searchResponse{Papers: []types.SearchResult{}}
	if err := s.parseForm(w, r); err != nil {
		status, msg := formError(err)
		resp.Error = msg
		writeJSON(w, status, resp)
		return
	}
	resp.Query = strings.TrimSpace(r.FormValue("query"))
	resp.Source = r.FormValue("source")
	if resp.Source == "" {
		resp.Source = search.SourceArxiv
	}
	maxResults := s.cfg.Search.MaxResults
	if v := r.FormValue("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			resp.Error = "max_results must be a positive integer"
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		maxResults = n
	}
	if resp.Query == "" {
		resp.Error = "query is required"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	if s.search == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	out, err := s.search.Search(r.Context(), resp.Query, resp.Source, maxResults)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", resp.Query), zap.Error(err))
		resp.Error = "Error searching papers: " + err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	if out.Results != nil {
		resp.Papers = out.Results
	}
	resp.TotalFound = len(resp.Papers)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		status, msg := formError(err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	mode := types.SynthesisMode(strings.ToLower(strings.TrimSpace(r.FormValue("synthesis_type"))))
	resp, err := s.pipeline.Synthesize(r.Context(), pipeline.SynthesisRequest{
		IDs:   pipeline.ParseIDs(r.FormValue("paper_ids")),
		Query: strings.TrimSpace(r.FormValue("query")),
		Mode:  mode,
	})
	writeJSON(w, pipeline.StatusCode(err), resp)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Research Summarization System Running",
		"version":       Version,
		"summarization": "BART (Hugging Face)",
		"status":        "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fi, err := os.Stat(s.store.Dir())
	dirOK := err == nil && fi.IsDir()
	count, err := s.store.CountAudio()
	if err != nil {
		s.logger.Warn("counting audio files failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"data_directory": dirOK,
		"audio_files":    count,
	})
}

// audioFiles serves generated audio from dir. Uploaded sources and their
// records live in the same directory and are not exposed.
func audioFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if !strings.HasPrefix(name, "audio_") || !strings.HasSuffix(name, ".mp3") || strings.Contains(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		fs.ServeHTTP(w, r)
	})
}
