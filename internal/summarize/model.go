// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/paper-analyzer/internal/httputil"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// inferenceAPIBase is the inference endpoint root. Tests override it.
var inferenceAPIBase = "https://api-inference.huggingface.co"

// HFModel calls a hosted abstractive summarization model by name.
type HFModel struct {
	model   string
	baseURL string
	apiKey  string
	offline bool
	client  *httputil.Client
}

// NewHFModel builds a model client from cfg. An empty BaseURL uses the
// public inference endpoint.
func NewHFModel(cfg types.SummarizerConfig) *HFModel {
	base := cfg.BaseURL
	if base == "" {
		base = inferenceAPIBase
	}
	return &HFModel{
		model:   cfg.Model,
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  cfg.APIKey,
		offline: cfg.Offline,
		client:  httputil.New(cfg.HTTPConfig),
	}
}

// Name returns the model identifier.
func (m *HFModel) Name() string { return m.model }

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters inferenceParam `json:"parameters"`
	Options    inferenceOpts  `json:"options"`
}

type inferenceParam struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type inferenceOpts struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Summarize posts text to the model and returns the generated summary.
func (m *HFModel) Summarize(ctx context.Context, text string, p Params) (string, error) {
	if m.offline {
		return "", ErrOffline
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs:     text,
		Parameters: inferenceParam{MaxLength: p.MaxLength, MinLength: p.MinLength},
		Options:    inferenceOpts{WaitForModel: true},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := m.baseURL + "/models/" + m.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling model %s: %w", m.model, err)
	}
	data, err := httputil.ReadAll(resp, 1<<20)
	if err != nil {
		return "", fmt.Errorf("reading model response: %w", err)
	}

	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		return "", fmt.Errorf("model %s: %s", m.model, msg.String())
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model %s returned status %d", m.model, resp.StatusCode)
	}

	out := gjson.GetBytes(data, "0.summary_text")
	if !out.Exists() {
		out = gjson.GetBytes(data, "summary_text")
	}
	if !out.Exists() {
		return "", fmt.Errorf("model %s: response has no summary_text", m.model)
	}
	return out.String(), nil
}
