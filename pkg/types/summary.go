// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provenance tells where a Summary's text came from.
type Provenance string

const (
	ProvenanceModel    Provenance = "model"
	ProvenanceFallback Provenance = "fallback"
	ProvenanceCache    Provenance = "cache"
)

// Summary is a short rendition of a validated Document. A Summary is never
// built from an unextractable document.
type Summary struct {
	Text       string     `json:"text" yaml:"text"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
	DocumentID string     `json:"document_id" yaml:"document_id"`
	Model      string     `json:"model,omitempty" yaml:"model,omitempty"`
}

// AudioArtifact is a rendered speech file on durable storage.
type AudioArtifact struct {
	// Path is the client-facing path (e.g. "data/audio_<id>.mp3").
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes at the moment of the render's return.
	Size int64 `json:"size" yaml:"size"`

	// SourceRef identifies the Summary or SynthesisResult the audio renders.
	SourceRef string `json:"source_ref" yaml:"source_ref"`

	// Fallback is true when the fixed fallback utterance was rendered
	// instead of the requested text.
	Fallback bool `json:"fallback" yaml:"fallback"`

	// Truncated is true when the text was capped before synthesis.
	Truncated bool `json:"truncated" yaml:"truncated"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
