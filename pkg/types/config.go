// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-analyzer/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerSecond limits outbound calls per host. Zero disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowedOrigins lists CORS origins. Empty allows none.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// MaxUploadBytes caps multipart upload size (default 50 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StorageConfig holds durable storage settings.
type StorageConfig struct {
	// DataDir is the flat directory for uploads, records, and audio (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// AudioRetention is the age after which audio artifacts are swept.
	// Zero keeps audio forever; zero-byte files are always swept.
	AudioRetention time.Duration `json:"audio_retention" yaml:"audio_retention" mapstructure:"audio_retention"`

	// SweepInterval is how often the server runs the audio sweep. Zero disables it.
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// SearchConfig holds settings for the search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the default number of results to return (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// CacheTTL is how long search results stay resolvable by identifier (default 1h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// FetchConfig holds settings for fetching documents by URL or DOI.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBytes caps the size of a fetched document (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`

	// Mailto is sent to OpenAlex and CrossRef for their polite pools.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`
}

// SummarizerConfig holds settings for the abstractive summarization model.
type SummarizerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the model name (default "facebook/bart-large-cnn").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL is the inference endpoint root; the model name is appended.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates against the inference endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// CacheDir holds the on-disk summary cache (default "models").
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// Offline disables all network calls; every summary takes the extractive fallback.
	Offline bool `json:"offline" yaml:"offline" mapstructure:"offline"`

	// MaxInputChars truncates the cleaned text sent to the model (default 1024).
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars" mapstructure:"max_input_chars"`

	// MaxLength and MinLength bound the generated summary in model tokens.
	MaxLength int `json:"max_length" yaml:"max_length" mapstructure:"max_length"`
	MinLength int `json:"min_length" yaml:"min_length" mapstructure:"min_length"`
}

// AudioConfig holds settings for the speech engine.
type AudioConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Language is the speech language code (default "en").
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// Slow requests the slower speaking rate.
	Slow bool `json:"slow" yaml:"slow" mapstructure:"slow"`

	// MaxChars caps the cleaned text before synthesis (default 4000).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// FallbackUtterance is rendered when synthesis of the real text fails.
	FallbackUtterance string `json:"fallback_utterance" yaml:"fallback_utterance" mapstructure:"fallback_utterance"`
}

// SynthesisConfig holds settings for cross-document synthesis.
type SynthesisConfig struct {
	// LenientModes treats an unknown mode as comprehensive instead of an error.
	LenientModes bool `json:"lenient_modes" yaml:"lenient_modes" mapstructure:"lenient_modes"`

	// DistinctPaperThemes requires a theme keyword to occur in at least two
	// distinct papers rather than twice in the concatenated summaries.
	DistinctPaperThemes bool `json:"distinct_paper_themes" yaml:"distinct_paper_themes" mapstructure:"distinct_paper_themes"`

	// AudioMaxChars pre-truncates the narrative before rendering (default 3000).
	AudioMaxChars int `json:"audio_max_chars" yaml:"audio_max_chars" mapstructure:"audio_max_chars"`

	// DefaultPapers is how many papers per source a query-only request fetches (default 5).
	DefaultPapers int `json:"default_papers" yaml:"default_papers" mapstructure:"default_papers"`
}

// StageTimeouts bounds every external call in the pipeline.
type StageTimeouts struct {
	Extract    time.Duration `json:"extract" yaml:"extract" mapstructure:"extract"`
	Metadata   time.Duration `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	Summarize  time.Duration `json:"summarize" yaml:"summarize" mapstructure:"summarize"`
	Synthesize time.Duration `json:"synthesize" yaml:"synthesize" mapstructure:"synthesize"`
	Audio      time.Duration `json:"audio" yaml:"audio" mapstructure:"audio"`
	Fetch      time.Duration `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Search     time.Duration `json:"search" yaml:"search" mapstructure:"search"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File is the rotating JSON log file. Empty disables file logging.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
}

// AppConfig groups all configuration for the analyzer.
type AppConfig struct {
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Storage    StorageConfig    `json:"storage" yaml:"storage" mapstructure:"storage"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer" mapstructure:"summarizer"`
	Audio      AudioConfig      `json:"audio" yaml:"audio" mapstructure:"audio"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	Timeouts   StageTimeouts    `json:"timeouts" yaml:"timeouts" mapstructure:"timeouts"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultStageTimeouts returns the per-stage deadlines used when none are configured.
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Extract:    60 * time.Second,
		Metadata:   10 * time.Second,
		Summarize:  120 * time.Second,
		Synthesize: 10 * time.Second,
		Audio:      60 * time.Second,
		Fetch:      30 * time.Second,
		Search:     30 * time.Second,
	}
}

// DefaultConfig returns an AppConfig populated with defaults.
func DefaultConfig() AppConfig {
	ua := "paper-analyzer/1.0"
	return AppConfig{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:3001"},
			MaxUploadBytes:  50 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:       "data",
			SweepInterval: time.Hour,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: ua, RequestsPerSecond: 1},
			MaxResults: 10,
			CacheTTL:   time.Hour,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: ua},
			MaxBytes:   50 << 20,
		},
		Summarizer: SummarizerConfig{
			HTTPConfig:    HTTPConfig{Timeout: 120 * time.Second, UserAgent: ua},
			Model:         "facebook/bart-large-cnn",
			BaseURL:       "https://api-inference.huggingface.co",
			CacheDir:      "models",
			MaxInputChars: 1024,
			MaxLength:     130,
			MinLength:     30,
		},
		Audio: AudioConfig{
			HTTPConfig:        HTTPConfig{Timeout: 60 * time.Second, UserAgent: ua},
			Language:          "en",
			MaxChars:          4000,
			FallbackUtterance: "This is a summary of the research paper.",
		},
		Synthesis: SynthesisConfig{
			AudioMaxChars: 3000,
			DefaultPapers: 5,
		},
		Timeouts: DefaultStageTimeouts(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
