package types

import "time"

// AIConfig holds shared settings for components that call the Generative
// AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single generation call. Zero means no timeout
	// beyond the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SearchConfig holds settings for the literature-search stage.
type SearchConfig struct {
	// MaxResults caps the number of papers included in a session (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// StoreConfig holds settings for session persistence.
type StoreConfig struct {
	// DataDir is the directory containing the SQLite database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of findings-query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExportConfig holds settings for review export.
type ExportConfig struct {
	// OutputDir is the directory for exported reviews (default "output/exports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8321").
	Addr string `json:"addr" yaml:"addr"`
}

// ReviewConfig groups all component configurations for the engine.
type ReviewConfig struct {
	AI     AIConfig     `json:"ai" yaml:"ai"`
	Search SearchConfig `json:"search" yaml:"search"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Export ExportConfig `json:"export" yaml:"export"`
	Server ServerConfig `json:"server" yaml:"server"`
}
