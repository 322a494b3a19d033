//nolint:lll
package config

import "github.com/MeKo-Tech/docstruct/internal/sections"

// Config represents the complete configuration for the docstruct application.
// It includes settings for all commands (structure, batch, serve, mcp) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	Verbose bool      `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Log     LogConfig `mapstructure:"log" yaml:"log" json:"log"`

	// Structuring configuration
	Structure StructureConfig `mapstructure:"structure" yaml:"structure" json:"structure"`

	// Input decoding
	Input InputConfig `mapstructure:"input" yaml:"input" json:"input"`

	// Page-level parallelism inside one document
	Parallel ParallelConfig `mapstructure:"parallel" yaml:"parallel" json:"parallel"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Result store
	Store StoreConfig `mapstructure:"store" yaml:"store" json:"store"`

	// MCP server identity
	MCP MCPConfig `mapstructure:"mcp" yaml:"mcp" json:"mcp"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// StructureConfig contains line assembly, correction and section settings.
type StructureConfig struct {
	ToleranceFactor float64 `mapstructure:"tolerance_factor" yaml:"tolerance_factor" json:"tolerance_factor"`
	MinTolerance    float64 `mapstructure:"min_tolerance" yaml:"min_tolerance" json:"min_tolerance"`

	Heading            sections.HeadingOptions `mapstructure:"heading" yaml:"heading" json:"heading"`
	ParagraphGapFactor float64                 `mapstructure:"paragraph_gap_factor" yaml:"paragraph_gap_factor" json:"paragraph_gap_factor"`
	MinContentLength   int                     `mapstructure:"min_content_length" yaml:"min_content_length" json:"min_content_length"`
	ParagraphScope     string                  `mapstructure:"paragraph_scope" yaml:"paragraph_scope" json:"paragraph_scope"`

	// Correction stages
	EnableHeadings bool `mapstructure:"enable_headings" yaml:"enable_headings" json:"enable_headings"`
	EnableTerms    bool `mapstructure:"enable_terms" yaml:"enable_terms" json:"enable_terms"`

	Debug bool `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// InputConfig contains token decoding settings.
type InputConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	PDFScale      float64 `mapstructure:"pdf_scale" yaml:"pdf_scale" json:"pdf_scale"`
	NormalizeForm string  `mapstructure:"normalize_form" yaml:"normalize_form" json:"normalize_form"`
	DocType       string  `mapstructure:"doc_type" yaml:"doc_type" json:"doc_type"`
	// PDFPassword opens encrypted PDFs. It is never written back out.
	PDFPassword string `mapstructure:"pdf_password" yaml:"-" json:"-"`
}

// ParallelConfig contains parallel processing settings.
type ParallelConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int  `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int  `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Format          string   `mapstructure:"format" yaml:"format" json:"format"`
}

// StoreConfig contains result store settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// MCPConfig contains the identity the MCP server announces.
type MCPConfig struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Version string `mapstructure:"version" yaml:"version" json:"version"`
}
