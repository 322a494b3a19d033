package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/sections"
	"github.com/MeKo-Tech/docstruct/internal/source"
	"github.com/MeKo-Tech/docstruct/internal/version"
)

// DefaultStorePath is the SQLite file used when the store is enabled without a path.
const DefaultStorePath = "docstruct.db"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	asm := layout.DefaultAssemblerOptions()
	secs := sections.DefaultOptions()
	src := source.DefaultOptions()
	return Config{
		Verbose: false,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Structure: StructureConfig{
			ToleranceFactor:    asm.ToleranceFactor,
			MinTolerance:       asm.MinTolerance,
			Heading:            secs.Heading,
			ParagraphGapFactor: secs.ParagraphGapFactor,
			MinContentLength:   secs.MinContentLength,
			ParagraphScope:     string(secs.ParagraphScope),
			EnableHeadings:     true,
			EnableTerms:        true,
			Debug:              true,
		},
		Input: InputConfig{
			MinConfidence: src.MinConfidence,
			PDFScale:      src.PDFScale,
			NormalizeForm: src.Clean.NormalizeForm,
		},
		Parallel: ParallelConfig{
			MaxWorkers: pipeline.DefaultParallelConfig().MaxWorkers,
		},
		Output: OutputConfig{
			Format: pipeline.FormatJSON,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 120,
				RequestsPerHour:   3000,
				MaxRequestsPerDay: 20000,
				MaxDataPerDayMB:   1024,
			},
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
			Recursive:       false,
			Include:         []string{"*.json", "*.pdf"},
			Exclude:         []string{},
			Format:          pipeline.FormatJSON,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    DefaultStorePath,
		},
		MCP: MCPConfig{
			Name:    "docstruct",
			Version: version.Version,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"json", "text"}
	if c.Log.Format != "" && !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Log.Format, strings.Join(validLogFormats, ", "))
	}

	// Validate output formats
	validFormats := []string{pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatText}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Batch.Format != "" && !slices.Contains(validFormats, c.Batch.Format) {
		return fmt.Errorf("invalid batch format: %s (must be one of: %s)", c.Batch.Format, strings.Join(validFormats, ", "))
	}

	// Validate ratios (must be between 0.0 and 1.0)
	if err := validateThreshold(c.Structure.Heading.MinUpperRatio, "structure.heading.min_upper_ratio"); err != nil {
		return err
	}
	if err := validateThreshold(c.Input.MinConfidence, "input.min_confidence"); err != nil {
		return err
	}

	// Validate positive factors
	if err := validatePositive(c.Structure.ToleranceFactor, "structure.tolerance_factor"); err != nil {
		return err
	}
	if err := validatePositive(c.Structure.ParagraphGapFactor, "structure.paragraph_gap_factor"); err != nil {
		return err
	}
	if err := validatePositive(c.Input.PDFScale, "input.pdf_scale"); err != nil {
		return err
	}
	if c.Structure.MinTolerance < 0 {
		return fmt.Errorf("invalid structure.min_tolerance: %.2f (must not be negative)", c.Structure.MinTolerance)
	}
	if c.Structure.MinContentLength < 0 {
		return fmt.Errorf("invalid structure.min_content_length: %d (must not be negative)", c.Structure.MinContentLength)
	}

	validScopes := []string{string(sections.ScopePageSpan), string(sections.ScopeSection)}
	if c.Structure.ParagraphScope != "" && !slices.Contains(validScopes, c.Structure.ParagraphScope) {
		return fmt.Errorf("invalid paragraph scope: %s (must be one of: %s)", c.Structure.ParagraphScope, strings.Join(validScopes, ", "))
	}

	validForms := []string{"", "NFC", "NFKC", "NFD", "NFKD", "none"}
	if !slices.Contains(validForms, c.Input.NormalizeForm) {
		return fmt.Errorf("invalid normalize form: %s (must be one of: NFC, NFKC, NFD, NFKD, none)", c.Input.NormalizeForm)
	}

	// Validate positive integers
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Parallel.MaxWorkers <= 0 {
		return fmt.Errorf("invalid parallel max workers: %d (must be positive)", c.Parallel.MaxWorkers)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if rl := c.Server.RateLimit; rl.Enabled && rl.RequestsPerMinute <= 0 {
		return fmt.Errorf("invalid rate limit: %d requests per minute (must be positive)", rl.RequestsPerMinute)
	}

	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store is enabled but store.path is empty")
	}

	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Assembler = layout.AssemblerOptions{
		ToleranceFactor: c.Structure.ToleranceFactor,
		MinTolerance:    c.Structure.MinTolerance,
	}
	cfg.Sections = sections.Options{
		Heading:            c.Structure.Heading,
		ParagraphGapFactor: c.Structure.ParagraphGapFactor,
		MinContentLength:   c.Structure.MinContentLength,
		ParagraphScope:     sections.ParagraphScope(c.Structure.ParagraphScope),
	}
	cfg.EnableHeadings = c.Structure.EnableHeadings
	cfg.EnableTerms = c.Structure.EnableTerms
	cfg.IncludeDebug = c.Structure.Debug
	cfg.DocType = c.Input.DocType
	cfg.Parallel.MaxWorkers = c.Parallel.MaxWorkers
	return cfg
}

// ToSourceOptions converts the config to decoding options.
func (c *Config) ToSourceOptions() source.Options {
	opts := source.DefaultOptions()
	opts.MinConfidence = c.Input.MinConfidence
	opts.PDFScale = c.Input.PDFScale
	opts.PDFCredentials.UserPassword = c.Input.PDFPassword
	if c.Input.NormalizeForm != "" {
		opts.Clean.NormalizeForm = c.Input.NormalizeForm
	}
	return opts
}

// Helper functions

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

func validatePositive(value float64, name string) error {
	if value <= 0 {
		return fmt.Errorf("invalid %s: %.2f (must be positive)", name, value)
	}
	return nil
}
