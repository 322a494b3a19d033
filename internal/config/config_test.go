package config

import (
	"runtime"
	"testing"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/sections"
	"github.com/MeKo-Tech/docstruct/internal/source"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Log.Level != infoLevel {
		t.Errorf("Expected log level '%s', got %s", infoLevel, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format 'json', got %s", cfg.Log.Format)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}

	// Structure defaults
	if cfg.Structure.ToleranceFactor != 0.6 {
		t.Errorf("Expected tolerance_factor 0.6, got %f", cfg.Structure.ToleranceFactor)
	}
	if cfg.Structure.MinTolerance != 3.0 {
		t.Errorf("Expected min_tolerance 3.0, got %f", cfg.Structure.MinTolerance)
	}
	if cfg.Structure.ParagraphGapFactor != 1.5 {
		t.Errorf("Expected paragraph_gap_factor 1.5, got %f", cfg.Structure.ParagraphGapFactor)
	}
	if cfg.Structure.Heading.MinHeightRatio != 1.12 {
		t.Errorf("Expected heading min_height_ratio 1.12, got %f", cfg.Structure.Heading.MinHeightRatio)
	}
	if cfg.Structure.ParagraphScope != string(sections.ScopePageSpan) {
		t.Errorf("Expected paragraph scope %s, got %s", sections.ScopePageSpan, cfg.Structure.ParagraphScope)
	}
	if !cfg.Structure.EnableHeadings || !cfg.Structure.EnableTerms {
		t.Error("Expected both correction stages to be enabled")
	}

	// Input defaults
	if cfg.Input.MinConfidence != source.DefaultMinConfidence {
		t.Errorf("Expected min_confidence %f, got %f", source.DefaultMinConfidence, cfg.Input.MinConfidence)
	}
	if cfg.Input.NormalizeForm != "NFC" {
		t.Errorf("Expected normalize form NFC, got %s", cfg.Input.NormalizeForm)
	}

	if cfg.Parallel.MaxWorkers != runtime.NumCPU() {
		t.Errorf("Expected max workers %d, got %d", runtime.NumCPU(), cfg.Parallel.MaxWorkers)
	}

	// Server defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	// Batch defaults
	if cfg.Batch.Workers != 4 {
		t.Errorf("Expected batch workers 4, got %d", cfg.Batch.Workers)
	}
	if len(cfg.Batch.Include) != 2 {
		t.Errorf("Expected two include patterns, got %v", cfg.Batch.Include)
	}

	if cfg.Store.Enabled {
		t.Error("Expected store to be disabled")
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Errorf("Expected store path %s, got %s", DefaultStorePath, cfg.Store.Path)
	}
	if cfg.MCP.Name != "docstruct" {
		t.Errorf("Expected MCP name 'docstruct', got %s", cfg.MCP.Name)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

// TestValidate tests configuration validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"debug level", func(c *Config) { c.Log.Level = debugLevel }, false},
		{"invalid log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"yaml output", func(c *Config) { c.Output.Format = "yaml" }, false},
		{"invalid output format", func(c *Config) { c.Output.Format = "csv" }, true},
		{"invalid batch format", func(c *Config) { c.Batch.Format = "csv" }, true},
		{"upper ratio above one", func(c *Config) { c.Structure.Heading.MinUpperRatio = 1.5 }, true},
		{"negative min confidence", func(c *Config) { c.Input.MinConfidence = -0.1 }, true},
		{"zero tolerance factor", func(c *Config) { c.Structure.ToleranceFactor = 0 }, true},
		{"zero gap factor", func(c *Config) { c.Structure.ParagraphGapFactor = 0 }, true},
		{"zero pdf scale", func(c *Config) { c.Input.PDFScale = 0 }, true},
		{"negative min tolerance", func(c *Config) { c.Structure.MinTolerance = -1 }, true},
		{"negative min content length", func(c *Config) { c.Structure.MinContentLength = -1 }, true},
		{"section scope", func(c *Config) { c.Structure.ParagraphScope = "section" }, false},
		{"invalid scope", func(c *Config) { c.Structure.ParagraphScope = "page" }, true},
		{"nfkc", func(c *Config) { c.Input.NormalizeForm = "NFKC" }, false},
		{"invalid normalize form", func(c *Config) { c.Input.NormalizeForm = "NFX" }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, true},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, true},
		{"zero workers", func(c *Config) { c.Parallel.MaxWorkers = 0 }, true},
		{"zero batch workers", func(c *Config) { c.Batch.Workers = 0 }, true},
		{"enabled rate limit without rate", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerMinute = 0
		}, true},
		{"store without path", func(c *Config) {
			c.Store.Enabled = true
			c.Store.Path = " "
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestToPipelineConfig tests conversion to pipeline configuration.
func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Structure.ToleranceFactor = 0.8
	cfg.Structure.ParagraphScope = "section"
	cfg.Structure.EnableTerms = false
	cfg.Structure.Debug = false
	cfg.Input.DocType = "invoice"
	cfg.Parallel.MaxWorkers = 3

	pc := cfg.ToPipelineConfig()
	if pc.Assembler.ToleranceFactor != 0.8 {
		t.Errorf("Expected tolerance factor 0.8, got %f", pc.Assembler.ToleranceFactor)
	}
	if pc.Sections.ParagraphScope != sections.ScopeSection {
		t.Errorf("Expected section scope, got %s", pc.Sections.ParagraphScope)
	}
	if !pc.EnableHeadings || pc.EnableTerms {
		t.Errorf("Expected headings on and terms off, got %v/%v", pc.EnableHeadings, pc.EnableTerms)
	}
	if pc.IncludeDebug {
		t.Error("Expected debug output to be disabled")
	}
	if pc.DocType != "invoice" {
		t.Errorf("Expected doc type invoice, got %s", pc.DocType)
	}
	if pc.Parallel.MaxWorkers != 3 {
		t.Errorf("Expected 3 workers, got %d", pc.Parallel.MaxWorkers)
	}

	if _, err := pipeline.New(pc); err != nil {
		t.Errorf("pipeline.New() rejected converted config: %v", err)
	}
}

// TestToSourceOptions tests conversion to decoding options.
func TestToSourceOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.MinConfidence = 0
	cfg.Input.PDFScale = 3
	cfg.Input.NormalizeForm = "NFKC"
	cfg.Input.PDFPassword = "s3cret"

	opts := cfg.ToSourceOptions()
	if opts.MinConfidence != 0 {
		t.Errorf("Expected min confidence 0, got %f", opts.MinConfidence)
	}
	if opts.PDFScale != 3 {
		t.Errorf("Expected pdf scale 3, got %f", opts.PDFScale)
	}
	if opts.Clean.NormalizeForm != "NFKC" {
		t.Errorf("Expected NFKC, got %s", opts.Clean.NormalizeForm)
	}
	if !opts.Clean.Trim {
		t.Error("Expected default cleaning to be kept")
	}
	if opts.PDFCredentials.UserPassword != "s3cret" {
		t.Errorf("Expected pdf password to be passed on, got %q", opts.PDFCredentials.UserPassword)
	}
}
