package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/viper"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docstruct.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Log.Level != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.Log.Level)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if !slices.Equal(cfg.Batch.Include, []string{"*.json", "*.pdf"}) {
		t.Errorf("Expected default include patterns, got %v", cfg.Batch.Include)
	}
}

// TestLoadFromSearchPath tests that docstruct.yaml in the working directory is found.
func TestLoadFromSearchPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	if err := os.WriteFile(filepath.Join(tmpDir, "docstruct.yaml"), []byte("log:\n  level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected log level 'warn', got %s", cfg.Log.Level)
	}
	if filepath.Base(loader.GetConfigFileUsed()) != "docstruct.yaml" {
		t.Errorf("Expected docstruct.yaml to be used, got %s", loader.GetConfigFileUsed())
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, `
verbose: true
log:
  level: debug
server:
  host: 0.0.0.0
  port: 9090
structure:
  paragraph_scope: section
  enable_terms: false
  heading:
    min_upper_ratio: 0.7
input:
  doc_type: contract
batch:
  recursive: true
  include: ["*.json"]
store:
  enabled: true
  path: /tmp/results.db
`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Log.Level != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.Log.Level)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Structure.ParagraphScope != "section" {
		t.Errorf("Expected paragraph scope 'section', got %s", cfg.Structure.ParagraphScope)
	}
	if cfg.Structure.EnableTerms {
		t.Error("Expected term correction to be disabled")
	}
	if !cfg.Structure.EnableHeadings {
		t.Error("Expected heading correction to keep its default")
	}
	if cfg.Structure.Heading.MinUpperRatio != 0.7 {
		t.Errorf("Expected min_upper_ratio 0.7, got %f", cfg.Structure.Heading.MinUpperRatio)
	}
	if cfg.Structure.Heading.MinHeightRatio != 1.12 {
		t.Errorf("Expected default min_height_ratio 1.12, got %f", cfg.Structure.Heading.MinHeightRatio)
	}
	if cfg.Input.DocType != "contract" {
		t.Errorf("Expected doc type 'contract', got %s", cfg.Input.DocType)
	}
	if !cfg.Batch.Recursive || !slices.Equal(cfg.Batch.Include, []string{"*.json"}) {
		t.Errorf("Unexpected batch config: %+v", cfg.Batch)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/tmp/results.db" {
		t.Errorf("Unexpected store config: %+v", cfg.Store)
	}
}

// TestEnvironmentOverrides tests DOCSTRUCT_ environment variables.
func TestEnvironmentOverrides(t *testing.T) {
	configFile := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("DOCSTRUCT_SERVER_PORT", "9191")
	t.Setenv("DOCSTRUCT_LOG_LEVEL", "error")
	t.Setenv("DOCSTRUCT_STRUCTURE_HEADING_MIN_GAP_RATIO", "1.25")
	t.Setenv("DOCSTRUCT_INPUT_PDF_PASSWORD", "s3cret")

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected env port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected env log level 'error', got %s", cfg.Log.Level)
	}
	if cfg.Structure.Heading.MinGapRatio != 1.25 {
		t.Errorf("Expected env min_gap_ratio 1.25, got %f", cfg.Structure.Heading.MinGapRatio)
	}
	if cfg.Input.PDFPassword != "s3cret" {
		t.Errorf("Expected env pdf password, got %q", cfg.Input.PDFPassword)
	}
}

// TestLoadErrors tests missing, malformed and invalid files.
func TestLoadErrors(t *testing.T) {
	if _, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}

	malformed := writeConfig(t, "server: [port\n")
	if _, err := newTestLoader().LoadWithFile(malformed); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	invalid := writeConfig(t, "log:\n  level: loud\n")
	if _, err := newTestLoader().LoadWithFile(invalid); err == nil {
		t.Error("Expected validation error")
	}

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(invalid)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Log.Level != "loud" {
		t.Errorf("Expected unvalidated level 'loud', got %s", cfg.Log.Level)
	}
}

// TestGenerateDefaultConfigFile tests that the generated file loads back to the defaults.
func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Structure != def.Structure {
		t.Errorf("Structure mismatch:\n got %+v\nwant %+v", cfg.Structure, def.Structure)
	}
	if cfg.Server != def.Server {
		t.Errorf("Server mismatch:\n got %+v\nwant %+v", cfg.Server, def.Server)
	}
	if cfg.Input != def.Input {
		t.Errorf("Input mismatch:\n got %+v\nwant %+v", cfg.Input, def.Input)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()

	for _, want := range []string{".", "/etc/docstruct", filepath.Join("/xdg", "docstruct")} {
		if !slices.Contains(paths, want) {
			t.Errorf("Expected %s in search paths %v", want, paths)
		}
	}
}

// TestDefaultConfigMap tests the nested default key map.
func TestDefaultConfigMap(t *testing.T) {
	flat := flatten("", DefaultConfigMap())
	for _, key := range []string{"log.level", "structure.heading.min_upper_ratio", "server.rate_limit.enabled", "store.path", "mcp.name"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("Expected default for %s", key)
		}
	}
}
