package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/store"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration
	Stdin         string

	// Test environment
	TempDir string
	envVars map[string]*string

	// HTTP state
	HTTPServer         *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
	store              *store.Store
	remembered         string

	// The file the last "the file ... should exist" step resolved.
	lastFile string
}

// NewTestContext creates a scenario context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "docstruct-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		TempDir: tempDir,
		envVars: map[string]*string{},
	}, nil
}

// Cleanup stops the test server, restores environment variables and
// removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	if testCtx.store != nil {
		if err := testCtx.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
		testCtx.store = nil
	}

	for name, prev := range testCtx.envVars {
		var err error
		if prev == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *prev)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}
	testCtx.envVars = map[string]*string{}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// SetEnv sets an environment variable until Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, tracked := testCtx.envVars[name]; !tracked {
		if prev, ok := os.LookupEnv(name); ok {
			testCtx.envVars[name] = &prev
		} else {
			testCtx.envVars[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Path resolves a scenario file name inside the temp directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substitute replaces {tmp} with the scenario temp directory and
// {remembered} with the last remembered response field.
func (testCtx *TestContext) substitute(s string) string {
	s = strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
	return strings.ReplaceAll(s, "{remembered}", testCtx.remembered)
}

// writeFile writes data below the temp directory, creating parents.
func (testCtx *TestContext) writeFile(name string, data []byte) (string, error) {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}
