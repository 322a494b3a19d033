package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/config"
	"github.com/MeKo-Tech/docstruct/internal/version"
)

// execute runs a fresh command tree with args and stdin and returns stdout.
// HOME is redirected so no user configuration is picked up.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "docstruct", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"structure", "correct", "fields", "crop", "batch", "serve", "mcp", "eval", "config"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandHelp(t *testing.T) {
	output, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "Cyrillic and Latin")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "docstruct version "+version.String()+"\n", output)
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := execute(t, "", "--no-such-flag")
	assert.Error(t, err)
}

func TestRootCommandMissingConfigFile(t *testing.T) {
	_, err := execute(t, "", "--config", "/nonexistent/docstruct.yaml", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestFreshTreesDoNotShareFlags(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "config", "generate", dir+"/a.yaml")
	require.NoError(t, err)

	// A second tree must not see the first tree's arguments or flag values.
	output, err := execute(t, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, output, "(none, using defaults)")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"WARN", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"bogus", false, slog.LevelInfo},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Log.Level = tt.level
		cfg.Verbose = tt.verbose
		assert.Equal(t, tt.want, logLevel(&cfg), tt.level)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	var buf bytes.Buffer
	newLogger(&buf, &cfg).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	cfg.Log.Format = "text"
	newLogger(&buf, &cfg).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")

	buf.Reset()
	cfg.Log.Level = "warn"
	newLogger(&buf, &cfg).Info("hidden")
	assert.Empty(t, buf.String())
}
