package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docstruct/cmd/docstruct/cmd"
)

// splitArgs splits a command line on whitespace, honoring single and
// double quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		started bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// iRunCommand executes a docstruct command line in-process. Stdout and
// stderr are kept apart so log lines never mix with JSON results.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substitute(command)
	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts, err := splitArgs(command)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "docstruct" {
		return fmt.Errorf("unknown program %q", parts[0])
	}

	root := cmd.NewRootCommand()
	var out, stderr bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(testCtx.Stdin))
	root.SetArgs(parts[1:])

	err = root.Execute()
	testCtx.LastOutput = out.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
	}
	testCtx.Stdin = ""
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies stdout or stderr contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substitute(expectedText)
	if !strings.Contains(testCtx.LastOutput+testCtx.LastStderr, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s\nStderr: %s",
			expectedText, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// jsonOutput decodes stdout as one JSON document.
func (testCtx *TestContext) jsonOutput() (any, error) {
	output := strings.TrimSpace(testCtx.LastOutput)
	if output == "" {
		return nil, fmt.Errorf("no JSON found in output; stderr: %s", testCtx.LastStderr)
	}
	var v any
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, output)
	}
	return v, nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.jsonOutput()
	return err
}

// theJSONShouldContain verifies a dotted field path exists in the output.
func (testCtx *TestContext) theJSONShouldContain(field string) error {
	v, err := testCtx.jsonOutput()
	if err != nil {
		return err
	}
	_, err = lookupPath(v, field)
	return err
}

// theJSONFieldShouldEqual compares the string form of a dotted field path.
func (testCtx *TestContext) theJSONFieldShouldEqual(field, expected string) error {
	v, err := testCtx.jsonOutput()
	if err != nil {
		return err
	}
	return fieldEquals(v, field, expected)
}

// theJSONFieldShouldHaveItems checks the length of an array field.
func (testCtx *TestContext) theJSONFieldShouldHaveItems(field string, n int) error {
	v, err := testCtx.jsonOutput()
	if err != nil {
		return err
	}
	return fieldHasItems(v, field, n)
}

// lookupPath walks a decoded JSON value along a dotted path. Numeric
// segments index arrays.
func lookupPath(v any, path string) (any, error) {
	if path == "" || path == "." {
		return v, nil
	}
	current := v
	parts := strings.Split(path, ".")
	for i, part := range parts {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in JSON", strings.Join(parts[:i+1], "."))
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index '%s' out of range in JSON", strings.Join(parts[:i+1], "."))
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot navigate deeper into non-object field '%s'", strings.Join(parts[:i], "."))
		}
	}
	return current, nil
}

func fieldEquals(v any, field, expected string) error {
	got, err := lookupPath(v, field)
	if err != nil {
		return err
	}
	var s string
	switch val := got.(type) {
	case string:
		s = val
	case nil:
		s = "null"
	default:
		b, _ := json.Marshal(val)
		s = string(b)
	}
	if s != expected {
		return fmt.Errorf("field '%s' is %q, want %q", field, s, expected)
	}
	return nil
}

func fieldHasItems(v any, field string, n int) error {
	got, err := lookupPath(v, field)
	if err != nil {
		return err
	}
	arr, ok := got.([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not an array", field)
	}
	if len(arr) != n {
		return fmt.Errorf("field '%s' has %d items, want %d", field, len(arr), n)
	}
	return nil
}

// theErrorShouldMention verifies the error message contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}

	// Check both error message and output for the expected text
	fullErrorText := testCtx.LastOutput + testCtx.LastStderr
	if testCtx.LastError != nil {
		fullErrorText += " " + testCtx.LastError.Error()
	}
	if !strings.Contains(strings.ToLower(fullErrorText), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, fullErrorText)
	}
	return nil
}

// theFileShouldExist checks a file below the temp directory.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := testCtx.Path(testCtx.substitute(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("expected file %s: %w", path, err)
	}
	testCtx.lastFile = path
	return nil
}

// theFileShouldContain checks the content of the last file that was
// asserted to exist.
func (testCtx *TestContext) theFileShouldContain(expected string) error {
	if testCtx.lastFile == "" {
		return errors.New("no file selected; use 'the file \"...\" should exist' first")
	}
	data, err := os.ReadFile(testCtx.lastFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", testCtx.lastFile, err)
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", testCtx.lastFile, expected, data)
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets an environment variable for the scenario.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.SetEnv(name, value)
}

func (testCtx *TestContext) stdinContains(doc *godog.DocString) error {
	testCtx.Stdin = doc.Content
	return nil
}

// RegisterCommonSteps registers command, output and file steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Command execution steps
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^stdin contains:$`, testCtx.stdinContains)

	// Output validation steps
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldEqual)
	sc.Step(`^the JSON field "([^"]*)" should have (\d+) items?$`, testCtx.theJSONFieldShouldHaveItems)

	// Error steps
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	// File steps
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file should contain "([^"]*)"$`, testCtx.theFileShouldContain)

	// Configuration steps
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
