package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docstruct/internal/config"
	"github.com/MeKo-Tech/docstruct/internal/server"
	"github.com/MeKo-Tech/docstruct/internal/store"
)

// startServer runs the API on an httptest server with the default
// configuration, optionally backed by an in-memory store.
func (testCtx *TestContext) startServer(withStore bool) error {
	if testCtx.HTTPServer != nil {
		return errors.New("server already running")
	}
	cfg := config.DefaultConfig()
	sc := server.Config{
		Host:        "localhost",
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: int64(cfg.Server.MaxUploadMB),
		TimeoutSec:  cfg.Server.TimeoutSec,
		Pipeline:    cfg.ToPipelineConfig(),
		Source:      cfg.ToSourceOptions(),
	}
	if withStore {
		st, err := store.Open(store.MemoryPath)
		if err != nil {
			return err
		}
		sc.Store = st
		testCtx.store = st
	}
	srv, err := server.NewServer(sc)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.HTTPServer = httptest.NewServer(srv.Router())
	return nil
}

func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startServer(false)
}

func (testCtx *TestContext) theServerIsRunningWithAStore() error {
	return testCtx.startServer(true)
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	if testCtx.HTTPServer == nil {
		return nil, errors.New("server is not running")
	}
	return http.NewRequest(method, testCtx.HTTPServer.URL+testCtx.substitute(path), body)
}

func (testCtx *TestContext) iSendRequest(method, path string) error {
	req, err := testCtx.newRequest(method, path, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTJSON(path string, doc *godog.DocString) error {
	req, err := testCtx.newRequest(http.MethodPost, path, strings.NewReader(doc.Content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.do(req)
}

// iPOSTTheFile sends a scenario file as the raw JSON body.
func (testCtx *TestContext) iPOSTTheFile(name, path string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	req, err := testCtx.newRequest(http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.do(req)
}

// iUploadTheFile sends a scenario file as the multipart "file" field.
func (testCtx *TestContext) iUploadTheFile(name, path string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := testCtx.newRequest(http.MethodPost, path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nResponse: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) responseJSON() (any, error) {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &v); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w\nResponse: %s", err, testCtx.LastHTTPResponse)
	}
	return v, nil
}

func (testCtx *TestContext) theResponseFieldShouldBe(field, expected string) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return fieldEquals(v, field, testCtx.substitute(expected))
}

func (testCtx *TestContext) theResponseFieldShouldHaveItems(field string, n int) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return fieldHasItems(v, field, n)
}

// iRememberTheResponseField stores a response value for later
// {remembered} substitution.
func (testCtx *TestContext) iRememberTheResponseField(field string) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	got, err := lookupPath(v, field)
	if err != nil {
		return err
	}
	s, ok := got.(string)
	if !ok {
		return fmt.Errorf("field '%s' is not a string", field)
	}
	testCtx.remembered = s
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the server is running with a result store$`, testCtx.theServerIsRunningWithAStore)
	sc.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, testCtx.iSendRequest)
	sc.Step(`^I POST to "([^"]*)" with JSON:$`, testCtx.iPOSTJSON)
	sc.Step(`^I POST the file "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTTheFile)
	sc.Step(`^I upload the file "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTheFile)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^the response field "([^"]*)" should have (\d+) items?$`, testCtx.theResponseFieldShouldHaveItems)
	sc.Step(`^I remember the response field "([^"]*)"$`, testCtx.iRememberTheResponseField)
}
