package mcp

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/sections"
	"github.com/MeKo-Tech/docstruct/internal/source"
)

const contractJSON = `{
	"fields": {"amount": "12 345,67", "currency": "₸", "date": "10.09.2025"},
	"pages": [
		{"tokens": [
			{"text": "1.", "bbox": [40, 40, 60, 60], "conf": 0.9},
			{"text": "OБЩИЕ", "bbox": [70, 40, 200, 60], "conf": 0.9},
			{"text": "ПOЛОЖЕНИЯ", "bbox": [210, 40, 400, 60], "conf": 0.9},
			{"text": "Стороны договорились о нижеследующем.", "bbox": [40, 70, 600, 90], "conf": 0.9},
			{"text": "2. Цена и порядок расчетов", "bbox": [40, 130, 500, 150], "conf": 0.9},
			{"text": "Итого к оплате: 12 345,67 ₸", "bbox": [40, 160, 500, 180], "conf": 0.9}
		]},
		{"tokens": [
			{"text": "Банк: АО Народный банк, БИН 123456789012", "bbox": [40, 40, 600, 60], "conf": 0.9}
		]}
	]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Name:     "docstruct-test",
		Version:  "1.0.0",
		Pipeline: pipeline.DefaultConfig(),
		Source:   source.DefaultOptions(),
	})
	require.NoError(t, err)
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func decodeText(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, extractTextFromResult(result))
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), v))
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.MCPServer())

	_, err := NewServer(Config{Pipeline: pipeline.DefaultConfig()})
	assert.Error(t, err)

	bad := pipeline.DefaultConfig()
	bad.Sections.ParagraphScope = "chapter"
	_, err = NewServer(Config{Name: "x", Pipeline: bad})
	assert.Error(t, err)
}

func TestServerToolsRegistration(t *testing.T) {
	s := newTestServer(t)
	msg := []byte(`{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`)

	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{
		ToolBuildSections, ToolCorrectItems, ToolFixFields, ToolValidateFields, ToolStructureDocument,
	} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

func TestHandleBuildSections(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleBuildSections(context.Background(),
		callRequest(ToolBuildSections, map[string]any{"document": contractJSON}))
	require.NoError(t, err)
	var raw []sections.Section
	decodeText(t, result, &raw)
	require.Len(t, raw, 2)
	assert.Equal(t, "1", raw[0].Numbering)
	assert.Contains(t, raw[0].Title, "OБЩИЕ")
	assert.Equal(t, "2. Цена и порядок расчетов", raw[1].Title)
	assert.Equal(t, 2, raw[1].PageTo)

	result, err = s.handleBuildSections(context.Background(),
		callRequest(ToolBuildSections, map[string]any{"document": contractJSON, "correct": true}))
	require.NoError(t, err)
	var corrected []sections.Section
	decodeText(t, result, &corrected)
	require.Len(t, corrected, 2)
	assert.Equal(t, "1. ОБЩИЕ ПОЛОЖЕНИЯ", corrected[0].Title)
}

func TestHandleBuildSections_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing document", map[string]any{}, "document"},
		{"invalid json", map[string]any{"document": "{"}, "failed to decode document"},
		{"wrong shape", map[string]any{"document": `"text"`}, "failed to decode document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleBuildSections(context.Background(), callRequest(ToolBuildSections, tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestHandleCorrectItems(t *testing.T) {
	s := newTestServer(t)
	items := `[{"text": "Рэспублика", "bbox": [1, 2, 3, 4], "conf": 0.8}, {"text": 7}]`

	result, err := s.handleCorrectItems(context.Background(),
		callRequest(ToolCorrectItems, map[string]any{"items": items}))
	require.NoError(t, err)

	var out []map[string]any
	decodeText(t, result, &out)
	require.Len(t, out, 2)
	assert.Equal(t, "Республика", out[0]["text"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, out[0]["bbox"])
	assert.InDelta(t, 0.8, out[0]["conf"], 1e-9)
	assert.InDelta(t, 7.0, out[1]["text"], 1e-9)

	result, err = s.handleCorrectItems(context.Background(),
		callRequest(ToolCorrectItems, map[string]any{"items": `{"text": "x"}`}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "invalid items")
}

func TestHandleFixFields(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleFixFields(context.Background(), callRequest(ToolFixFields, map[string]any{
		"fields": `{"amount": 1500, "currency": "тенге", "date": "01/02/2024", "note": "x"}`,
	}))
	require.NoError(t, err)

	var fm fields.FieldMap
	decodeText(t, result, &fm)
	assert.Equal(t, fields.FieldMap{
		fields.Amount:   "1500",
		fields.Currency: "KZT",
		fields.Date:     "2024-02-01",
	}, fm)

	for _, bad := range []string{"null", "[1]", "{"} {
		result, err = s.handleFixFields(context.Background(), callRequest(ToolFixFields, map[string]any{"fields": bad}))
		require.NoError(t, err)
		assert.True(t, result.IsError, bad)
	}
}

func TestHandleValidateFields(t *testing.T) {
	s := newTestServer(t)
	args := map[string]any{
		"fields": `{"amount": "12 345,67", "currency": "₸", "date": "10.09.2025"}`,
		"text":   "Итого к оплате: 12 345,67 ₸ Банк: БИН 123456789012",
	}

	result, err := s.handleValidateFields(context.Background(), callRequest(ToolValidateFields, args))
	require.NoError(t, err)
	var raw ValidateResult
	decodeText(t, result, &raw)
	assert.Equal(t, "10.09.2025", raw.Fields[fields.Date])
	assert.Len(t, raw.Checks, 5)

	args["fix"] = true
	result, err = s.handleValidateFields(context.Background(), callRequest(ToolValidateFields, args))
	require.NoError(t, err)
	var fixed ValidateResult
	decodeText(t, result, &fixed)
	assert.Equal(t, "2025-09-10", fixed.Fields[fields.Date])
	require.Len(t, fixed.Checks, 5)
	assert.Equal(t, fields.RuleIBANPresentInText, fixed.Checks[0].Rule)
	assert.Equal(t, 1, fixed.Failed)
	assert.Less(t, fixed.Failed, raw.Failed)
	require.NotNil(t, fixed.Hints)
	assert.Equal(t, []string{"123456789012"}, fixed.Hints.BINCandidates)

	delete(args, "text")
	result, err = s.handleValidateFields(context.Background(), callRequest(ToolValidateFields, args))
	require.NoError(t, err)
	var noText ValidateResult
	decodeText(t, result, &noText)
	assert.Nil(t, noText.Hints)
}

func TestHandleStructureDocument(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleStructureDocument(context.Background(), callRequest(ToolStructureDocument, map[string]any{
		"document": contractJSON,
		"doc_type": "contract",
	}))
	require.NoError(t, err)
	var res pipeline.Result
	decodeText(t, result, &res)
	assert.Equal(t, "contract", res.DocType)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, "1. ОБЩИЕ ПОЛОЖЕНИЯ", res.Sections[0].Title)
	assert.Equal(t, "KZT", res.Fields[fields.Currency])

	result, err = s.handleStructureDocument(context.Background(), callRequest(ToolStructureDocument, map[string]any{
		"document": contractJSON,
		"format":   "text",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "1. ОБЩИЕ ПОЛОЖЕНИЯ [pp. 1-1]")

	result, err = s.handleStructureDocument(context.Background(), callRequest(ToolStructureDocument, map[string]any{
		"document": contractJSON,
		"format":   "xml",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServe_StopsOnEOF(t *testing.T) {
	s := newTestServer(t)
	in := strings.NewReader(`{"jsonrpc": "2.0", "id": 1, "method": "ping"}` + "\n")

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), in, io.Discard) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after input was closed")
	}
}
