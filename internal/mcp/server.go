// Package mcp exposes the structuring operations as Model Context Protocol
// tools over stdio.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/sections"
	"github.com/MeKo-Tech/docstruct/internal/source"
)

// Tool names.
const (
	ToolBuildSections     = "build_sections"
	ToolCorrectItems      = "correct_items"
	ToolFixFields         = "fix_fields"
	ToolValidateFields    = "validate_fields"
	ToolStructureDocument = "structure_document"
)

// Config holds the MCP server settings.
type Config struct {
	Name     string
	Version  string
	Pipeline pipeline.Config
	Source   source.Options
}

// Server represents the MCP server instance
type Server struct {
	pipeline   *pipeline.Pipeline
	sourceOpts source.Options
	mcpServer  *server.MCPServer
}

// ValidateResult is the JSON payload of the validate_fields tool.
type ValidateResult struct {
	Fields fields.FieldMap          `json:"fields"`
	Checks []fields.ValidationCheck `json:"checks"`
	Failed int                      `json:"failed"`
	Hints  *fields.Hints            `json:"hints,omitempty"`
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, errors.New("server name cannot be empty")
	}
	pl, err := pipeline.New(cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	s := &Server{
		pipeline:   pl,
		sourceOpts: cfg.Source,
		mcpServer: server.NewMCPServer(
			cfg.Name,
			cfg.Version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(ToolBuildSections,
		mcp.WithDescription("Assemble OCR tokens into lines and build hierarchical sections with paragraphs"),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("OCR JSON: a list of pages of {text, bbox, conf} tokens, or {\"pages\": [...]}"),
		),
		mcp.WithBoolean("correct",
			mcp.Description("Correct line text (mixed scripts, headings, terms) before building sections"),
		),
	), s.handleBuildSections)

	s.mcpServer.AddTool(mcp.NewTool(ToolCorrectItems,
		mcp.WithDescription("Correct the text of OCR items, keeping every other key"),
		mcp.WithString("items",
			mcp.Required(),
			mcp.Description("JSON array of objects with a \"text\" key"),
		),
	), s.handleCorrectItems)

	s.mcpServer.AddTool(mcp.NewTool(ToolFixFields,
		mcp.WithDescription("Normalize amount, currency, date, IBAN, BIC and IIN/BIN fields"),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("JSON object of raw field values"),
		),
	), s.handleFixFields)

	s.mcpServer.AddTool(mcp.NewTool(ToolValidateFields,
		mcp.WithDescription("Validate fields and report one check per rule"),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("JSON object of field values"),
		),
		mcp.WithString("text",
			mcp.Description("Raw document text used by the IBAN and BIN presence checks"),
		),
		mcp.WithBoolean("fix",
			mcp.Description("Normalize the fields before validating"),
		),
	), s.handleValidateFields)

	s.mcpServer.AddTool(mcp.NewTool(ToolStructureDocument,
		mcp.WithDescription("Run the full structuring pipeline on an OCR JSON document"),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("OCR JSON document"),
		),
		mcp.WithString("doc_type",
			mcp.Description("Document type reported in the result"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json, yaml or text"),
			mcp.Enum(pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatText),
		),
	), s.handleStructureDocument)
}

// Serve speaks the protocol over in and out until ctx is cancelled or in
// is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	slog.Info("Starting MCP server on stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func (s *Server) handleBuildSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := s.decodeDocument(request)
	if errResult != nil {
		return errResult, nil
	}

	cfg := s.pipeline.Config()
	pageLines := make([][]layout.Line, 0, len(doc.Pages))
	for _, toks := range doc.TokenPages() {
		lines := layout.AssembleLinesWith(toks, cfg.Assembler)
		if request.GetBool("correct", false) {
			lines = s.pipeline.Corrector().CorrectLines(lines)
		}
		pageLines = append(pageLines, lines)
	}
	return jsonResult(sections.BuildFromLines(pageLines, cfg.Sections))
}

func (s *Server) handleCorrectItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var items []map[string]any
	if err := decodeJSON(raw, &items); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid items: %v", err)), nil
	}
	return jsonResult(s.pipeline.Corrector().CorrectRecords(items))
}

func (s *Server) handleFixFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, errResult := fieldsArgument(request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(fields.FixFields(raw))
}

func (s *Server) handleValidateFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, errResult := fieldsArgument(request)
	if errResult != nil {
		return errResult, nil
	}

	fm := fields.FieldMap(raw)
	if request.GetBool("fix", false) {
		fm = fields.FixFields(raw)
	}
	text := request.GetString("text", "")
	checks := fields.ValidateFields(fm, text)

	res := ValidateResult{
		Fields: fm,
		Checks: checks,
		Failed: len(fields.Failed(checks)),
	}
	if text != "" {
		hints := fields.CollectHints(text)
		res.Hints = &hints
	}
	return jsonResult(res)
}

func (s *Server) handleStructureDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := s.decodeDocument(request)
	if errResult != nil {
		return errResult, nil
	}

	pl := s.pipeline
	if docType := request.GetString("doc_type", ""); docType != "" {
		var err error
		pl, err = pipeline.NewBuilder().WithConfig(s.pipeline.Config()).WithDocType(docType).Build()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	res, err := pl.Process(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("structuring failed: %v", err)), nil
	}
	out, err := pipeline.Format(res, request.GetString("format", pipeline.FormatJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) decodeDocument(request mcp.CallToolRequest) (*source.Document, *mcp.CallToolResult) {
	raw, err := request.RequireString("document")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	doc, err := source.Decode([]byte(raw), s.sourceOpts)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to decode document: %v", err))
	}
	return doc, nil
}

func fieldsArgument(request mcp.CallToolRequest) (map[string]string, *mcp.CallToolResult) {
	raw, err := request.RequireString("fields")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	var m map[string]any
	if err := decodeJSON(raw, &m); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid fields: %v", err))
	}
	if m == nil {
		return nil, mcp.NewToolResultError("fields must be a JSON object")
	}
	return fields.FromAny(m), nil
}

func decodeJSON(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	return dec.Decode(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
