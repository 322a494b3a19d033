package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/source"
	"github.com/MeKo-Tech/docstruct/internal/store"
)

// requestError carries the HTTP status a request failure maps to.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// structureHandler structures an OCR JSON body or an uploaded JSON/PDF file.
func (s *Server) structureHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	q := r.URL.Query()
	format := q.Get("format")
	if _, ok := contentTypeFor(format); !ok {
		s.writeErrorResponse(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
		return
	}

	doc, label, err := s.readDocument(w, r)
	if err != nil {
		structureRequestsTotal.WithLabelValues(label, "error").Inc()
		s.writeError(w, err)
		return
	}

	pl, err := s.pipelineFor(q.Get("doc_type"), nil)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	res, err := s.structure(ctx, pl, doc, label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, res, format)
}

// readDocument decodes the request body. The label names the input kind
// for metrics.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*source.Document, string, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		doc, err := s.readUpload(r, limit)
		return doc, "upload", err
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "json", bodyError(err)
	}
	uploadSizeBytes.Observe(float64(len(data)))
	doc, err := source.Decode(data, s.sourceOpts)
	if err != nil {
		return nil, "json", badRequest("failed to decode document: %v", err)
	}
	return doc, "json", nil
}

func (s *Server) readUpload(r *http.Request, limit int64) (*source.Document, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, bodyError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("no document file provided")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err)
	}
	uploadSizeBytes.Observe(float64(len(data)))

	opts := s.sourceOpts
	if pages := r.FormValue("pages"); pages != "" {
		opts.PageRange = pages
	}

	var doc *source.Document
	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".json":
		doc, err = source.Decode(data, opts)
	case ".pdf":
		doc, err = decodePDF(data, opts)
	default:
		return nil, &requestError{
			status: http.StatusUnsupportedMediaType,
			msg:    fmt.Sprintf("unsupported file type %q", ext),
		}
	}
	if err != nil {
		return nil, badRequest("failed to decode %s: %v", header.Filename, err)
	}
	doc.Path = header.Filename
	return doc, nil
}

// decodePDF spools an uploaded PDF to disk for the PDF reader.
func decodePDF(data []byte, opts source.Options) (*source.Document, error) {
	tmp, err := os.CreateTemp("", "docstruct-*.pdf")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	doc, err := source.LoadFile(tmp.Name(), opts)
	if err != nil {
		return nil, err
	}
	doc.ID = source.DocumentID(string(data))
	return doc, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: "document too large"}
	}
	return badRequest("failed to read request body: %v", err)
}

// pipelineFor returns the shared pipeline, or a copy carrying a doc type
// override or a progress callback.
func (s *Server) pipelineFor(docType string, progress pipeline.ProgressCallback) (*pipeline.Pipeline, error) {
	if docType == "" && progress == nil {
		return s.pipeline, nil
	}
	b := pipeline.NewBuilder().WithConfig(s.pipeline.Config())
	if docType != "" {
		b = b.WithDocType(docType)
	}
	if progress != nil {
		b = b.WithProgress(progress)
	}
	return b.Build()
}

// structure runs the pipeline, records metrics and persists the result
// when a store is configured.
func (s *Server) structure(ctx context.Context, pl *pipeline.Pipeline, doc *source.Document, label string) (*pipeline.Result, error) {
	start := time.Now()
	res, err := pl.Process(ctx, doc)
	duration := time.Since(start)
	if err != nil {
		structureRequestsTotal.WithLabelValues(label, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &requestError{status: http.StatusGatewayTimeout, msg: "structuring timed out"}
		}
		return nil, err
	}

	structureRequestsTotal.WithLabelValues(label, "success").Inc()
	structureDuration.WithLabelValues(label).Observe(duration.Seconds())
	sectionsProduced.Observe(float64(len(res.Sections)))
	pagesProcessed.Add(float64(res.Meta.Pages))
	recordValidationFailures(res.Checks)
	s.profiler.Record(res)

	if s.store != nil {
		if err := s.store.Save(ctx, res); err != nil {
			slog.Warn("Failed to persist result", "id", res.ID, "error", err)
		}
	}
	return res, nil
}

func recordValidationFailures(checks []fields.ValidationCheck) {
	for _, c := range fields.Failed(checks) {
		validationFailures.WithLabelValues(c.Rule).Inc()
	}
}

// correctHandler corrects OCR items or free text.
func (s *Server) correctHandler(w http.ResponseWriter, r *http.Request) {
	var req CorrectRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Items == nil && req.Text == nil {
		s.writeErrorResponse(w, "items or text is required", http.StatusBadRequest)
		return
	}

	c := s.pipeline.Corrector()
	var resp CorrectResponse
	if req.Items != nil {
		resp.Items = c.CorrectRecords(req.Items)
	}
	if req.Text != nil {
		text := c.FixEachLine(*req.Text)
		resp.Text = &text
	}
	writeJSON(w, http.StatusOK, resp)
}

// fixFieldsHandler normalizes a raw field map.
func (s *Server) fixFieldsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := s.readFieldsRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FieldsResponse{Fields: fields.FixFields(fields.FromAny(req.Fields))})
}

// validateFieldsHandler validates a field map against optional raw text.
func (s *Server) validateFieldsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := s.readFieldsRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fm := fields.FieldMap(fields.FromAny(req.Fields))
	if req.Fix {
		fm = fields.FixFields(fm)
	}
	checks := fields.ValidateFields(fm, req.Text)
	recordValidationFailures(checks)

	resp := FieldsResponse{Fields: fm, Checks: checks, Failed: len(fields.Failed(checks))}
	if req.Text != "" {
		hints := fields.CollectHints(req.Text)
		resp.Hints = &hints
	}
	writeJSON(w, http.StatusOK, resp)
}

// readFieldsRequest accepts {"fields": {...}, "text": "..."} or a bare field map.
func (s *Server) readFieldsRequest(w http.ResponseWriter, r *http.Request) (FieldsRequest, error) {
	var body map[string]any
	if err := s.decodeJSON(w, r, &body); err != nil {
		return FieldsRequest{}, err
	}
	if body == nil {
		return FieldsRequest{}, badRequest("a JSON object is required")
	}

	raw, wrapped := body["fields"].(map[string]any)
	if !wrapped {
		return FieldsRequest{Fields: body}, nil
	}
	req := FieldsRequest{Fields: raw}
	req.Text, _ = body["text"].(string)
	req.Fix, _ = body["fix"].(bool)
	return req, nil
}

func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	opts := store.ListOptions{DocType: q.Get("doc_type")}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeErrorResponse(w, "invalid limit", http.StatusBadRequest)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeErrorResponse(w, "invalid offset", http.StatusBadRequest)
		return
	}

	docs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: docs, Count: len(docs), Total: total})
}

func (s *Server) getDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	format := r.URL.Query().Get("format")
	if _, ok := contentTypeFor(format); !ok {
		s.writeErrorResponse(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
		return
	}
	res, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeResult(w, res, format)
}

func (s *Server) deleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeErrorResponse(w, "result store is disabled", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	return n, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bodyError(err)
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// contentTypeFor maps an output format to its media type.
func contentTypeFor(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "", pipeline.FormatJSON:
		return "application/json", true
	case pipeline.FormatYAML, "yml":
		return "application/yaml", true
	case pipeline.FormatText, "txt":
		return "text/plain; charset=utf-8", true
	}
	return "", false
}

func (s *Server) writeResult(w http.ResponseWriter, res *pipeline.Result, format string) {
	ct, _ := contentTypeFor(format)
	body, err := pipeline.Format(res, format)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Document-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Error("Failed to write result", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		s.writeErrorResponse(w, reqErr.msg, reqErr.status)
		return
	}
	s.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log error, but can't send another response
		slog.Error("Failed to encode response", "error", err)
	}
}
