package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// Decode parses an OCR JSON dump. Accepted shapes:
//
//	[[token, ...], ...]                       pages of tokens
//	[token, ...]                              a single page
//	[{"tokens": [...], "width": w}, ...]      page objects
//	{"pages": [...], "doc_type": "...", "fields": {...}, "id": "..."}
//	{"tokens": [...]}                         a single page object
//
// A token is an object with text, a box under bbox/box/poly/points and a
// confidence under conf/score/confidence, or a PaddleOCR style array
// [box, [text, score]].
func Decode(data []byte, opts Options) (*Document, error) {
	doc, err := decode(data, opts)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = DocumentID(string(data))
	}
	return doc, nil
}

func decode(data []byte, opts Options) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnsupportedInput, err)
	}

	doc := &Document{}
	var rawPages []any
	switch v := root.(type) {
	case []any:
		rawPages = pagesFromArray(v)
	case map[string]any:
		doc.ID, _ = v["id"].(string)
		doc.DocType, _ = v["doc_type"].(string)
		if raw, ok := v["fields"].(map[string]any); ok {
			doc.Fields = fields.FromAny(raw)
		}
		switch {
		case v["pages"] != nil:
			pages, ok := v["pages"].([]any)
			if !ok {
				return nil, fmt.Errorf("%w: pages must be an array", ErrUnsupportedInput)
			}
			rawPages = pages
		case v["tokens"] != nil:
			rawPages = []any{v}
		}
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", ErrUnsupportedInput)
	}

	doc.Pages = make([]Page, 0, len(rawPages))
	for i, rp := range rawPages {
		page, err := decodePage(rp, i+1)
		if err != nil {
			return nil, err
		}
		page.Tokens = filterTokens(page.Tokens, opts)
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// pagesFromArray tells a list of pages from a single page of tokens.
func pagesFromArray(v []any) []any {
	if len(v) == 0 {
		return nil
	}
	switch first := v[0].(type) {
	case []any:
		if looksLikePaddleToken(first) {
			return []any{v}
		}
		return v
	case map[string]any:
		if _, ok := first["tokens"]; ok {
			return v
		}
	}
	return []any{v}
}

func decodePage(raw any, number int) (Page, error) {
	page := Page{Number: number}
	var tokens []any
	switch v := raw.(type) {
	case []any:
		tokens = v
	case map[string]any:
		if n, ok := intValue(v["number"]); ok && n > 0 {
			page.Number = n
		}
		page.Width, _ = intValue(v["width"])
		page.Height, _ = intValue(v["height"])
		if v["tokens"] != nil {
			list, ok := v["tokens"].([]any)
			if !ok {
				return Page{}, fmt.Errorf("%w: page %d tokens must be an array", ErrUnsupportedInput, number)
			}
			tokens = list
		}
	case nil:
	default:
		return Page{}, fmt.Errorf("%w: page %d must be an array or object", ErrUnsupportedInput, number)
	}

	page.Tokens = make([]layout.Token, 0, len(tokens))
	for _, rt := range tokens {
		tok, ok := decodeToken(rt, page.Width, page.Height)
		if !ok {
			slog.Debug("Skipping malformed token", "page", page.Number)
			continue
		}
		page.Tokens = append(page.Tokens, tok)
	}
	return page, nil
}

func decodeToken(raw any, w, h int) (layout.Token, bool) {
	var (
		text  string
		box   any
		conf  = 1.0
		found bool
	)
	switch v := raw.(type) {
	case map[string]any:
		text, found = v["text"].(string)
		for _, key := range []string{"bbox", "box", "poly", "points"} {
			if b, ok := v[key]; ok {
				box = b
				break
			}
		}
		for _, key := range []string{"conf", "score", "confidence"} {
			if c, ok := floatValue(v[key]); ok {
				conf = c
				break
			}
		}
	case []any:
		if !looksLikePaddleToken(v) {
			return layout.Token{}, false
		}
		box = v[0]
		switch rec := v[1].(type) {
		case []any:
			if len(rec) > 0 {
				text, found = rec[0].(string)
			}
			if len(rec) > 1 {
				if c, ok := floatValue(rec[1]); ok {
					conf = c
				}
			}
		case string:
			text, found = rec, true
			if len(v) > 2 {
				if c, ok := floatValue(v[2]); ok {
					conf = c
				}
			}
		}
	}
	if !found {
		return layout.Token{}, false
	}

	tok := layout.Token{Text: text, Confidence: conf}
	parsed := geometry.BoxFromValue(numbersToFloat(box))
	var (
		rect geometry.Rect
		ok   bool
	)
	if w > 0 && h > 0 {
		rect, ok = geometry.Normalize(parsed, w, h)
	} else {
		rect, ok = geometry.Bounds(parsed)
	}
	if ok {
		tok.BBox = &rect
	}
	return tok, true
}

// looksLikePaddleToken matches [box, [text, score]] and [box, text, score].
func looksLikePaddleToken(v []any) bool {
	if len(v) < 2 {
		return false
	}
	if _, ok := v[0].([]any); !ok {
		return false
	}
	switch rec := v[1].(type) {
	case string:
		return true
	case []any:
		if len(rec) > 0 {
			_, ok := rec[0].(string)
			return ok
		}
	}
	return false
}

// filterTokens cleans token text, drops empty tokens and, when enabled,
// short tokens with low confidence.
func filterTokens(tokens []layout.Token, opts Options) []layout.Token {
	out := tokens[:0]
	for _, t := range tokens {
		t.Text = textutil.Clean(t.Text, opts.Clean)
		if t.Text == "" {
			continue
		}
		if opts.MinConfidence > 0 && t.Confidence < opts.MinConfidence && textutil.RuneLen(t.Text) < ShortTokenRunes {
			continue
		}
		out = append(out, t)
	}
	return out
}

// numbersToFloat converts json.Number values so downstream decoders see float64.
func numbersToFloat(v any) any {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = numbersToFloat(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = numbersToFloat(e)
		}
		return out
	}
	return v
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

func intValue(v any) (int, bool) {
	f, ok := floatValue(v)
	return int(f), ok
}
