package geometry

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Box is one of the bounding-box encodings OCR engines emit: Quad, XYWH or Corners.
type Box interface {
	// ltrb returns the raw left/top/right/bottom extent before clamping.
	ltrb() (l, t, r, b float64)
}

// Quad is a polygon of corner points, usually four.
type Quad []Point

// XYWH is an origin plus size encoding.
type XYWH struct {
	X, Y, W, H float64
}

// Corners is a two-corner [x1,y1,x2,y2] encoding.
type Corners struct {
	X1, Y1, X2, Y2 float64
}

func (q Quad) ltrb() (l, t, r, b float64) {
	if len(q) == 0 {
		return 0, 0, 0, 0
	}
	l, t, r, b = q[0].X, q[0].Y, q[0].X, q[0].Y
	for _, p := range q[1:] {
		l = min(l, p.X)
		t = min(t, p.Y)
		r = max(r, p.X)
		b = max(b, p.Y)
	}
	return l, t, r, b
}

func (x XYWH) ltrb() (l, t, r, b float64) {
	return x.X, x.Y, x.X + x.W, x.Y + x.H
}

func (c Corners) ltrb() (l, t, r, b float64) {
	return c.X1, c.Y1, c.X2, c.Y2
}

// Bounds converts a box to integer coordinates without clamping, swapping inverted edges.
// Used where page dimensions are unknown.
func Bounds(box Box) (Rect, bool) {
	if box == nil {
		return Rect{}, false
	}
	if q, ok := box.(Quad); ok && len(q) == 0 {
		return Rect{}, false
	}
	l, t, r, b := box.ltrb()
	return ordered(int(l), int(t), int(r), int(b)), true
}

// Normalize converts a box into a Rect clamped to an image of size w x h.
// Left/top are clamped to [0,dim-1] and right/bottom to [0,dim]. It reports
// false for nil boxes, non-positive image sizes and degenerate results.
func Normalize(box Box, w, h int) (Rect, bool) {
	rect, ok := clampBox(box, w, h)
	if !ok || rect.Empty() {
		return Rect{}, false
	}
	return rect, true
}

// clampBox clamps and orders box like Normalize but keeps zero-area results.
func clampBox(box Box, w, h int) (Rect, bool) {
	if box == nil || w <= 0 || h <= 0 {
		return Rect{}, false
	}
	if q, ok := box.(Quad); ok && len(q) == 0 {
		return Rect{}, false
	}
	l, t, r, b := box.ltrb()
	return ordered(
		clampInt(int(l), 0, w-1),
		clampInt(int(t), 0, h-1),
		clampInt(int(r), 0, w),
		clampInt(int(b), 0, h),
	), true
}

func ordered(l, t, r, b int) Rect {
	if r < l {
		l, r = r, l
	}
	if b < t {
		t, b = b, t
	}
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// ParseBox decodes a JSON bounding box in any supported encoding:
// an object with x/y/w/h (or left/top/width/height), an array of [x,y]
// points, or a flat array of four numbers. Unrecognized shapes yield nil.
func ParseBox(raw json.RawMessage) Box {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return BoxFromValue(v)
}

// BoxFromValue converts an already decoded JSON value into a Box.
func BoxFromValue(v any) Box {
	switch val := v.(type) {
	case map[string]any:
		return XYWH{
			X: lookup(val, "x", "left"),
			Y: lookup(val, "y", "top"),
			W: lookup(val, "w", "width"),
			H: lookup(val, "h", "height"),
		}
	case []any:
		if len(val) == 0 {
			return nil
		}
		if _, nested := val[0].([]any); nested {
			return quadFromValues(val)
		}
		if len(val) != 4 {
			return nil
		}
		nums := make([]float64, 4)
		for i, n := range val {
			f, ok := toFloat(n)
			if !ok {
				return nil
			}
			nums[i] = f
		}
		return Corners{X1: nums[0], Y1: nums[1], X2: nums[2], Y2: nums[3]}
	}
	return nil
}

func quadFromValues(vals []any) Box {
	q := make(Quad, 0, len(vals))
	for _, p := range vals {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			return nil
		}
		x, okx := toFloat(pair[0])
		y, oky := toFloat(pair[1])
		if !okx || !oky {
			return nil
		}
		q = append(q, Point{X: x, Y: y})
	}
	return q
}

func lookup(m map[string]any, key, alias string) float64 {
	if v, ok := m[key]; ok {
		f, _ := toFloat(v)
		return f
	}
	f, _ := toFloat(m[alias])
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
