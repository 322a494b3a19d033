// Package geometry normalizes OCR bounding boxes and crops page images.
package geometry

import (
	"encoding/json"
	"fmt"
	"image"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an integer left/top/right/bottom rectangle with Left<=Right and Top<=Bottom.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the rectangle width.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() int { return r.Bottom - r.Top }

// CenterY returns the vertical center.
func (r Rect) CenterY() float64 { return float64(r.Top+r.Bottom) / 2 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Expand grows the rectangle by margin pixels on every side.
func (r Rect) Expand(margin int) Rect {
	return Rect{Left: r.Left - margin, Top: r.Top - margin, Right: r.Right + margin, Bottom: r.Bottom + margin}
}

// Clamp limits the rectangle to [0,w]x[0,h].
func (r Rect) Clamp(w, h int) Rect {
	return Rect{
		Left:   clampInt(r.Left, 0, w),
		Top:    clampInt(r.Top, 0, h),
		Right:  clampInt(r.Right, 0, w),
		Bottom: clampInt(r.Bottom, 0, h),
	}
}

// ImageRect converts to an image.Rectangle.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// UnionAll returns the union of all rects, or false when rects is empty.
func UnionAll(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MarshalJSON encodes the rectangle as [left, top, right, bottom].
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.Left, r.Top, r.Right, r.Bottom})
}

// UnmarshalJSON decodes a [left, top, right, bottom] array.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rect: %w", err)
	}
	*r = ordered(v[0], v[1], v[2], v[3])
	return nil
}
