package geometry

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultCropMargin is the number of pixels SafeCrop adds around a box.
const DefaultCropMargin = 2

// SafeCrop crops img to box expanded by margin pixels. It returns nil
// instead of failing when the image or box is missing or the expanded
// rectangle is empty. A zero-area box still yields a margin-sized crop.
func SafeCrop(img image.Image, box Box, margin int) image.Image {
	if img == nil || box == nil || margin < 0 {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rect, ok := clampBox(box, w, h)
	if !ok {
		return nil
	}
	rect = rect.Expand(margin).Clamp(w, h)
	if rect.Empty() {
		return nil
	}
	// Rect is relative to the image origin; imaging.Crop expects absolute bounds.
	return imaging.Crop(img, rect.ImageRect().Add(b.Min))
}
