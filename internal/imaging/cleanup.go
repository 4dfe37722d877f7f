package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// CleanupOptions configures the optional noise suppression applied around
// segmentation. A zero value disables every step.
type CleanupOptions struct {
	Enabled bool    `json:"enabled" mapstructure:"enabled"`
	Blur    float64 `json:"blur" mapstructure:"blur"`     // Gaussian radius applied to the frame before segmentation
	Dilate  float64 `json:"dilate" mapstructure:"dilate"` // dilation radius applied to the mask
	Erode   float64 `json:"erode" mapstructure:"erode"`   // erosion radius applied after dilation
}

// maskThreshold is the level above which a smoothed mask pixel is kept.
const maskThreshold = 50

// PrepareFrame blurs the frame when cleanup is enabled with a positive blur
// radius, and returns img unchanged otherwise.
func PrepareFrame(img image.Image, opts CleanupOptions) image.Image {
	if !opts.Enabled || opts.Blur <= 0 {
		return img
	}
	return blur.Gaussian(img, opts.Blur)
}

// CleanupMask closes small gaps in a segmentation mask by dilating and then
// eroding it, and re-binarizes the result.
//
// With cleanup disabled, or both radii zero, the mask is returned as is.
func CleanupMask(mask *image.Gray, opts CleanupOptions) *image.Gray {
	if !opts.Enabled || (opts.Dilate <= 0 && opts.Erode <= 0) {
		return mask
	}

	var img image.Image = mask
	if opts.Dilate > 0 {
		img = effect.Dilate(img, opts.Dilate)
	}
	if opts.Erode > 0 {
		img = effect.Erode(img, opts.Erode)
	}

	bounds := mask.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if uint8(r>>8) > maskThreshold {
				out.SetGray(x, y, color.Gray{Y: MaskOn})
			}
		}
	}
	return out
}
