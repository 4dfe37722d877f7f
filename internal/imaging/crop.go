package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	Region      Rect   `json:"region"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropAround extracts a square of side 2*half+1 centered on p, clamped to the
// image, and optionally scales it. Reviewers use it to inspect a tag up close.
func CropAround(img image.Image, p Point, half int, scale float64) (*CropResult, error) {
	if half <= 0 {
		return nil, fmt.Errorf("invalid crop size %d", half)
	}
	bounds := img.Bounds()
	r := ClampRect(Rect{X1: p.X - half, Y1: p.Y - half, X2: p.X + half, Y2: p.Y + half}, bounds.Dx(), bounds.Dy())
	if r.Empty() {
		return nil, fmt.Errorf("crop around (%d,%d) lies outside image bounds %dx%d", p.X, p.Y, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, image.Rect(
		r.X1+bounds.Min.X, r.Y1+bounds.Min.Y,
		r.X2+1+bounds.Min.X, r.Y2+1+bounds.Min.Y,
	))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth > 0 && newHeight > 0 {
			cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
		}
	}

	encoded, err := encodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Region:      r,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
