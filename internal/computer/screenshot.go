package computer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register the PNG decoder for captured frames

	"github.com/disintegration/imaging"
)

const (
	// screenshotMaxBytes is the vision input cap the model endpoint enforces.
	screenshotMaxBytes = 5 * 1024 * 1024

	// resizeScale shrinks the frame when even the lowest quality is too large.
	resizeScale = 0.8

	// resizeQuality is the JPEG quality used after the resize fallback.
	resizeQuality = 60
)

// jpegQualities is the grid of quality levels to try, highest first.
var jpegQualities = []int{85, 75, 65, 55, 45, 35}

// Screenshot is an encoded frame ready for the model endpoint.
type Screenshot struct {
	MediaType string // always "image/jpeg"
	Data      string // base64-encoded JPEG bytes
}

// EncodeScreenshot converts raw captured image bytes into a base64 JPEG
// under the endpoint size cap. It walks decreasing quality levels first,
// then falls back to a Lanczos downscale when the frame is too large even
// at the lowest quality.
func EncodeScreenshot(raw []byte) (*Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	for _, quality := range jpegQualities {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg (q=%d): %w", quality, err)
		}
		if buf.Len() <= screenshotMaxBytes {
			return &Screenshot{
				MediaType: "image/jpeg",
				Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
			}, nil
		}
	}

	// Still too large at the lowest quality: shrink and encode once more.
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * resizeScale)
	h := int(float64(bounds.Dy()) * resizeScale)
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: resizeQuality}); err != nil {
		return nil, fmt.Errorf("encode resized jpeg: %w", err)
	}
	if buf.Len() > screenshotMaxBytes {
		return nil, fmt.Errorf("screenshot too large after resize (%d bytes, %dx%d)", buf.Len(), w, h)
	}
	return &Screenshot{
		MediaType: "image/jpeg",
		Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}
