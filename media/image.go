package media

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Uploaded photos are bounded to this box, mirroring the hosted-media
// transformation the frontend expects.
const maxImageDim = 1200

// NormalizeImage decodes an uploaded image, shrinks it to fit within
// maxImageDim on both axes, and re-encodes it as JPEG.
func NormalizeImage(r io.Reader) (io.Reader, string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDim || bounds.Dy() > maxImageDim {
		img = imaging.Fit(img, maxImageDim, maxImageDim, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf, "image/jpeg", nil
}
