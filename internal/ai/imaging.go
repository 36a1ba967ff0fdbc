package ai

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// Downscale decodes an image, shrinks it so its longer side is at most
// maxDim pixels (never enlarging) and re-encodes it as JPEG.
func Downscale(data []byte, maxDim, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load image for processing: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := FitWithin(w, h, maxDim)
	if nw != w || nh != h {
		img = resize.Resize(uint(nw), uint(nh), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// FitWithin scales w x h so the longer side is at most maxDim, keeping the
// aspect ratio. Square images are bounded by height.
func FitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 {
		return w, h
	}
	if w > h {
		if w > maxDim {
			h = scaleSide(h, maxDim, w)
			w = maxDim
		}
	} else if h > maxDim {
		w = scaleSide(w, maxDim, h)
		h = maxDim
	}
	return w, h
}

func scaleSide(side, target, longer int) int {
	v := int(math.Round(float64(side) * float64(target) / float64(longer)))
	if v < 1 {
		return 1
	}
	return v
}
