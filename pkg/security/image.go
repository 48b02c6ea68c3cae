package security

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// NormalizeImage decodes a PNG or JPEG, scales it down so that neither side
// exceeds maxSide, and re-encodes it as JPEG. Re-encoding drops any payload
// smuggled after the image data along with EXIF metadata.
func NormalizeImage(data []byte, maxSide int, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	newW, newH := w, h
	if w > maxSide || h > maxSide {
		if w >= h {
			newW = maxSide
			newH = h * maxSide / w
		} else {
			newH = maxSide
			newW = w * maxSide / h
		}
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	// JPEG has no alpha; paint transparent regions white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
