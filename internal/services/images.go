package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageWidth  = 800
	JPEGQuality    = 80
	MaxUploadBytes = 10 << 20
)

// ProcessedImage is an upload re-encoded as JPEG.
type ProcessedImage struct {
	Data   []byte
	Width  int
	Height int
}

// NormalizeImage decodes a JPEG, PNG, GIF or WebP image, scales it down to
// MaxImageWidth when wider and re-encodes it as JPEG.
func NormalizeImage(src io.Reader) (ProcessedImage, error) {
	limited := io.LimitReader(src, MaxUploadBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return ProcessedImage{}, ErrBadRequest("El archivo está vacío.")
	}
	if len(raw) > MaxUploadBytes {
		return ProcessedImage{}, ErrBadRequest("La imagen supera el tamaño máximo de 10MB.")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ProcessedImage{}, ErrBadRequest("El archivo no es una imagen válida.")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > MaxImageWidth {
		newH := h * MaxImageWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = MaxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return ProcessedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return ProcessedImage{Data: buf.Bytes(), Width: w, Height: h}, nil
}
