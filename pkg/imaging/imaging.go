package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Errors surfaced to callers; the HTTP layer maps both to 400.
var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidImage    = errors.New("invalid image file")
)

// OutputContentType is the content type of every transcoded avatar.
const OutputContentType = "image/jpeg"

// allowedTypes is the declared-MIME allowlist for uploads. Anything else is
// rejected before a single byte is decoded.
var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Allowed reports whether the declared content type may be uploaded.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}

// Transcoder decodes an uploaded image and re-encodes it as a Size x Size
// JPEG using center-crop-to-fill semantics.
type Transcoder struct {
	Size    int // output square edge in pixels
	Quality int // JPEG quality
}

func NewTranscoder(size, quality int) *Transcoder {
	return &Transcoder{Size: size, Quality: quality}
}

// Transcode decodes data (JPEG, PNG, WebP, or GIF), center-crops it to a
// square, scales it to Size x Size, and re-encodes it as JPEG.
func (t *Transcoder) Transcode(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrInvalidImage
	}

	cropped := centerCropSquare(img)

	dst := image.NewRGBA(image.Rect(0, 0, t.Size, t.Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// centerCropSquare crops img to its largest centered square. The shorter
// dimension determines the crop; aspect ratio is not preserved downstream.
func centerCropSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == h {
		return img
	}

	var cropRect image.Rectangle
	if w > h {
		x := bounds.Min.X + (w-h)/2
		cropRect = image.Rect(x, bounds.Min.Y, x+h, bounds.Min.Y+h)
	} else {
		y := bounds.Min.Y + (h-w)/2
		cropRect = image.Rect(bounds.Min.X, y, bounds.Min.X+w, y+w)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, cropRect.Min, draw.Src)
	return cropped
}
