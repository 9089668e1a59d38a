package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/forkful/forkful/backend/pkg/apperrors"
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is an upload ready for storage.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Normalize checks size and format, then scales the image down to fit within
// the configured bounds keeping its aspect ratio. JPEG and PNG inputs already
// within bounds are stored as-is; WebP is re-encoded as JPEG.
func Normalize(raw []byte, c Constraints) (*Image, error) {
	if len(raw) == 0 {
		return nil, apperrors.InvalidInput("image is empty")
	}
	if c.MaxBytes > 0 && int64(len(raw)) > c.MaxBytes {
		return nil, apperrors.InvalidInput("image exceeds %d bytes", c.MaxBytes)
	}
	ct := http.DetectContentType(raw)
	if !allowedTypes[ct] {
		return nil, apperrors.InvalidInput("unsupported image format %q (allowed: jpeg, png, webp)", ct)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.InvalidInput("image could not be decoded")
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), c.MaxWidth, c.MaxHeight)
	resized := w != b.Dx() || h != b.Dy()

	if !resized && ct != "image/webp" {
		return &Image{Data: raw, ContentType: ct, Ext: extFor(ct), Width: w, Height: h}, nil
	}

	out := src
	if resized {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if ct == "image/png" {
		if err := png.Encode(&buf, out); err != nil {
			return nil, apperrors.Internal("encode png", err)
		}
	} else {
		ct = "image/jpeg"
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 85}); err != nil {
			return nil, apperrors.Internal("encode jpeg", err)
		}
	}
	return &Image{Data: buf.Bytes(), ContentType: ct, Ext: extFor(ct), Width: w, Height: h}, nil
}

// fit returns the largest size within maxW x maxH with the aspect ratio of
// w x h, never upscaling. Non-positive bounds are unbounded.
func fit(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale == 1.0 {
		return w, h
	}
	nw, nh := int(float64(w)*scale+0.5), int(float64(h)*scale+0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func extFor(ct string) string {
	switch ct {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
