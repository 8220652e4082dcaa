package apiapp

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"net/http"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"

	_ "image/gif"
	_ "image/jpeg"
)

// Evidence photos ride along on judgment decisions as data URIs; keeping
// them under this edge bounds the in-memory session footprint.
const maxPhotoEdge = 512

// processEvidencePhoto decodes an uploaded photo, downscales it so the
// longer edge fits maxPhotoEdge, and returns it as a PNG data URI.
func processEvidencePhoto(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("photo file is empty")
	}
	mime := http.DetectContentType(raw)
	switch mime {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
	default:
		return "", errors.New("photo must be png, jpeg, gif, or webp")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if decoded, decodeErr := webp.Decode(bytes.NewReader(raw)); decodeErr == nil {
			img = decoded
		} else {
			return "", errors.New("unable to decode photo")
		}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", errors.New("invalid image dimensions")
	}

	outW, outH := width, height
	if width > maxPhotoEdge || height > maxPhotoEdge {
		if width >= height {
			outW = maxPhotoEdge
			outH = height * maxPhotoEdge / width
		} else {
			outH = maxPhotoEdge
			outW = width * maxPhotoEdge / height
		}
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
	}

	resized := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return "", errors.New("unable to encode photo")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(out.Bytes()), nil
}
