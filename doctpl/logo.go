package doctpl

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ImageFormat is a raster format identified by its signature.
type ImageFormat int

// Recognized image formats.
const (
	ImageUnknown ImageFormat = iota
	ImagePNG
	ImageJPEG
	ImageGIF
	ImageBMP
	ImageTIFF
	ImageWEBP
)

func (f ImageFormat) String() string {
	switch f {
	case ImagePNG:
		return "png"
	case ImageJPEG:
		return "jpeg"
	case ImageGIF:
		return "gif"
	case ImageBMP:
		return "bmp"
	case ImageTIFF:
		return "tiff"
	case ImageWEBP:
		return "webp"
	}
	return "unknown"
}

func (f ImageFormat) fpdfType() string {
	switch f {
	case ImageJPEG:
		return "JPG"
	case ImageGIF:
		return "GIF"
	}
	return "PNG"
}

// ErrUnknownImage is returned for payloads with no recognized signature.
var ErrUnknownImage = errors.New("doctpl: unrecognized image format")

// SniffImage identifies the image format from its leading bytes.
func SniffImage(b []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return ImagePNG
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return ImageJPEG
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return ImageGIF
	case bytes.HasPrefix(b, []byte("BM")):
		return ImageBMP
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return ImageTIFF
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return ImageWEBP
	}
	return ImageUnknown
}

// Logo is an image ready to embed: PNG, JPEG or GIF bytes plus pixel size.
type Logo struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}

// ScaleToFit returns the largest size with the logo's aspect ratio that fits
// inside maxW x maxH.
func (l *Logo) ScaleToFit(maxW, maxH float64) (w, h float64) {
	if l.Width <= 0 || l.Height <= 0 {
		return maxW, maxH
	}
	scale := min(maxW/float64(l.Width), maxH/float64(l.Height))
	return float64(l.Width) * scale, float64(l.Height) * scale
}

// DecodeLogo decodes a base64 payload, optionally carrying a data URL
// prefix. BMP, TIFF and WEBP images are converted to PNG.
func DecodeLogo(payload string) (*Logo, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("doctpl: logo is not valid base64: %w", err)
		}
	}

	format := SniffImage(raw)
	switch format {
	case ImagePNG, ImageJPEG, ImageGIF:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("doctpl: decoding %s logo: %w", format, err)
		}
		return &Logo{Data: raw, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	case ImageBMP, ImageTIFF, ImageWEBP:
		img, err := decodeOther(format, raw)
		if err != nil {
			return nil, fmt.Errorf("doctpl: decoding %s logo: %w", format, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("doctpl: converting %s logo: %w", format, err)
		}
		b := img.Bounds()
		return &Logo{Data: buf.Bytes(), Format: ImagePNG, Width: b.Dx(), Height: b.Dy()}, nil
	}
	return nil, ErrUnknownImage
}

func decodeOther(format ImageFormat, raw []byte) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch format {
	case ImageBMP:
		return bmp.Decode(r)
	case ImageTIFF:
		return tiff.Decode(r)
	default:
		return webp.Decode(r)
	}
}
