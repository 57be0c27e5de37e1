package doctpl_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/lvillar/quotepdf/doctpl"
)

func TestSniffImage(t *testing.T) {
	tests := []struct {
		in   []byte
		want doctpl.ImageFormat
	}{
		{[]byte("\x89PNG\r\n\x1a\nrest"), doctpl.ImagePNG},
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, doctpl.ImageJPEG},
		{[]byte("GIF89a..."), doctpl.ImageGIF},
		{[]byte("BM...."), doctpl.ImageBMP},
		{[]byte("II*\x00...."), doctpl.ImageTIFF},
		{[]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), doctpl.ImageWEBP},
		{[]byte("<svg/>"), doctpl.ImageUnknown},
		{nil, doctpl.ImageUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, doctpl.SniffImage(tt.in), "%q", tt.in)
	}
}

func TestDecodeLogoPNG(t *testing.T) {
	logo, err := doctpl.DecodeLogo(pngBase64(t, 40, 10))
	require.NoError(t, err)
	assert.Equal(t, doctpl.ImagePNG, logo.Format)
	assert.Equal(t, 40, logo.Width)
	assert.Equal(t, 10, logo.Height)

	w, h := logo.ScaleToFit(150, 60)
	assert.Equal(t, 150.0, w)
	assert.Equal(t, 37.5, h)
}

func TestDecodeLogoDataURL(t *testing.T) {
	logo, err := doctpl.DecodeLogo("  data:image/png;base64," + pngBase64(t, 2, 2) + "\n")
	require.NoError(t, err)
	assert.Equal(t, 2, logo.Width)
}

func TestDecodeLogoConvertsBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 5))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	logo, err := doctpl.DecodeLogo(base64.StdEncoding.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, doctpl.ImagePNG, logo.Format)
	assert.Equal(t, doctpl.ImagePNG, doctpl.SniffImage(logo.Data))
	assert.Equal(t, 3, logo.Width)
	assert.Equal(t, 5, logo.Height)
}

func TestDecodeLogoErrors(t *testing.T) {
	_, err := doctpl.DecodeLogo("%%% not base64")
	assert.Error(t, err)

	_, err = doctpl.DecodeLogo(base64.StdEncoding.EncodeToString([]byte("<svg/>")))
	assert.ErrorIs(t, err, doctpl.ErrUnknownImage)

	// valid signature, truncated body
	_, err = doctpl.DecodeLogo(base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n")))
	assert.Error(t, err)
}
