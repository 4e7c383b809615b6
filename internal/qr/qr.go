// Package qr renders URLs as QR code PNG images embedded in data URLs.
package qr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/boombuler/barcode/qr"
)

// ErrEncode is returned when content cannot be turned into a QR code,
// typically because it exceeds the symbol capacity.
var ErrEncode = errors.New("qr encode failed")

const dataURLPrefix = "data:image/png;base64,"

// Options are the fixed encoder parameters. Identical options and content always
// produce identical images.
type Options struct {
	Level  qr.ErrorCorrectionLevel
	Size   int // target width in pixels
	Margin int // quiet zone in modules
	Dark   color.Color
	Light  color.Color
}

// DefaultOptions: medium error correction, 256px, one-module margin, black on white.
func DefaultOptions() Options {
	return Options{
		Level:  qr.M,
		Size:   256,
		Margin: 1,
		Dark:   color.Black,
		Light:  color.White,
	}
}

// Generator encodes strings as QR codes.
type Generator struct {
	opts Options
}

// NewGenerator returns a Generator using opts.
func NewGenerator(opts Options) *Generator {
	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	}
	if opts.Dark == nil {
		opts.Dark = color.Black
	}
	if opts.Light == nil {
		opts.Light = color.White
	}
	return &Generator{opts: opts}
}

// Generate returns content as a base64 PNG data URL.
func (g *Generator) Generate(content string) (string, error) {
	img, err := g.Image(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: png: %w", ErrEncode, err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Image renders content onto a two-colour paletted image. Each module is scaled
// by the largest integer factor that keeps the image within Size; very dense
// codes fall back to one pixel per module.
func (g *Generator) Image(content string) (*image.Paletted, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrEncode)
	}
	code, err := qr.Encode(content, g.opts.Level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	modules := code.Bounds().Dx()
	total := modules + 2*g.opts.Margin
	scale := g.opts.Size / total
	if scale < 1 {
		scale = 1
	}
	side := total * scale

	// Index 0 is the background, so a fresh image is already light.
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{g.opts.Light, g.opts.Dark})
	offset := g.opts.Margin * scale
	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			if !isDark(code.At(x, y)) {
				continue
			}
			x0, y0 := offset+x*scale, offset+y*scale
			for py := y0; py < y0+scale; py++ {
				for px := x0; px < x0+scale; px++ {
					img.SetColorIndex(px, py, 1)
				}
			}
		}
	}
	return img, nil
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 < 0x8000
}

// Decode strips the data URL wrapper and returns the PNG image.
func Decode(dataURL string) (image.Image, error) {
	if len(dataURL) < len(dataURLPrefix) || dataURL[:len(dataURLPrefix)] != dataURLPrefix {
		return nil, errors.New("not a png data url")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[len(dataURLPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return png.Decode(bytes.NewReader(raw))
}
