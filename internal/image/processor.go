// Package image validates and normalises downloaded artwork.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Supported image format names.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// DefaultJPEGQuality is used when artwork has to be re-encoded.
const DefaultJPEGQuality = 90

// DetectFormat reads the first bytes from r to identify the image format.
// Returns "jpeg", "png", or "webp". The returned reader replays the consumed bytes.
func DetectFormat(r io.Reader) (format string, replay io.Reader, err error) {
	buf := make([]byte, 12)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("reading header: %w", err)
	}
	buf = buf[:n]

	replay = io.MultiReader(bytes.NewReader(buf), r)

	if n >= 3 && buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF {
		return FormatJPEG, replay, nil
	}
	if n >= 8 && string(buf[:8]) == "\x89PNG\r\n\x1a\n" {
		return FormatPNG, replay, nil
	}
	if n >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WEBP" {
		return FormatWebP, replay, nil
	}

	return "", replay, fmt.Errorf("unrecognized image format")
}

// Info describes a validated image.
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect checks that data is a decodable JPEG, PNG or WebP image and
// returns its format and dimensions. Only the header is decoded.
func Inspect(data []byte) (*Info, error) {
	format, replay, err := DetectFormat(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(replay)
	if err != nil {
		return nil, fmt.Errorf("decoding %s config: %w", format, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("empty %s image", format)
	}
	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ToJPEG returns data as a JPEG no larger than maxDim on either side.
// A JPEG that already fits is returned unchanged. maxDim <= 0 disables
// scaling.
func ToJPEG(data []byte, maxDim int) ([]byte, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}

	newW, newH := info.Width, info.Height
	if maxDim > 0 {
		newW, newH = fitDimensions(info.Width, info.Height, maxDim, maxDim)
	}
	if info.Format == FormatJPEG && newW == info.Width && newH == info.Height {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Flatten onto white so transparent PNG/WebP areas do not turn black.
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: DefaultJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitDimensions calculates the scaled dimensions that fit within maxW x maxH
// while preserving the aspect ratio. If the image already fits, returns original dimensions.
func fitDimensions(origW, origH, maxW, maxH int) (int, int) {
	if origW <= maxW && origH <= maxH {
		return origW, origH
	}

	ratio := math.Min(float64(maxW)/float64(origW), float64(maxH)/float64(origH))

	newW := max(int(math.Round(float64(origW)*ratio)), 1)
	newH := max(int(math.Round(float64(origH)*ratio)), 1)
	return newW, newH
}
