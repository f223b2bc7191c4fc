// Package captcha generates short one-time text challenges and renders them
// into deliberately noisy raster images.
package captcha

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/big"
	mathrand "math/rand/v2"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Alphabet excludes glyphs that read ambiguously in a noisy raster
// (0/O, 1/I/l).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// ChallengeLength is the number of characters in a generated challenge.
const ChallengeLength = 4

const (
	imageWidth  = 120
	imageHeight = 40

	glyphScale        = 2
	interferenceLines = 5
	noisePixels       = 50
)

// NewChallengeText returns a fresh challenge drawn from Alphabet using a
// cryptographically secure random source.
func NewChallengeText() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, ChallengeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("captcha: generate text: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Render rasterizes the challenge text into a 120x40 PNG with per-glyph color
// and offset jitter, crossing interference lines, and noise pixels. The
// distortion is cosmetic anti-OCR hardening and intentionally not
// deterministic.
func Render(text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	for y := 0; y < imageHeight; y++ {
		for x := 0; x < imageWidth; x++ {
			img.Set(x, y, color.White)
		}
	}

	face := basicfont.Face7x13
	for i, r := range text {
		glyphColor := color.RGBA{
			R: uint8(mathrand.IntN(128)),
			G: uint8(mathrand.IntN(128)),
			B: uint8(mathrand.IntN(128)),
			A: 255,
		}
		x := 20 + i*20 + mathrand.IntN(5)
		y := 6 + mathrand.IntN(10)
		drawGlyph(img, face, r, glyphColor, x, y)
	}

	for i := 0; i < interferenceLines; i++ {
		lineColor := color.RGBA{
			R: uint8(mathrand.IntN(200)),
			G: uint8(mathrand.IntN(200)),
			B: uint8(mathrand.IntN(200)),
			A: 255,
		}
		drawLine(img,
			mathrand.IntN(imageWidth), mathrand.IntN(imageHeight),
			mathrand.IntN(imageWidth), mathrand.IntN(imageHeight),
			lineColor)
	}

	for i := 0; i < noisePixels; i++ {
		img.Set(mathrand.IntN(imageWidth), mathrand.IntN(imageHeight), color.RGBA{
			R: uint8(mathrand.IntN(256)),
			G: uint8(mathrand.IntN(256)),
			B: uint8(mathrand.IntN(256)),
			A: 255,
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("captcha: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps encoded PNG bytes for embedding in a JSON response.
func DataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// drawGlyph renders a single rune scaled up into the destination at (x, y).
func drawGlyph(dst *image.RGBA, face *basicfont.Face, r rune, col color.Color, x, y int) {
	bounds := image.Rect(0, 0, face.Width, face.Ascent+face.Descent)
	glyph := image.NewRGBA(bounds)

	drawer := font.Drawer{
		Dst:  glyph,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(string(r))

	for gy := bounds.Min.Y; gy < bounds.Max.Y; gy++ {
		for gx := bounds.Min.X; gx < bounds.Max.X; gx++ {
			_, _, _, a := glyph.At(gx, gy).RGBA()
			if a == 0 {
				continue
			}
			for dy := 0; dy < glyphScale; dy++ {
				for dx := 0; dx < glyphScale; dx++ {
					dst.Set(x+gx*glyphScale+dx, y+gy*glyphScale+dy, col)
				}
			}
		}
	}
}

// drawLine plots a straight segment using integer interpolation.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.Color) {
	dx := x2 - x1
	dy := y2 - y1
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		dst.Set(x1, y1, col)
		return
	}

	for i := 0; i <= steps; i++ {
		x := x1 + dx*i/steps
		y := y1 + dy*i/steps
		dst.Set(x, y, col)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
