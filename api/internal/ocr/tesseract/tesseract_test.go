package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/ocr"
)

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	e := New("eng")
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ocr.ErrNoFile},
		{"corrupt", []byte("definitely not an image"), ocr.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.want)
			}
			if k := apperr.KindOf(err); k != apperr.KindInput {
				t.Fatalf("KindOf() = %v, want input", k)
			}
		})
	}
}

func TestExtractRecognizesText(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 320, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Ann has 12 apples")

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	text, err := New("eng").Extract(context.Background(), buf.Bytes())
	if errors.Is(err, ocr.ErrEmptyText) {
		t.Skip("tesseract could not read the bitmap font at this size")
	}
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != strings.TrimSpace(text) || text == "" {
		t.Fatalf("Extract() = %q, want trimmed non-empty text", text)
	}
}
