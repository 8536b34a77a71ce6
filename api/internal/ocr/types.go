package ocr

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"math-templater/api/internal/apperr"
)

var (
	ErrNoFile      = errors.New("no file provided")
	ErrDecode      = errors.New("cannot decode image")
	ErrRecognition = errors.New("text recognition failed")
	ErrProcessing  = errors.New("recognition service reported a processing error")
	ErrEmptyText   = errors.New("no problem text recognized")
)

// CheckImage verifies that b is a decodable image and returns its format.
func CheckImage(op string, b []byte) (string, error) {
	if len(b) == 0 {
		return "", apperr.E(apperr.KindInput, op, ErrNoFile)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInput, op, ErrDecode, err)
	}
	return format, nil
}

// Recognition wraps a backend or transport failure.
func Recognition(op string, err error) error {
	return apperr.Wrap(apperr.KindExternal, op, ErrRecognition, err)
}

// Processing wraps an error the remote service reported about the image.
func Processing(op string, msg string) error {
	return apperr.Wrap(apperr.KindExternal, op, ErrProcessing, errors.New(msg))
}

// Finish trims recognized text and rejects an empty result.
func Finish(op, text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", apperr.E(apperr.KindInput, op, ErrEmptyText)
	}
	return t, nil
}
