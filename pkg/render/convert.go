package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}
}

// ValidFormat reports whether f is a supported output format.
func ValidFormat(f string) bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// ConverterCommand is the librsvg binary used by [ToPDF] and [ToPNG].
var ConverterCommand = "rsvg-convert"

// ErrConverterMissing is returned when rsvg-convert is not installed.
var ErrConverterMissing = errors.New("rsvg-convert not found in PATH")

// ToPDF converts SVG to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "-f", "pdf")
}

// ToPNG converts SVG to PNG. A scale of 2.0 doubles the resolution; values
// <= 0 mean 1.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, "-f", "png", "-z", strconv.FormatFloat(scale, 'f', -1, 64))
}

func convert(ctx context.Context, svg []byte, args ...string) ([]byte, error) {
	path, err := exec.LookPath(ConverterCommand)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUnsupported, ErrConverterMissing,
			"install librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux)")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", ConverterCommand, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", ConverterCommand, err)
	}
	return stdout.Bytes(), nil
}
