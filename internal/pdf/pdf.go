// Package pdf renders Markdown documents such as conversation transcripts to PDF.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// Theme selects the colour scheme of the rendered document.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) mdtopdf() (mdtopdf.Theme, error) {
	switch t {
	case "", ThemeLight:
		return mdtopdf.LIGHT, nil
	case ThemeDark:
		return mdtopdf.DARK, nil
	}
	return mdtopdf.LIGHT, fmt.Errorf("unknown theme %q", t)
}

// Render writes markdown as an A4 portrait PDF at pdfPath and returns its absolute path.
// Parent directories are created when missing.
//
// The built-in PDF fonts only cover Latin text, so Hangul is not rendered legibly.
func Render(markdown []byte, pdfPath string, theme Theme) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}
	pdfTheme, err := theme.mdtopdf()
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(pdfPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, pdfTheme)
	if err := renderer.Process(markdown); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
