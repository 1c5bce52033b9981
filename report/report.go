// Package report turns the Markdown report of a run into a printable PDF.
// The layout is deliberately plain: a monospace body with larger headings,
// bold markers stripped and list stars turned into bullets.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ErrMarkdownNotFound is returned when the Markdown source does not exist.
var ErrMarkdownNotFound = errors.New("markdown file not found")

// Line is one rendered line of the report. Level is 1-3 for headings and 0
// for body text.
type Line struct {
	Text  string
	Level int
}

var headingSizes = map[int]float64{0: 10, 1: 18, 2: 14, 3: 12}

// Lines converts Markdown into rendered lines.
func Lines(md string) []Line {
	raw := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	out := make([]Line, 0, len(raw))
	for _, l := range raw {
		level := 0
		for i, prefix := range []string{"# ", "## ", "### "} {
			if strings.HasPrefix(l, prefix) {
				level = i + 1
				l = strings.TrimPrefix(l, prefix)
				break
			}
		}
		l = strings.ReplaceAll(l, "**", "")
		l = strings.ReplaceAll(l, "* ", "• ")
		out = append(out, Line{Text: l, Level: level})
	}
	return out
}

// Write renders md as PDF into w.
func Write(w io.Writer, md string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, l := range Lines(md) {
		size := headingSizes[l.Level]
		style := ""
		if l.Level > 0 {
			style = "B"
		}
		pdf.SetFont("Courier", style, size)
		if l.Text == "" {
			pdf.Ln(size / 2)
			continue
		}
		pdf.MultiCell(0, size*0.5, tr(l.Text), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// ExportPDF reads the Markdown file at mdPath and writes the PDF to pdfPath,
// creating its parent directory if needed.
func ExportPDF(mdPath, pdfPath string) error {
	md, err := os.ReadFile(mdPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMarkdownNotFound, mdPath)
		}
		return fmt.Errorf("read markdown: %w", err)
	}

	if dir := filepath.Dir(pdfPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := Write(f, string(md)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
