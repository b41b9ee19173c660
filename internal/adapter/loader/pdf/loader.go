// Package pdf reads per-page plain text out of a PDF file.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/fairyhunter13/ai-career-guide/pkg/textx"
)

// Page is the text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
	Source string
}

// ErrNotPDF is returned when the file content is not a PDF.
var ErrNotPDF = errors.New("not a pdf document")

// Loader extracts page text from PDF files on disk.
type Loader struct{}

// New returns a Loader.
func New() *Loader { return &Loader{} }

// Load returns the non-empty pages of the PDF at path.
func (l *Loader) Load(path string) (pages []Page, err error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=pdf.Load: %w", err)
	}
	if !mt.Is("application/pdf") {
		return nil, fmt.Errorf("op=pdf.Load: %w: detected %s", ErrNotPDF, mt.String())
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("op=pdf.Load: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	// the reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("op=pdf.Load: malformed pdf: %v", rec)
		}
	}()

	source := filepath.Base(path)
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, perr := p.GetPlainText(nil)
		if perr != nil {
			return nil, fmt.Errorf("op=pdf.Load: page %d: %w", i, perr)
		}
		text = strings.TrimSpace(textx.SanitizeText(text))
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text, Source: source})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("op=pdf.Load: %s has no extractable text", source)
	}
	return pages, nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
