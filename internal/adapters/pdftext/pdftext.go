// Package pdftext reads the embedded text layer of PDF files.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF has pages but no extractable text,
// typically a scan.
var ErrNoText = errors.New("pdftext: no text layer")

// Reader implements extractor.TextSource over the PDF text layer.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a text-layer reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Text returns the text of every page joined by a space. Pages that fail to
// decode are skipped.
func (r *Reader) Text(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The parser panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("parse %s: %v", path, rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}

		content, err := page.GetPlainText(fonts)
		if err != nil {
			r.logger.Debug("skipping page", slog.String("file", path), slog.Int("page", i), slog.String("error", err.Error()))
			continue
		}
		pages = append(pages, content)
	}

	text = strings.Join(pages, " ")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
