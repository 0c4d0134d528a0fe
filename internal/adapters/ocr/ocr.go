// Package ocr recognises text in scanned invoice PDFs by shelling out to
// poppler's pdftoppm (rasterise) and tesseract (recognise).
//
// Both tools must be installed, e.g.
//
//	apt-get install poppler-utils tesseract-ocr
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultDPI is the rasterisation resolution handed to pdftoppm.
const DefaultDPI = 300

// ErrNoPages is returned when rasterisation produced no images.
var ErrNoPages = errors.New("ocr: pdf rendered no pages")

// Config holds the tool locations. Empty paths are looked up on PATH.
type Config struct {
	TesseractPath string
	PdftoppmPath  string
	DPI           int
	Language      string // tesseract -l value; empty uses tesseract's default
}

// Engine implements extractor.TextSource with OCR.
type Engine struct {
	logger    *slog.Logger
	tesseract string
	pdftoppm  string
	dpi       int
	language  string
}

// NewEngine creates an OCR engine.
func NewEngine(logger *slog.Logger, cfg *Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		logger:    logger,
		tesseract: "tesseract",
		pdftoppm:  "pdftoppm",
		dpi:       DefaultDPI,
	}
	if cfg != nil {
		if cfg.TesseractPath != "" {
			e.tesseract = cfg.TesseractPath
		}
		if cfg.PdftoppmPath != "" {
			e.pdftoppm = cfg.PdftoppmPath
		}
		if cfg.DPI > 0 {
			e.dpi = cfg.DPI
		}
		e.language = cfg.Language
	}
	return e
}

// Text rasterises every page of the PDF and returns the recognised text of
// all pages, in page order, separated by newlines.
func (e *Engine) Text(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if _, err := e.run(ctx, e.pdftoppm, e.rasterArgs(path, prefix)); err != nil {
		return "", fmt.Errorf("rasterise %s: %w", filepath.Base(path), err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", ErrNoPages
	}
	sortPages(pages)

	var texts []string
	for _, page := range pages {
		out, err := e.run(ctx, e.tesseract, e.recognizeArgs(page))
		if err != nil {
			return "", fmt.Errorf("recognise %s: %w", filepath.Base(page), err)
		}
		texts = append(texts, string(out))
	}

	e.logger.Debug("ocr complete", slog.String("file", filepath.Base(path)), slog.Int("pages", len(pages)))
	return strings.Join(texts, "\n"), nil
}

// HealthCheck verifies both tools can be executed.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if _, err := e.run(ctx, e.tesseract, []string{"--version"}); err != nil {
		return fmt.Errorf("tesseract not available: %w", err)
	}
	if _, err := e.run(ctx, e.pdftoppm, []string{"-v"}); err != nil {
		return fmt.Errorf("pdftoppm not available: %w", err)
	}
	return nil
}

func (e *Engine) rasterArgs(pdfPath, prefix string) []string {
	return []string{"-r", strconv.Itoa(e.dpi), "-png", pdfPath, prefix}
}

func (e *Engine) recognizeArgs(imagePath string) []string {
	args := []string{imagePath, "stdout"}
	if e.language != "" {
		args = append(args, "-l", e.language)
	}
	return args
}

func (e *Engine) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	e.logger.Debug("executing", slog.String("bin", bin), slog.String("args", fmt.Sprintf("%v", args)))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed (exit %d): %s", filepath.Base(bin), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to execute %s: %w", bin, err)
	}
	return stdout.Bytes(), nil
}

// sortPages orders pdftoppm output numerically. Its zero padding depends on
// the page count, so a plain string sort is not enough.
func sortPages(pages []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndex(base, "-")
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(pages, func(i, j int) bool { return num(pages[i]) < num(pages[j]) })
}
