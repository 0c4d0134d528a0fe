// Package invoicedir lists the invoice PDFs of a statement month.
package invoicedir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// Entry is one invoice file.
type Entry struct {
	Name string
	Path string
}

// List returns the PDF files directly inside dir, sorted by name. The
// extension check ignores case; subdirectories and hidden files are skipped.
func List(dir string) ([]Entry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice folder: %w", err)
	}

	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read invoice folder: %w", err)
	}

	var entries []Entry
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		entries = append(entries, Entry{Name: name, Path: filepath.Join(abs, name)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Invoices turns entries into invoice rows with nothing extracted yet.
func Invoices(entries []Entry) []ledger.InvoiceRecord {
	rows := make([]ledger.InvoiceRecord, len(entries))
	for i, e := range entries {
		rows[i] = ledger.InvoiceRecord{
			FileName: e.Name,
			FilePath: e.Path,
			Status:   ledger.StatusFailed,
		}
	}
	return rows
}
