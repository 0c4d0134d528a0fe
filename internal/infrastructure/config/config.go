// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	wbPath := cfg.Workbook.Path
//	start, end, err := cfg.Statement.Window()
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/workbook"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the entire application configuration
type Config struct {
	Workbook      WorkbookConfig      `yaml:"workbook"`
	Statement     StatementConfig     `yaml:"statement"`
	Invoices      InvoicesConfig      `yaml:"invoices"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Matching      MatchingConfig      `yaml:"matching"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// WorkbookConfig locates the workbook and its sheets
type WorkbookConfig struct {
	Path              string                   `yaml:"path"`
	OutputPath        string                   `yaml:"output_path"` // empty saves in place
	InvoicesSheet     string                   `yaml:"invoices_sheet"`
	TransactionsSheet string                   `yaml:"transactions_sheet"`
	VendorsSheet      string                   `yaml:"vendors_sheet"`
	UnmatchedSheet    string                   `yaml:"unmatched_sheet"`
	HeaderRow         int                      `yaml:"header_row"`
	WriteFilePath     bool                     `yaml:"write_file_path"`
	LegacySentinels   *bool                    `yaml:"legacy_sentinels"`
	Formulas          []workbook.FormulaColumn `yaml:"formulas"`
}

// StatementConfig is the billing period invoice dates must fall in
type StatementConfig struct {
	Start string `yaml:"start"` // YYYY-MM-DD
	End   string `yaml:"end"`
}

// InvoicesConfig points at the month's invoice folder
type InvoicesConfig struct {
	Directory  string `yaml:"directory"`
	ListFolder bool   `yaml:"list_folder"` // rewrite the Invoices table from Directory
}

// ExtractionConfig holds PDF reading settings
type ExtractionConfig struct {
	OCR OCRConfig `yaml:"ocr"`
}

// OCRConfig holds the external OCR tool settings
type OCRConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TesseractPath string `yaml:"tesseract_path"`
	PdftoppmPath  string `yaml:"pdftoppm_path"`
	DPI           int    `yaml:"dpi"`
	Language      string `yaml:"language"`
}

// MatchingConfig tunes the combination strategy and sequencing
type MatchingConfig struct {
	CombinationMaxSize   int    `yaml:"combination_max_size"`
	CombinationTolerance string `yaml:"combination_tolerance"`
	SequenceOffset       int    `yaml:"sequence_offset"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"` // empty disables the run journal
}

// APIConfig holds the run-report server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${INVOICE_DIR})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Workbook: WorkbookConfig{
			Path:       os.Getenv("RECONCILE_WORKBOOK"),
			OutputPath: os.Getenv("RECONCILE_OUTPUT"),
			HeaderRow:  getEnvInt("RECONCILE_HEADER_ROW", 0),
		},
		Statement: StatementConfig{
			Start: os.Getenv("STATEMENT_START"),
			End:   os.Getenv("STATEMENT_END"),
		},
		Invoices: InvoicesConfig{
			Directory:  os.Getenv("INVOICE_DIR"),
			ListFolder: getEnvBool("INVOICE_LIST_FOLDER", false),
		},
		Extraction: ExtractionConfig{
			OCR: OCRConfig{
				Enabled:       getEnvBool("OCR_ENABLED", true),
				TesseractPath: os.Getenv("TESSERACT_PATH"),
				PdftoppmPath:  os.Getenv("PDFTOPPM_PATH"),
				DPI:           getEnvInt("OCR_DPI", 0),
			},
		},
		Matching: MatchingConfig{
			CombinationMaxSize:   getEnvInt("COMBINATION_MAX_SIZE", 0),
			CombinationTolerance: os.Getenv("COMBINATION_TOLERANCE"),
			SequenceOffset:       getEnvInt("SEQUENCE_OFFSET", 0),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		API: APIConfig{
			Port: getEnvInt("API_PORT", 0),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	layout := workbook.DefaultLayout()
	wb := &c.Workbook
	if wb.InvoicesSheet == "" {
		wb.InvoicesSheet = layout.InvoicesSheet
	}
	if wb.TransactionsSheet == "" {
		wb.TransactionsSheet = layout.TransactionsSheet
	}
	if wb.VendorsSheet == "" {
		wb.VendorsSheet = layout.VendorsSheet
	}
	if wb.UnmatchedSheet == "" {
		wb.UnmatchedSheet = layout.UnmatchedSheet
	}
	if wb.HeaderRow == 0 {
		wb.HeaderRow = layout.HeaderRow
	}
	if wb.Formulas == nil {
		wb.Formulas = layout.Formulas
	}

	if c.Extraction.OCR.TesseractPath == "" {
		c.Extraction.OCR.TesseractPath = "tesseract"
	}
	if c.Extraction.OCR.PdftoppmPath == "" {
		c.Extraction.OCR.PdftoppmPath = "pdftoppm"
	}
	if c.Extraction.OCR.DPI == 0 {
		c.Extraction.OCR.DPI = 300
	}

	if c.Matching.CombinationMaxSize == 0 {
		c.Matching.CombinationMaxSize = 3
	}
	if c.Matching.CombinationTolerance == "" {
		c.Matching.CombinationTolerance = "0.01"
	}
	if c.Matching.SequenceOffset == 0 {
		c.Matching.SequenceOffset = 8
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	start, end, err := c.Statement.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: statement end %s is before start %s", ErrInvalidConfig, end, start)
	}
	if c.Matching.CombinationMaxSize < 1 {
		return fmt.Errorf("%w: combination_max_size must be at least 1, got %d", ErrInvalidConfig, c.Matching.CombinationMaxSize)
	}
	if _, err := c.Matching.Tolerance(); err != nil {
		return err
	}
	if c.Workbook.HeaderRow < 1 {
		return fmt.Errorf("%w: header_row must be at least 1, got %d", ErrInvalidConfig, c.Workbook.HeaderRow)
	}
	return nil
}

// Window parses the statement dates. A blank date is the zero civil.Date,
// which leaves that side of the window open.
func (s StatementConfig) Window() (start, end civil.Date, err error) {
	if start, err = parseDay("start", s.Start); err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	if end, err = parseDay("end", s.End); err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	return start, end, nil
}

func parseDay(field, s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: statement %s %q: %v", ErrInvalidConfig, field, s, err)
	}
	return d, nil
}

// Tolerance parses the combination tolerance as a decimal amount.
func (m MatchingConfig) Tolerance() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(strings.TrimSpace(m.CombinationTolerance))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: combination_tolerance %q: %v", ErrInvalidConfig, m.CombinationTolerance, err)
	}
	return tol, nil
}

// Layout converts the workbook section for the workbook package.
func (w WorkbookConfig) Layout() workbook.Layout {
	layout := workbook.DefaultLayout()
	layout.InvoicesSheet = w.InvoicesSheet
	layout.TransactionsSheet = w.TransactionsSheet
	layout.VendorsSheet = w.VendorsSheet
	layout.UnmatchedSheet = w.UnmatchedSheet
	layout.HeaderRow = w.HeaderRow
	layout.WriteFilePath = w.WriteFilePath
	layout.Formulas = w.Formulas
	if w.LegacySentinels != nil {
		layout.LegacySentinels = *w.LegacySentinels
	}
	return layout
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvBool accepts 1/0, true/false, yes/no
func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
