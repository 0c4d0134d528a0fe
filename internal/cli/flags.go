package cli

import (
	"flag"
	"os"

	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/config"
)

// ReconcileFlags are the flags of the reconcile command
type ReconcileFlags struct {
	ConfigPath  string
	DryRun      bool
	SkipExtract bool
	Start       string
	End         string
	Verbose     bool
}

// ParseReconcileFlags parses reconcile flags from the command line
func ParseReconcileFlags() ReconcileFlags {
	return parseReconcileFlags(flag.CommandLine, os.Args[1:])
}

func parseReconcileFlags(fs *flag.FlagSet, args []string) ReconcileFlags {
	var flags ReconcileFlags
	fs.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Run without saving the workbook")
	fs.BoolVar(&flags.SkipExtract, "skip-extract", false, "Match on the amounts and dates already in the Invoices sheet")
	fs.StringVar(&flags.Start, "start", "", "Statement start date (YYYY-MM-DD), overrides config")
	fs.StringVar(&flags.End, "end", "", "Statement end date (YYYY-MM-DD), overrides config")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	_ = fs.Parse(args)
	return flags
}

// Apply copies the command-line overrides onto cfg.
func (f ReconcileFlags) Apply(cfg *config.Config) {
	if f.Start != "" {
		cfg.Statement.Start = f.Start
	}
	if f.End != "" {
		cfg.Statement.End = f.End
	}
	if f.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
}
