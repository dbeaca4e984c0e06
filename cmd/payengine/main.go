package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rumor-ml/commons.systems/payengine/internal/audit"
	"github.com/rumor-ml/commons.systems/payengine/internal/config"
	"github.com/rumor-ml/commons.systems/payengine/internal/ingest"
	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
	"github.com/rumor-ml/commons.systems/payengine/internal/report"
	"github.com/rumor-ml/commons.systems/payengine/internal/scanner"
	"github.com/rumor-ml/commons.systems/payengine/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")
	verbose     = flag.Bool("verbose", false, "Show detailed processing logs")
	configFile  = flag.String("config", "", "YAML configuration file")
	auditFile   = flag.String("audit", "", "SQLite audit log for applied transactions")
	outputFile  = flag.String("output", "", "Output CSV file (default: stdout)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `payengine - Payments transaction ledger

Usage:
  payengine [flags] <input.csv|dir> [more inputs...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Process one transaction file, report to stdout
  payengine transactions.csv

  # Process several streams concurrently with an audit trail
  payengine -audit audit.db january.csv february.csv

  # Process every .csv under a directory with custom settings
  payengine -config payengine.yaml ~/statements

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("payengine version %s\n", version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one input path is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	ctx := context.Background()

	// Load configuration
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded config from %s (strict_disputes=%v, enforce_locks=%v, workers=%d)\n",
				*configFile, cfg.StrictDisputes, cfg.EnforceLocks, cfg.Workers)
		}
	}

	// Resolve inputs
	if !*verbose {
		ui.Header("Processing Payment Transactions")
		ui.Step(1, 3, "Resolving input streams")
	} else {
		fmt.Fprintf(os.Stderr, "Resolving %d input argument(s)\n", len(args))
	}

	files, err := scanner.Resolve(args)
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d transaction stream(s)\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
	} else {
		ui.Success(fmt.Sprintf("Found %d transaction stream(s)", len(files)))
	}

	// Optional audit trail
	var auditLog *audit.Log
	if *auditFile != "" {
		auditLog, err = audit.Open(*auditFile)
		if err != nil {
			return err
		}
		defer auditLog.Close()
		fmt.Fprintf(os.Stderr, "Audit trail enabled: %s (run %s)\n", *auditFile, auditLog.RunID())
	}

	// Ingest all streams; applies serialize on the ledger's lock
	if !*verbose {
		ui.Step(2, 3, "Applying transactions")
	}

	l := ledger.New(ledger.Options{
		StrictDisputes: cfg.StrictDisputes,
		EnforceLocks:   cfg.EnforceLocks,
	})
	proc := &ingest.Processor{Ledger: l, Audit: auditLog}

	allStats, err := proc.ProcessAll(ctx, files, cfg.Workers)
	if err != nil {
		return err
	}

	printSummary(allStats)

	// Validate final state before reporting
	if !*verbose {
		ui.Step(3, 3, "Writing balance report")
	}
	accounts := l.Accounts()
	if err := checkInvariants(accounts); err != nil {
		return err
	}

	// Report goes to stdout unless -output is set; all diagnostics above went
	// to stderr so the report stays machine-readable.
	var out io.Writer = stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", *outputFile, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", *outputFile, closeErr)
			}
		}()
		out = f
	}

	if err := report.Write(out, accounts); err != nil {
		return err
	}

	if *outputFile != "" {
		ui.Success(fmt.Sprintf("Report written to %s", *outputFile))
	}
	return nil
}

// printSummary writes per-run totals to stderr. Counts get thousands
// grouping so large runs stay readable.
func printSummary(allStats []ingest.Stats) {
	var records, applied, parseErrs, applyErrs int
	for _, s := range allStats {
		records += s.Records
		applied += s.Applied
		parseErrs += s.ParseErrors
		applyErrs += s.ApplyErrors
	}

	p := message.NewPrinter(language.English)
	fmt.Fprintf(os.Stderr, "\nProcessed %s record(s) across %d stream(s): %s applied, %s skipped\n",
		p.Sprintf("%d", records), len(allStats),
		p.Sprintf("%d", applied), p.Sprintf("%d", parseErrs+applyErrs))

	if *verbose {
		for _, s := range allStats {
			fmt.Fprintf(os.Stderr, "  - %s: %d record(s), %d applied, %d parse error(s), %d apply error(s)\n",
				s.Path, s.Records, s.Applied, s.ParseErrors, s.ApplyErrors)
		}
	}
	if parseErrs > 0 {
		ui.Warning(p.Sprintf("%d record(s) failed to parse (see errors above)", parseErrs))
	}
	if applyErrs > 0 {
		ui.Warning(p.Sprintf("%d transaction(s) were rejected by the ledger (see errors above)", applyErrs))
	}
}
