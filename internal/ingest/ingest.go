// Package ingest reads transaction streams and applies them to the ledger.
//
// Streams may be read concurrently, one goroutine per input file; every
// apply serializes on the ledger's internal lock, so at most one transaction
// mutates state at a time regardless of how many streams are in flight.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/rumor-ml/commons.systems/payengine/internal/audit"
	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
	"github.com/rumor-ml/commons.systems/payengine/internal/record"
)

// Stats counts the outcomes of one stream's records. The header row is not
// counted.
type Stats struct {
	Path        string
	Records     int
	Applied     int
	ParseErrors int
	ApplyErrors int
}

// Skipped returns the number of records that had no effect on the ledger.
func (s Stats) Skipped() int {
	return s.ParseErrors + s.ApplyErrors
}

// Processor ingests transaction streams into a shared ledger.
type Processor struct {
	Ledger *ledger.Ledger
	Audit  *audit.Log // optional
	// ErrLog receives per-record parse and apply failures. Defaults to
	// os.Stderr when nil.
	ErrLog io.Writer
}

func (p *Processor) errLog() io.Writer {
	if p.ErrLog != nil {
		return p.ErrLog
	}
	return os.Stderr
}

// ProcessFile ingests one transaction stream.
//
// The first row is the header and is discarded. Per-record parse and apply
// failures are logged and counted but never abort the stream; failures to
// open or read the stream itself are fatal and returned.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Stats, error) {
	stats := Stats{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	err = p.Process(ctx, f, &stats)
	if err != nil {
		return stats, fmt.Errorf("failed to read records from %s: %w", path, err)
	}
	return stats, nil
}

// Process ingests one stream from r, accumulating into stats.
func (p *Processor) Process(ctx context.Context, r io.Reader, stats *Stats) error {
	cr := csv.NewReader(r)
	// Tolerate rows with inconsistent field counts; the record parser decides
	// what is usable.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	// Header row. An empty stream is fine: zero records, empty report.
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Reader-level failures (e.g. malformed quoting) are stream
			// errors, not skippable records.
			return err
		}

		stats.Records++
		if err := p.processRecord(fields, stats); err != nil {
			return err
		}
	}
}

// processRecord handles one record. Parse and apply failures are recovered:
// logged, counted, and the stream continues. The only returned error is an
// audit write failure, which is fatal because the trail must not silently
// miss transactions that were applied.
func (p *Processor) processRecord(fields []string, stats *Stats) error {
	tx, err := record.Parse(fields)
	if err != nil {
		stats.ParseErrors++
		fmt.Fprintf(p.errLog(), "Error processing record: %v\n", err)
		return nil
	}

	if err := p.Ledger.Apply(tx); err != nil {
		stats.ApplyErrors++
		fmt.Fprintf(p.errLog(), "Error applying transaction: %v\n", err)
		return nil
	}
	stats.Applied++

	if p.Audit != nil {
		if err := p.Audit.Record(tx); err != nil {
			return fmt.Errorf("audit write failed for tx %d: %w", tx.Tx, err)
		}
	}
	return nil
}

// ProcessAll ingests every path, reading up to workers streams concurrently
// (workers <= 0 means one goroutine per path). It returns the per-stream
// stats in path order. All ingestion goroutines are joined before returning,
// so the ledger snapshot taken afterwards is never partial.
func (p *Processor) ProcessAll(ctx context.Context, paths []string, workers int) ([]Stats, error) {
	results := make([]Stats, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			stats, err := p.ProcessFile(ctx, path)
			results[i] = stats
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
