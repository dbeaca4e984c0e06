package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
)

func newProcessor(errLog *bytes.Buffer) (*Processor, *ledger.Ledger) {
	l := ledger.New(ledger.Options{})
	return &Processor{Ledger: l, ErrLog: errLog}, l
}

func writeStream(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcess_AppliesRecords(t *testing.T) {
	var errLog bytes.Buffer
	proc, l := newProcessor(&errLog)

	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,1.0",
		"deposit,2,2,2.0",
		"withdrawal,1,3,0.25",
		"dispute,2,2",
		"",
	}, "\n")

	var stats Stats
	require.NoError(t, proc.Process(context.Background(), strings.NewReader(input), &stats))

	assert.Equal(t, 4, stats.Records)
	assert.Equal(t, 4, stats.Applied)
	assert.Equal(t, 0, stats.Skipped())
	assert.Empty(t, errLog.String())

	accounts := l.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, 0.75, accounts[0].Available)
	assert.Equal(t, 2.0, accounts[1].Held)
}

func TestProcess_SkipsBadRecordsAndContinues(t *testing.T) {
	var errLog bytes.Buffer
	proc, l := newProcessor(&errLog)

	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,5.0",
		"teleport,1,2,1.0",     // unknown type
		"deposit,abc,3,1.0",    // bad client id
		"withdrawal,1,4,100.0", // insufficient funds
		"deposit,1",            // too few fields
		"withdrawal,1,5,1.0",   // fine, must still apply
		"",
	}, "\n")

	var stats Stats
	require.NoError(t, proc.Process(context.Background(), strings.NewReader(input), &stats))

	assert.Equal(t, 6, stats.Records)
	assert.Equal(t, 2, stats.Applied)
	assert.Equal(t, 3, stats.ParseErrors)
	assert.Equal(t, 1, stats.ApplyErrors)

	logged := errLog.String()
	assert.Contains(t, logged, "unknown transaction type")
	assert.Contains(t, logged, "insufficient funds")

	accounts := l.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, 4.0, accounts[0].Total)
}

func TestProcess_ToleratesInconsistentFieldCounts(t *testing.T) {
	var errLog bytes.Buffer
	proc, l := newProcessor(&errLog)

	// Rows with 3, 4, and 6 fields in the same stream.
	input := strings.Join([]string{
		"type,client,tx,amount",
		"deposit,1,1,3.0",
		"dispute,1,1",
		"resolve,1,1,,extra,fields",
		"",
	}, "\n")

	var stats Stats
	require.NoError(t, proc.Process(context.Background(), strings.NewReader(input), &stats))
	assert.Equal(t, 3, stats.Applied)

	accounts := l.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, 3.0, accounts[0].Available)
	assert.Equal(t, 0.0, accounts[0].Held)
}

func TestProcess_HeaderOnlyStream(t *testing.T) {
	var errLog bytes.Buffer
	proc, _ := newProcessor(&errLog)

	var stats Stats
	require.NoError(t, proc.Process(context.Background(), strings.NewReader("type,client,tx,amount\n"), &stats))
	assert.Equal(t, 0, stats.Records)
}

func TestProcess_EmptyStream(t *testing.T) {
	var errLog bytes.Buffer
	proc, _ := newProcessor(&errLog)

	var stats Stats
	require.NoError(t, proc.Process(context.Background(), strings.NewReader(""), &stats))
	assert.Equal(t, 0, stats.Records)
}

func TestProcess_CancelledContext(t *testing.T) {
	var errLog bytes.Buffer
	proc, _ := newProcessor(&errLog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stats Stats
	err := proc.Process(ctx, strings.NewReader("type,client,tx,amount\ndeposit,1,1,1.0\n"), &stats)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessFile_MissingFileIsFatal(t *testing.T) {
	var errLog bytes.Buffer
	proc, _ := newProcessor(&errLog)

	_, err := proc.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}

func TestProcessAll_ConcurrentStreamsShareOneLedger(t *testing.T) {
	dir := t.TempDir()
	var errLog bytes.Buffer
	proc, l := newProcessor(&errLog)

	// Four streams depositing into the same client; applies serialize on the
	// ledger lock so the totals must be exact.
	var paths []string
	txID := 1
	for i := 0; i < 4; i++ {
		var sb strings.Builder
		sb.WriteString("type,client,tx,amount\n")
		for j := 0; j < 50; j++ {
			sb.WriteString("deposit,1,")
			sb.WriteString(strconv.Itoa(txID))
			sb.WriteString(",1.0\n")
			txID++
		}
		paths = append(paths, writeStream(t, dir, "stream"+strconv.Itoa(i)+".csv", sb.String()))
	}

	allStats, err := proc.ProcessAll(context.Background(), paths, 0)
	require.NoError(t, err)
	require.Len(t, allStats, 4)

	totalApplied := 0
	for _, s := range allStats {
		totalApplied += s.Applied
	}
	assert.Equal(t, 200, totalApplied)

	accounts := l.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, 200.0, accounts[0].Total)
	assert.Equal(t, 200, l.EntryCount())
}

func TestProcessAll_WorkerLimit(t *testing.T) {
	dir := t.TempDir()
	var errLog bytes.Buffer
	proc, l := newProcessor(&errLog)

	paths := []string{
		writeStream(t, dir, "a.csv", "type,client,tx,amount\ndeposit,1,1,1.0\n"),
		writeStream(t, dir, "b.csv", "type,client,tx,amount\ndeposit,1,2,1.0\n"),
		writeStream(t, dir, "c.csv", "type,client,tx,amount\ndeposit,1,3,1.0\n"),
	}

	_, err := proc.ProcessAll(context.Background(), paths, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, l.Accounts()[0].Total)
}

func TestProcessAll_FailedStreamReportsError(t *testing.T) {
	dir := t.TempDir()
	var errLog bytes.Buffer
	proc, _ := newProcessor(&errLog)

	paths := []string{
		writeStream(t, dir, "good.csv", "type,client,tx,amount\ndeposit,1,1,1.0\n"),
		filepath.Join(dir, "missing.csv"),
	}

	_, err := proc.ProcessAll(context.Background(), paths, 0)
	require.Error(t, err)
}
