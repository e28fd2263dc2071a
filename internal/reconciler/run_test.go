package reconciler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/routing"

	"github.com/shopspring/decimal"
)

type fakeRecords struct {
	doc     *grid.Document
	written []grid.SheetWrite
	loadErr error
}

func (f *fakeRecords) LoadDocument() (*grid.Document, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.doc, nil
}

func (f *fakeRecords) WriteSheets(sheets []grid.SheetWrite) error {
	f.written = append(f.written, sheets...)
	return nil
}

type fakeConfig struct {
	rules   []routing.Rule
	lastRun *time.Time
	setRuns []time.Time
}

func (f *fakeConfig) ListRules() ([]routing.Rule, error)  { return f.rules, nil }
func (f *fakeConfig) LastRunDate() (*time.Time, error)    { return f.lastRun, nil }
func (f *fakeConfig) SetLastRunDate(t time.Time) error    { f.setRuns = append(f.setRuns, t); return nil }

type progressEvent struct {
	phase   string
	percent int
}

type captureSink struct {
	events []progressEvent
	logs   []string
}

func (c *captureSink) EmitProgress(phase string, percent int) {
	c.events = append(c.events, progressEvent{phase, percent})
}

func (c *captureSink) EmitLog(message string) { c.logs = append(c.logs, message) }

func cells(values ...string) []grid.Cell {
	row := make([]grid.Cell, len(values))
	for i, v := range values {
		row[i] = grid.Cell{Value: v}
	}
	return row
}

func testDoc() *grid.Document {
	return &grid.Document{Sheets: map[string]*grid.Sheet{
		"Monthly": {Title: "Monthly", Rows: [][]grid.Cell{
			cells("Name", "Membership Type"),
			cells("John Smith 1001", "Gold", "25.00"),
		}},
		"Generator": {Title: "Generator", Rows: [][]grid.Cell{
			cells("Name", "Membership Type"),
			cells("Pat Jones 2002", "Generator", "600.00"),
		}},
	}}
}

func writeExport(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte("Date,Name,Memo,Amount\n"+rows), 0o644); err != nil {
		t.Fatalf("writing export: %v", err)
	}
	return path
}

func generatorRule() routing.Rule {
	min := decimal.NullDecimal{Decimal: decimal.RequireFromString("500"), Valid: true}
	return routing.Rule{Name: "generator", Sheet: "Generator", Min: min, Priority: 10}
}

func TestRunReconcilesAndWritesDatedSnapshot(t *testing.T) {
	records := &fakeRecords{doc: testDoc()}
	config := &fakeConfig{rules: []routing.Rule{generatorRule()}}
	export := writeExport(t, joinRows([]string{
		"2/1/2024,John Smith 1001,Gold,-25.00",  // Monthly balance to zero
		"2/1/2024,Pat Jones 2002,Gen,-600.00",   // Generator record consumed
		"2/1/2024,Ada New 3003,Annual,119.00",   // new Monthly row (no rule match)
		"2/1/2024,Ghost Row 4004,Gone,-50.00",   // NoRecordsToReconcile
		"2/1/2024,Zero Line 5005,Zero,0.00",     // inert, silently skipped
	}))

	runDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	result, err := NewRunner(records, config, nil, nil, nil).Run(context.Background(), Options{
		ExportPath: export,
		RunDate:    runDate,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Transactions != 5 || result.Skipped != 1 {
		t.Errorf("Transactions = %d, Skipped = %d; want 5 and 1", result.Transactions, result.Skipped)
	}
	if len(result.Errors) != 1 || result.Errors[0].Kind() != recerrors.KindNoRecordsToReconcile {
		t.Fatalf("Errors = %v, want one NoRecordsToReconcile", result.Errors)
	}

	byTitle := make(map[string][]grid.RowWrite)
	for _, w := range records.written {
		byTitle[w.Title] = w.Rows
	}
	monthly := byTitle["Monthly - 03-15-2024"]
	if monthly == nil {
		t.Fatalf("written sheets = %v, want dated Monthly snapshot", result.Sheets)
	}
	// John's balance hit zero but the row survives; Ada was appended.
	if len(monthly) != 2 {
		t.Fatalf("Monthly rows = %d, want 2", len(monthly))
	}
	if gen := byTitle["Generator - 03-15-2024"]; len(gen) != 0 {
		t.Errorf("Generator rows = %d, want 0 after refund consumed the record", len(gen))
	}
	if errSheet := byTitle["Reconcile Errors - 03-15-2024"]; len(errSheet) != 2 {
		t.Errorf("error sheet rows = %d, want error + total", len(errSheet))
	}

	if len(config.setRuns) != 1 || !config.setRuns[0].Equal(runDate) {
		t.Errorf("SetLastRunDate calls = %v, want one with run date", config.setRuns)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	records := &fakeRecords{doc: testDoc()}
	config := &fakeConfig{}
	export := writeExport(t, "2/1/2024,John Smith 1001,Gold,-25.00\n")

	result, err := NewRunner(records, config, nil, nil, nil).Run(context.Background(), Options{
		ExportPath: export,
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.DryRun {
		t.Error("Result.DryRun = false, want true")
	}
	if len(records.written) != 0 {
		t.Errorf("written sheets = %v, want none on dry run", records.written)
	}
	if len(config.setRuns) != 0 {
		t.Errorf("SetLastRunDate calls = %v, want none on dry run", config.setRuns)
	}
}

func TestRunCancelledContextStopsBetweenPhases(t *testing.T) {
	records := &fakeRecords{doc: testDoc()}
	export := writeExport(t, "2/1/2024,John Smith 1001,Gold,-25.00\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(records, &fakeConfig{}, nil, nil, nil).Run(ctx, Options{ExportPath: export})
	if err == nil {
		t.Fatal("Run() error = nil, want cancellation")
	}
	if len(records.written) != 0 {
		t.Error("cancelled run wrote sheets")
	}
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	records := &fakeRecords{loadErr: fmt.Errorf("store down")}
	export := writeExport(t, "2/1/2024,John Smith 1001,Gold,-25.00\n")

	_, err := NewRunner(records, &fakeConfig{}, nil, nil, nil).Run(context.Background(), Options{ExportPath: export})
	if err == nil {
		t.Fatal("Run() error = nil, want fatal store error")
	}
	if !recerrors.IsFatal(err) {
		t.Errorf("IsFatal(%v) = false, want true", err)
	}
}

func TestRunEmitsBucketedProgress(t *testing.T) {
	records := &fakeRecords{doc: testDoc()}
	sink := &captureSink{}
	export := writeExport(t, joinRows([]string{
		"2/1/2024,John Smith 1001,Gold,-25.00",
		"2/1/2024,Ada New 3003,Annual,119.00",
	}))

	_, err := NewRunner(records, &fakeConfig{}, nil, sink, nil).Run(context.Background(), Options{
		ExportPath: export,
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.events) == 0 {
		t.Fatal("no progress events emitted")
	}
	last := sink.events[len(sink.events)-1]
	if last.percent != 100 {
		t.Errorf("final progress = %d, want 100", last.percent)
	}
	// Percents never regress, and the reconcile phase stays in its band.
	prev := -1
	for _, e := range sink.events {
		if e.percent < prev {
			t.Fatalf("progress regressed: %v", sink.events)
		}
		prev = e.percent
		if e.phase == "Reconciling" && (e.percent < 25 || e.percent > 90) {
			t.Errorf("reconcile progress %d outside 25..90", e.percent)
		}
	}
}

// joinRows joins export rows with newlines and a trailing newline.
func joinRows(rows []string) string {
	out := ""
	for _, r := range rows {
		out += r + "\n"
	}
	return out
}
