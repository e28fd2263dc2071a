// Package reporter renders the run's collected errors into the error-report
// batch written back to the record store: one four-column row per error, in
// deterministic order, plus a trailing total row whose formula sums the
// dollar-impact column.
package reporter

import (
	"fmt"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/pkg/logger"
)

// valueColumn is the report column holding the offending raw value; for
// reconciliation failures it is the signed transaction amount, which is what
// the total row sums. Parse errors put non-numeric text there and fall out of
// the sum naturally.
const valueColumn = "D"

// Reporter builds error-report batches.
type Reporter struct {
	logger logger.Logger
}

// NewReporter creates a Reporter. A nil logger uses the global one.
func NewReporter(log logger.Logger) *Reporter {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Reporter{logger: log.WithComponent("reporter")}
}

// BuildReport renders errors into row-write intents. The input is
// deduplicated by ledger row and sorted by kind before rendering, so two
// calls over the same error set produce identical batches. An empty input
// produces an empty batch with no total row.
func (r *Reporter) BuildReport(errs []recerrors.RunError) []grid.RowWrite {
	errs = recerrors.Deduplicate(errs)
	recerrors.SortForReport(errs)
	if len(errs) == 0 {
		return nil
	}

	rows := make([]grid.RowWrite, 0, len(errs)+1)
	for _, e := range errs {
		report := e.Report()
		rows = append(rows, grid.RowWrite{Cells: []grid.WriteCell{
			grid.ValueCell(report.Source, nil),
			grid.ValueCell(report.Location, nil),
			grid.ValueCell(report.Message, nil),
			grid.ValueCell(report.RawValue, nil),
		}})
	}
	rows = append(rows, totalRow(len(errs)))

	r.logger.WithField("errors", len(errs)).Info("Built error report")
	return rows
}

// totalRow is the trailing dollar-impact row: a label in column C and a SUM
// formula over the value column in column D.
func totalRow(errorRows int) grid.RowWrite {
	return grid.RowWrite{Cells: []grid.WriteCell{
		grid.EmptyCell(),
		grid.EmptyCell(),
		{Value: "TOTAL:", Align: "RIGHT"},
		{
			Value:        fmt.Sprintf("=SUM(%s1:%s%d)", valueColumn, valueColumn, errorRows),
			Formula:      true,
			NumberFormat: "$#,##0.00",
		},
	}}
}
