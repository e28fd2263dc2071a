package sheets

import (
	"time"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/models"

	"github.com/pkg/errors"
)

// Base titles of the tracked sheets. Any other sheet in the document is
// ignored.
const (
	SheetAnnual       = "Annual"
	SheetMonthly      = "Monthly"
	SheetPlumbing     = "Plumbing"
	SheetGenerator    = "Generator"
	SheetDuctCleaning = "Duct Cleaning"
)

// BaseTitles lists the tracked sheet types in their canonical order.
var BaseTitles = []string{SheetAnnual, SheetMonthly, SheetPlumbing, SheetGenerator, SheetDuctCleaning}

func layoutFor(base string) (Layout, reconcilePolicy, bool) {
	switch base {
	case SheetAnnual, SheetPlumbing:
		return wideLayout{}, defaultPolicy{}, true
	case SheetMonthly:
		return monthlyLayout{}, monthlyPolicy{}, true
	case SheetGenerator:
		return generatorLayout{}, defaultPolicy{}, true
	case SheetDuctCleaning:
		return ductLayout{}, defaultPolicy{}, true
	}
	return nil, nil, false
}

// Workbook is the in-memory state of one run: the parsed tracked worksheets
// plus the grid snapshot they came from. Record identity is allocated here so
// it stays unique across sheets.
type Workbook struct {
	doc        *grid.Document
	worksheets []*Worksheet
	byBase     map[string]*Worksheet
	lastID     int64
}

// NewWorkbook parses the tracked sheets out of a grid snapshot. Sheets may
// carry a trailing date suffix from an earlier run; when lastRun is set, a
// snapshot dated to it is preferred over the bare title. A document missing
// the Monthly sheet cannot reconcile fallbacks and is rejected.
func NewWorkbook(doc *grid.Document, lastRun *time.Time) (*Workbook, error) {
	wb := &Workbook{
		doc:    doc,
		byBase: make(map[string]*Worksheet),
	}
	for _, base := range BaseTitles {
		title, ok := resolveTitle(doc, base, lastRun)
		if !ok {
			continue
		}
		layout, policy, _ := layoutFor(base)
		ws := newWorksheet(wb, title, base, layout, policy)
		ws.load(doc.Sheets[title])
		wb.worksheets = append(wb.worksheets, ws)
		wb.byBase[base] = ws
	}
	if wb.byBase[SheetMonthly] == nil {
		return nil, errors.New("workbook has no Monthly sheet")
	}
	return wb, nil
}

// resolveTitle finds the document sheet backing a tracked base title: the
// snapshot dated to the last run when one exists, then the bare title, then
// the most recent dated snapshot.
func resolveTitle(doc *grid.Document, base string, lastRun *time.Time) (string, bool) {
	if lastRun != nil {
		dated := DatedTitle(base, *lastRun)
		if _, ok := doc.Sheets[dated]; ok {
			return dated, true
		}
	}
	if _, ok := doc.Sheets[base]; ok {
		return base, true
	}
	prefix := base + " - "
	var (
		latest     string
		latestDate time.Time
	)
	for title := range doc.Sheets {
		if len(title) <= len(prefix) || title[:len(prefix)] != prefix {
			continue
		}
		date, ok := models.ParseDateSuffix(title[len(prefix):])
		if !ok {
			continue
		}
		if latest == "" || date.After(latestDate) {
			latest, latestDate = title, date
		}
	}
	if latest == "" {
		return "", false
	}
	return latest, true
}

// DatedTitle names the snapshot of a sheet written on a given run date.
func DatedTitle(base string, date time.Time) string {
	return base + " - " + models.FormatDateSuffix(date)
}

// Worksheets returns the tracked sheets in canonical order.
func (wb *Workbook) Worksheets() []*Worksheet { return wb.worksheets }

// Sheet returns the worksheet for a base title, or nil when the document did
// not contain it.
func (wb *Workbook) Sheet(base string) *Worksheet { return wb.byBase[base] }

// Monthly returns the Monthly worksheet, the fallback target for accounts
// unknown to their routed sheet.
func (wb *Workbook) Monthly() *Worksheet { return wb.byBase[SheetMonthly] }

// ResolveColor resolves a cell's effective fill against the document palette.
func (wb *Workbook) ResolveColor(c grid.Cell) grid.Color {
	return wb.doc.ResolveColor(c)
}

// Errors collects the row and reconciliation errors from every sheet, in
// canonical sheet order, deduplicated and sorted for reporting.
func (wb *Workbook) Errors() []recerrors.RunError {
	var all []recerrors.RunError
	for _, ws := range wb.worksheets {
		all = append(all, ws.Errors()...)
	}
	all = recerrors.Deduplicate(all)
	recerrors.SortForReport(all)
	return all
}

func (wb *Workbook) nextRecordID() int64 {
	wb.lastID++
	return wb.lastID
}
