package sheets

import (
	"sort"
	"strings"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// headerMarker is the formatted value of column B on every tracked sheet's
// header row.
const headerMarker = "Membership Type"

// annualTermDays is the membership term granted when a new charge is appended
// to a sheet that tracks expiry dates.
const annualTermDays = 365

// Worksheet is one tracked sheet of the membership workbook. Column layout
// and write shape come from the sheet-type Layout selected by the factory;
// matching behavior comes from the reconcile policy, which every sheet type
// shares except Monthly.
type Worksheet struct {
	workbook *Workbook
	title    string
	base     string
	layout   Layout
	policy   reconcilePolicy

	arena *recordArena
	errs  []recerrors.RunError
}

// Layout is the sheet-type strategy: how rows parse, what a freshly appended
// charge looks like, and how live records render back into cells.
type Layout interface {
	// Columns is the number of columns in the sheet's occupied range.
	Columns() int
	// ParseRecord builds a record from one padded grid row. It returns nil
	// after recording a row error on the worksheet.
	ParseRecord(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord
	// NewRaw renders the raw cell values for a charge appended by
	// reconciliation.
	NewRaw(tx *models.Transaction) []string
	// WriteRow renders a live record into styled cells.
	WriteRow(r *SheetRecord) grid.RowWrite
	// TracksExpiry reports whether appended charges receive an expiry date
	// and whether expiry participates in write ordering.
	TracksExpiry() bool
}

type reconcilePolicy interface {
	reconcile(ws *Worksheet, tx *models.Transaction) bool
}

func newWorksheet(wb *Workbook, title, base string, layout Layout, policy reconcilePolicy) *Worksheet {
	return &Worksheet{
		workbook: wb,
		title:    title,
		base:     base,
		layout:   layout,
		policy:   policy,
		arena:    newRecordArena(),
	}
}

// Title returns the sheet's full title, including any date suffix.
func (ws *Worksheet) Title() string { return ws.title }

// BaseTitle returns the sheet's type name without a date suffix.
func (ws *Worksheet) BaseTitle() string { return ws.base }

// Records returns the live records in original row order.
func (ws *Worksheet) Records() []*SheetRecord { return ws.arena.liveRecords() }

// RecordsByAccount returns the live records for one account, in row order.
func (ws *Worksheet) RecordsByAccount(accountID int64) []*SheetRecord {
	var out []*SheetRecord
	for _, r := range ws.arena.liveRecords() {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out
}

// Errors returns the row and reconciliation errors collected so far.
func (ws *Worksheet) Errors() []recerrors.RunError { return ws.errs }

func (ws *Worksheet) recordError(err recerrors.RunError) {
	ws.errs = append(ws.errs, err)
}

// errorSource names the worksheet in error reports.
func (ws *Worksheet) errorSource() string {
	return ws.title
}

// load parses the sheet's grid rows into records. The header row is
// recognized by its column B value and skipped; a fully blank row marks the
// logical end of the occupied range and parsing stops there. Rows the layout
// rejects record an error and are skipped without ending the range.
func (ws *Worksheet) load(sheet *grid.Sheet) {
	if sheet == nil {
		return
	}
	for i, row := range sheet.Rows {
		rowNum := i + 1
		cells := padRow(row, ws.layout.Columns())
		if rowBlank(cells) {
			break
		}
		if strings.TrimSpace(cells[1].Value) == headerMarker {
			continue
		}
		rec := ws.layout.ParseRecord(ws, cells, rowNum)
		if rec == nil {
			continue
		}
		rec.id = ws.workbook.nextRecordID()
		rec.Sheet = ws.title
		ws.arena.add(rec)
	}
}

// Reconcile applies one settled transaction to the sheet and reports whether
// it was consumed. Unconsumed transactions leave an error on the sheet that
// handled them.
func (ws *Worksheet) Reconcile(tx *models.Transaction) bool {
	return ws.policy.reconcile(ws, tx)
}

// AddRow appends a new record for a positive charge. The balance starts at
// the charge amount and, on sheets that track expiry, the membership runs one
// term from the transaction date.
func (ws *Worksheet) AddRow(tx *models.Transaction) *SheetRecord {
	rec := &SheetRecord{
		id:        ws.workbook.nextRecordID(),
		Sheet:     ws.title,
		Row:       ws.nextRow(),
		Raw:       ws.layout.NewRaw(tx),
		AccountID: tx.AccountID,
		Names:     tx.CloneNames(),
		Memos:     []string{tx.Memo},
		Balance:   decimal.NullDecimal{Decimal: tx.Amount, Valid: true},
		Highlight: grid.White,

		Reconciled: tx,
	}
	if ws.layout.TracksExpiry() && !tx.Date.IsZero() {
		expiry := tx.Date.AddDate(0, 0, annualTermDays)
		rec.Expiry = &expiry
	}
	ws.arena.add(rec)
	return rec
}

// nextRow is the first row past the occupied range, counting the header row.
func (ws *Worksheet) nextRow() int {
	max := 1
	for _, r := range ws.arena.records {
		if r.Row > max {
			max = r.Row
		}
	}
	return max + 1
}

// WriteRows renders the live records for writeback. On sheets that track
// expiry, records without one sort first and the rest follow in ascending
// expiry order; original row order breaks ties everywhere.
func (ws *Worksheet) WriteRows() []grid.RowWrite {
	records := ws.arena.liveRecords()
	if ws.layout.TracksExpiry() {
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i], records[j]
			if (a.Expiry == nil) != (b.Expiry == nil) {
				return a.Expiry == nil
			}
			if a.Expiry != nil && !a.Expiry.Equal(*b.Expiry) {
				return a.Expiry.Before(*b.Expiry)
			}
			return a.Row < b.Row
		})
	}
	rows := make([]grid.RowWrite, 0, len(records))
	for _, r := range records {
		rows = append(rows, ws.layout.WriteRow(r))
	}
	return rows
}

// defaultPolicy is the matching behavior shared by every sheet type except
// Monthly. Positive amounts append a fresh record without searching existing
// ones. Negative and zero-balance-producing amounts consume the first record,
// in row order, whose balance is strictly positive and exactly equals the
// absolute amount. Accounts with no records on the sheet fall back to the
// Monthly sheet before giving up.
type defaultPolicy struct{}

func (defaultPolicy) reconcile(ws *Worksheet, tx *models.Transaction) bool {
	if tx.Amount.IsPositive() {
		ws.AddRow(tx)
		return true
	}

	records := ws.RecordsByAccount(tx.AccountID)
	if len(records) == 0 {
		if monthly := ws.workbook.Monthly(); monthly != nil && monthly != ws {
			if monthly.Reconcile(tx) {
				return true
			}
		}
		ws.recordError(&recerrors.NoRecordsError{Sheet: ws.title, Tx: txRef(tx)})
		return false
	}

	want := tx.AbsAmount()
	for _, r := range records {
		if !r.Balance.Valid {
			continue
		}
		if r.Balance.Decimal.IsPositive() && r.Balance.Decimal.Equal(want) {
			r.Reconciled = tx
			r.Delete()
			return true
		}
	}
	ws.recordError(&recerrors.NoMatchError{Sheet: ws.title, Tx: txRef(tx)})
	return false
}

// monthlyPolicy folds an account's running-balance rows into one and applies
// the signed amount to it. Accounts unknown to the sheet gain a row only for
// positive amounts.
type monthlyPolicy struct{}

func (monthlyPolicy) reconcile(ws *Worksheet, tx *models.Transaction) bool {
	records := ws.RecordsByAccount(tx.AccountID)
	if len(records) == 0 {
		if tx.Amount.IsPositive() {
			ws.AddRow(tx)
			return true
		}
		ws.recordError(&recerrors.NoRecordsError{Sheet: ws.title, Tx: txRef(tx)})
		return false
	}

	master := records[0]
	for _, other := range records[1:] {
		master = master.Merge(other)
	}
	if !master.Balance.Valid {
		master.Balance = decimal.NullDecimal{Valid: true}
	}
	master.Balance.Decimal = master.Balance.Decimal.Add(tx.Amount)
	master.Reconciled = tx
	return true
}

func txRef(tx *models.Transaction) recerrors.TransactionRef {
	return recerrors.TransactionRef{
		Index:     tx.Index,
		AccountID: tx.AccountID,
		Raw:       models.AccountNameString(tx.AccountID, tx.Names),
		Amount:    tx.Amount.String(),
	}
}

func padRow(row []grid.Cell, width int) []grid.Cell {
	if len(row) >= width {
		return row
	}
	padded := make([]grid.Cell, width)
	copy(padded, row)
	return padded
}

func rowBlank(cells []grid.Cell) bool {
	for _, c := range cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}
