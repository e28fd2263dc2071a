package sheets

import (
	"strings"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Column widths of the occupied ranges, per sheet type.
const (
	wideColumns     = 11 // A:K: name, memo, amount, expiry, spacer, six CSR columns
	monthlyColumns  = 10 // A:J: name, memo, amount, expiry, six CSR columns
	generatorColumn = 3  // A:C: name, memo, amount
	ductColumns     = 4  // A:D: name, memo, amount, free-form CSR text
)

// parseHead reads the leading name, memo and amount columns every sheet type
// shares. It returns nil after recording a row error.
func parseHead(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord {
	rawName := strings.TrimSpace(cells[0].Value)
	if rawName == "" {
		ws.recordError(&recerrors.NameMissingError{Source: ws.errorSource(), Row: row})
		return nil
	}
	accountID, nameText, ok := models.SplitNameAndAccount(rawName)
	if !ok {
		ws.recordError(&recerrors.NameParseError{Source: ws.errorSource(), RawName: rawName, Row: row})
		return nil
	}

	rec := &SheetRecord{
		Row:       row,
		AccountID: accountID,
		Names:     models.SplitMultiNames(nameText),
		Memos:     splitMemos(cells[1].Value),
		Highlight: ws.workbook.ResolveColor(cells[0]),
	}

	amountText := strings.TrimSpace(cells[2].Value)
	amount, err := models.ParseAmount(amountText)
	if err != nil {
		ws.recordError(&recerrors.NumericParseError{Source: ws.errorSource(), Value: amountText, Row: row})
		return nil
	}
	rec.Balance = decimal.NullDecimal{Decimal: amount, Valid: true}
	return rec
}

func splitMemos(value string) []string {
	var memos []string
	for _, part := range strings.Split(value, LineSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			memos = append(memos, part)
		}
	}
	return memos
}

// headCells renders the shared name, memo and amount output columns.
func headCells(r *SheetRecord) []grid.WriteCell {
	color := r.Highlight
	return []grid.WriteCell{
		grid.ValueCell(models.AccountNameString(r.AccountID, r.Names), &color),
		grid.ValueCell(r.MemoText(), &color),
		grid.CurrencyCell(r.BalanceText(), &color),
	}
}

func spacerCell() grid.WriteCell {
	color := grid.PurpleSpacer
	return grid.WriteCell{Color: &color}
}

func csrCells(csr CSRData, width int) []grid.WriteCell {
	var values []string
	color := grid.White
	switch c := csr.(type) {
	case *AnnualCSR:
		values, color = c.Values(), c.Highlight
	case *MonthlyCSR:
		values, color = c.Values(), c.Highlight
	case *DuctCleaningCSR:
		values, color = c.Values(), c.Highlight
	}
	cells := make([]grid.WriteCell, width)
	for i := range cells {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		fill := color
		cells[i] = grid.ValueCell(v, &fill)
	}
	return cells
}

func rawValues(cells []grid.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Value
	}
	return out
}

// wideLayout is the A:K shape shared by the Annual and Plumbing sheets:
// accounting columns plus expiry, a spacer, and six CSR columns.
type wideLayout struct{}

func (wideLayout) Columns() int       { return wideColumns }
func (wideLayout) TracksExpiry() bool { return true }

func (wideLayout) ParseRecord(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord {
	rec := parseHead(ws, cells, row)
	if rec == nil {
		return nil
	}
	rec.Raw = rawValues(cells)
	if expiry, ok := models.ParseSheetDate(cells[3].Value); ok {
		rec.Expiry = &expiry
	}
	rec.CSR = &AnnualCSR{
		CSRName:     strings.TrimSpace(cells[5].Value),
		LastContact: strings.TrimSpace(cells[6].Value),
		Notes:       strings.TrimSpace(cells[7].Value),
		DateBooked:  strings.TrimSpace(cells[8].Value),
		InstallDate: strings.TrimSpace(cells[9].Value),
		Equipment:   strings.TrimSpace(cells[10].Value),
		Highlight:   ws.workbook.ResolveColor(cells[5]),
		Raw:         rawValues(cells[5:]),
	}
	return rec
}

func (wideLayout) NewRaw(tx *models.Transaction) []string {
	raw := make([]string, wideColumns)
	raw[0] = models.AccountNameString(tx.AccountID, tx.Names)
	raw[1] = tx.Memo
	raw[2] = tx.Amount.String()
	raw[3] = models.FormatSheetDate(tx.Date.AddDate(0, 0, annualTermDays))
	return raw
}

func (wideLayout) WriteRow(r *SheetRecord) grid.RowWrite {
	color := r.Highlight
	expiry := "N/A"
	if r.Expiry != nil {
		expiry = models.FormatSheetDate(*r.Expiry)
	}
	cells := headCells(r)
	cells = append(cells, grid.ValueCell(expiry, &color))
	cells = append(cells, spacerCell())
	cells = append(cells, csrCells(r.CSR, 6)...)
	return grid.RowWrite{Cells: cells}
}

// monthlyLayout is the A:J shape of the Monthly sheet. Expiry is read when
// present but never written back; the running balance is the live value.
type monthlyLayout struct{}

func (monthlyLayout) Columns() int       { return monthlyColumns }
func (monthlyLayout) TracksExpiry() bool { return false }

func (monthlyLayout) ParseRecord(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord {
	rec := parseHead(ws, cells, row)
	if rec == nil {
		return nil
	}
	rec.Raw = rawValues(cells)
	if expiry, ok := models.ParseSheetDate(cells[3].Value); ok {
		rec.Expiry = &expiry
	}
	rec.CSR = &MonthlyCSR{
		CSRName:        strings.TrimSpace(cells[4].Value),
		LastContact:    strings.TrimSpace(cells[5].Value),
		ContactMethods: strings.TrimSpace(cells[6].Value),
		ScheduledDate:  strings.TrimSpace(cells[7].Value),
		RecognizeAs:    strings.TrimSpace(cells[8].Value),
		LastService:    strings.TrimSpace(cells[9].Value),
		Highlight:      ws.workbook.ResolveColor(cells[4]),
		Raw:            rawValues(cells[4:]),
	}
	return rec
}

func (monthlyLayout) NewRaw(tx *models.Transaction) []string {
	raw := make([]string, monthlyColumns)
	raw[0] = models.AccountNameString(tx.AccountID, tx.Names)
	raw[1] = tx.Memo
	raw[2] = tx.Amount.String()
	return raw
}

func (monthlyLayout) WriteRow(r *SheetRecord) grid.RowWrite {
	cells := headCells(r)
	cells = append(cells, spacerCell())
	cells = append(cells, csrCells(r.CSR, 6)...)
	return grid.RowWrite{Cells: cells}
}

// generatorLayout is the bare A:C shape of the Generator sheet.
type generatorLayout struct{}

func (generatorLayout) Columns() int       { return generatorColumn }
func (generatorLayout) TracksExpiry() bool { return false }

func (generatorLayout) ParseRecord(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord {
	rec := parseHead(ws, cells, row)
	if rec == nil {
		return nil
	}
	rec.Raw = rawValues(cells)
	return rec
}

func (generatorLayout) NewRaw(tx *models.Transaction) []string {
	return []string{
		models.AccountNameString(tx.AccountID, tx.Names),
		tx.Memo,
		tx.Amount.String(),
	}
}

func (generatorLayout) WriteRow(r *SheetRecord) grid.RowWrite {
	return grid.RowWrite{Cells: headCells(r)}
}

// ductLayout is the A:D shape of the Duct Cleaning sheet, with free-form CSR
// text carried verbatim in column D.
type ductLayout struct{}

func (ductLayout) Columns() int       { return ductColumns }
func (ductLayout) TracksExpiry() bool { return false }

func (ductLayout) ParseRecord(ws *Worksheet, cells []grid.Cell, row int) *SheetRecord {
	rec := parseHead(ws, cells, row)
	if rec == nil {
		return nil
	}
	rec.Raw = rawValues(cells)
	rec.CSR = &DuctCleaningCSR{
		Raw:       rawValues(cells[3:]),
		Highlight: ws.workbook.ResolveColor(cells[3]),
	}
	return rec
}

func (ductLayout) NewRaw(tx *models.Transaction) []string {
	raw := make([]string, ductColumns)
	raw[0] = models.AccountNameString(tx.AccountID, tx.Names)
	raw[1] = tx.Memo
	raw[2] = tx.Amount.String()
	return raw
}

func (ductLayout) WriteRow(r *SheetRecord) grid.RowWrite {
	cells := headCells(r)
	cells = append(cells, csrCells(r.CSR, 1)...)
	return grid.RowWrite{Cells: cells}
}
