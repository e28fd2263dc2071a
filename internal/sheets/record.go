package sheets

import (
	"fmt"
	"strings"
	"time"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// LineSeparator joins multi-valued text fields (memos, merged CSR text) the
// way the worksheets store them.
const LineSeparator = ";\n"

// CSRData is the closed set of sheet-type-specific service data shapes.
// Each variant lists its mergeable fields explicitly in its merge method.
type CSRData interface {
	// Values renders the variant's cells in sheet column order.
	Values() []string
	csrData()
}

// AnnualCSR is the service-data shape used by the Annual and Plumbing sheets.
type AnnualCSR struct {
	CSRName     string
	LastContact string
	Notes       string
	DateBooked  string
	InstallDate string
	Equipment   string
	Highlight   grid.Color
	Raw         []string
}

func (c *AnnualCSR) csrData() {}

// Values renders the six CSR columns in sheet order.
func (c *AnnualCSR) Values() []string {
	return []string{c.CSRName, c.LastContact, c.Notes, c.DateBooked, c.InstallDate, c.Equipment}
}

func (c *AnnualCSR) merge(other *AnnualCSR) {
	if other == nil {
		return
	}
	c.CSRName = mergeText(c.CSRName, other.CSRName)
	c.LastContact = mergeText(c.LastContact, other.LastContact)
	c.Notes = mergeText(c.Notes, other.Notes)
	c.DateBooked = mergeText(c.DateBooked, other.DateBooked)
	c.InstallDate = mergeText(c.InstallDate, other.InstallDate)
	c.Equipment = mergeText(c.Equipment, other.Equipment)
}

// MonthlyCSR is the service-data shape used by the Monthly sheet.
type MonthlyCSR struct {
	CSRName        string
	LastContact    string
	ContactMethods string
	ScheduledDate  string
	RecognizeAs    string
	LastService    string
	Highlight      grid.Color
	Raw            []string
}

func (c *MonthlyCSR) csrData() {}

// Values renders the six CSR columns in sheet order.
func (c *MonthlyCSR) Values() []string {
	return []string{c.CSRName, c.LastContact, c.ContactMethods, c.ScheduledDate, c.RecognizeAs, c.LastService}
}

func (c *MonthlyCSR) merge(other *MonthlyCSR) {
	if other == nil {
		return
	}
	c.CSRName = mergeText(c.CSRName, other.CSRName)
	c.LastContact = mergeText(c.LastContact, other.LastContact)
	c.ContactMethods = mergeText(c.ContactMethods, other.ContactMethods)
	c.ScheduledDate = mergeText(c.ScheduledDate, other.ScheduledDate)
	c.RecognizeAs = mergeText(c.RecognizeAs, other.RecognizeAs)
	c.LastService = mergeText(c.LastService, other.LastService)
}

// DuctCleaningCSR is the free-form single-column service data on the Duct
// Cleaning sheet; only the raw text is carried and merged.
type DuctCleaningCSR struct {
	Raw       []string
	Highlight grid.Color
}

func (c *DuctCleaningCSR) csrData() {}

// Values renders the single CSR column.
func (c *DuctCleaningCSR) Values() []string {
	if len(c.Raw) == 0 {
		return []string{""}
	}
	return []string{c.Raw[0]}
}

func (c *DuctCleaningCSR) merge(other *DuctCleaningCSR) {
	if other == nil {
		return
	}
	left := ""
	if len(c.Raw) > 0 {
		left = c.Raw[0]
	}
	right := ""
	if len(other.Raw) > 0 {
		right = other.Raw[0]
	}
	c.Raw = []string{mergeText(left, right)}
}

func mergeText(left, right string) string {
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if right == "" {
		return left
	}
	if left == "" {
		return right
	}
	return left + LineSeparator + right
}

// SheetRecord is one row of existing data on a worksheet. Its identity is
// unique and stable for the lifetime of a reconciliation run; it is created
// when the backing grid is parsed or when a new charge is appended, and
// removed from its worksheet's arena when consumed by a match or absorbed
// into another record by a merge.
type SheetRecord struct {
	id    int64
	arena *recordArena

	Sheet     string
	Row       int
	Raw       []string
	AccountID int64
	Names     []models.MemberName
	Memos     []string
	Balance   decimal.NullDecimal
	Expiry    *time.Time
	CSR       CSRData
	Highlight grid.Color

	// Reconciled links the transaction that settled this record, when any.
	Reconciled *models.Transaction
}

// ID returns the record's stable identity.
func (r *SheetRecord) ID() int64 { return r.id }

// IsEmpty reports whether every raw cell value is blank. Such rows mark the
// logical end of the occupied row range for a worksheet.
func (r *SheetRecord) IsEmpty() bool {
	for _, v := range r.Raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Delete removes the record from its worksheet's live record set.
func (r *SheetRecord) Delete() {
	if r.arena != nil {
		r.arena.remove(r.id)
	}
}

// MemoText renders the memo list the way the sheets store it.
func (r *SheetRecord) MemoText() string {
	return strings.Join(r.Memos, LineSeparator)
}

// BalanceText renders the balance cell, empty when the balance is null.
func (r *SheetRecord) BalanceText() string {
	if !r.Balance.Valid {
		return ""
	}
	return r.Balance.Decimal.String()
}

// Merge folds other into r and removes other from its worksheet. Both must
// share the same account ID; violating that is a programming error, not a
// recoverable condition. Name and memo lists are unioned first-seen-wins,
// balances are summed with null treated as zero (an explicit zero result
// stays explicit), and CSR text fields are joined pairwise.
//
// Merging more than two records must be a strict left fold in original row
// order; the fold keeps name and memo ordering deterministic.
func (r *SheetRecord) Merge(other *SheetRecord) *SheetRecord {
	if r.AccountID != other.AccountID {
		panic(fmt.Sprintf("merge across accounts: %d != %d", r.AccountID, other.AccountID))
	}

	for _, name := range other.Names {
		if !containsName(r.Names, name) {
			r.Names = append(r.Names, name)
		}
	}
	for _, memo := range other.Memos {
		if !containsString(r.Memos, memo) {
			r.Memos = append(r.Memos, memo)
		}
	}

	if !r.Balance.Valid {
		r.Balance = decimal.NullDecimal{Valid: true}
	}
	if other.Balance.Valid {
		r.Balance.Decimal = r.Balance.Decimal.Add(other.Balance.Decimal)
	}

	r.CSR = mergeCSR(r.CSR, other.CSR)

	other.Delete()
	return r
}

// mergeCSR combines two variant values of the same shape, treating nil as an
// empty variant of the other side's shape.
func mergeCSR(left, right CSRData) CSRData {
	switch l := left.(type) {
	case *AnnualCSR:
		r, _ := right.(*AnnualCSR)
		l.merge(r)
		return l
	case *MonthlyCSR:
		r, _ := right.(*MonthlyCSR)
		l.merge(r)
		return l
	case *DuctCleaningCSR:
		r, _ := right.(*DuctCleaningCSR)
		l.merge(r)
		return l
	case nil:
		switch r := right.(type) {
		case *AnnualCSR:
			merged := &AnnualCSR{Highlight: r.Highlight}
			merged.merge(r)
			return merged
		case *MonthlyCSR:
			merged := &MonthlyCSR{Highlight: r.Highlight}
			merged.merge(r)
			return merged
		case *DuctCleaningCSR:
			merged := &DuctCleaningCSR{Highlight: r.Highlight}
			merged.merge(r)
			return merged
		}
		return nil
	default:
		return left
	}
}

func containsName(names []models.MemberName, name models.MemberName) bool {
	for _, n := range names {
		if n.Equal(name) {
			return true
		}
	}
	return false
}

func containsString(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}

// recordArena owns a worksheet's records. Records stay in original row order;
// deletion removes the id from the live set instead of mutating the backing
// slice, so traversal during reconciliation never invalidates itself.
type recordArena struct {
	records []*SheetRecord
	live    map[int64]bool
}

func newRecordArena() *recordArena {
	return &recordArena{live: make(map[int64]bool)}
}

func (a *recordArena) add(r *SheetRecord) {
	r.arena = a
	a.records = append(a.records, r)
	a.live[r.id] = true
}

func (a *recordArena) remove(id int64) {
	delete(a.live, id)
}

func (a *recordArena) isLive(id int64) bool {
	return a.live[id]
}

// liveRecords returns the live records in original row order.
func (a *recordArena) liveRecords() []*SheetRecord {
	out := make([]*SheetRecord, 0, len(a.live))
	for _, r := range a.records {
		if a.live[r.id] {
			out = append(out, r)
		}
	}
	return out
}
