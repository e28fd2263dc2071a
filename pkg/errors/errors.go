// Package errors defines the closed taxonomy of recoverable reconciliation
// errors. Every kind carries enough original context to render a diagnostic
// report row, a stable sort key for deterministic report ordering, and (where
// it applies) the ledger row index used to deduplicate errors raised for the
// same export line.
//
// All of these are recoverable at the row/transaction level: they are
// recorded, the offending row is skipped, and processing continues. Failures
// from the record store itself are fatal and travel separately (see fatal.go).
package errors

import "fmt"

// Kind identifies one variant of the closed error taxonomy. The ordinal
// doubles as the primary component of the report sort key, so the order of
// these constants is part of the report contract.
type Kind int

const (
	KindNameMissing Kind = iota
	KindNameParse
	KindNumericParse
	KindQBParsing
	KindNoRecordsToReconcile
	KindNoMatchingRecord
	KindUnableToRoute
)

// String returns the kind's wire/display name.
func (k Kind) String() string {
	switch k {
	case KindNameMissing:
		return "NameMissing"
	case KindNameParse:
		return "NameParse"
	case KindNumericParse:
		return "NumericParse"
	case KindQBParsing:
		return "QBParsing"
	case KindNoRecordsToReconcile:
		return "NoRecordsToReconcile"
	case KindNoMatchingRecord:
		return "NoMatchingRecord"
	case KindUnableToRoute:
		return "UnableToRoute"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SortKey orders errors deterministically in the final report: kind ordinal
// first, then the source name, then the row index within that source.
type SortKey struct {
	Ordinal int
	Source  string
	Row     int
}

// Less reports whether k sorts before other.
func (k SortKey) Less(other SortKey) bool {
	if k.Ordinal != other.Ordinal {
		return k.Ordinal < other.Ordinal
	}
	if k.Source != other.Source {
		return k.Source < other.Source
	}
	return k.Row < other.Row
}

// ReportRow is the four report columns every error renders into:
// source identifier, row/transaction locator, human-readable message, and the
// offending raw value.
type ReportRow struct {
	Source   string
	Location string
	Message  string
	RawValue string
}

// RunError is implemented by every member of the taxonomy.
type RunError interface {
	error

	Kind() Kind
	SortKey() SortKey
	Report() ReportRow

	// LedgerRow returns the offending ledger export row index. ok is false
	// for errors located on a worksheet rather than in the export.
	LedgerRow() (int, bool)
}

// NameMissingError records a worksheet row whose name column was blank.
type NameMissingError struct {
	Source string
	Row    int
}

func (e *NameMissingError) Error() string {
	return fmt.Sprintf("NameMissing in %q at row %d: name field is missing or empty", e.Source, e.Row)
}

func (e *NameMissingError) Kind() Kind { return KindNameMissing }

func (e *NameMissingError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindNameMissing), Source: e.Source, Row: e.Row}
}

func (e *NameMissingError) Report() ReportRow {
	return ReportRow{
		Source:   "SOURCE WORKSHEET - " + e.Source,
		Location: fmt.Sprintf("Row: %d", e.Row),
		Message:  e.Error(),
	}
}

func (e *NameMissingError) LedgerRow() (int, bool) { return 0, false }

// NameParseError records a worksheet name cell that had content but no
// trailing numeric account-ID token.
type NameParseError struct {
	Source  string
	RawName string
	Row     int
}

func (e *NameParseError) Error() string {
	return fmt.Sprintf("NameParse in %q at row %d: failed to parse name from %q", e.Source, e.Row, e.RawName)
}

func (e *NameParseError) Kind() Kind { return KindNameParse }

func (e *NameParseError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindNameParse), Source: e.Source, Row: e.Row}
}

func (e *NameParseError) Report() ReportRow {
	return ReportRow{
		Source:   "SOURCE WORKSHEET - " + e.Source,
		Location: fmt.Sprintf("Row: %d", e.Row),
		Message:  e.Error(),
		RawValue: e.RawName,
	}
}

func (e *NameParseError) LedgerRow() (int, bool) { return 0, false }

// NumericParseError records a worksheet amount cell that was blank or not a
// number.
type NumericParseError struct {
	Source string
	Value  string
	Row    int
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("NumericParse: invalid numeric value %q at row %d in sheet %s", e.Value, e.Row, e.Source)
}

func (e *NumericParseError) Kind() Kind { return KindNumericParse }

func (e *NumericParseError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindNumericParse), Source: e.Source, Row: e.Row}
}

func (e *NumericParseError) Report() ReportRow {
	return ReportRow{
		Source:   "SOURCE WORKSHEET - " + e.Source,
		Location: fmt.Sprintf("Row: %d", e.Row),
		Message:  e.Error(),
		RawValue: e.Value,
	}
}

func (e *NumericParseError) LedgerRow() (int, bool) { return 0, false }

// QBParsingError records a ledger export row that could not yield a valid
// transaction. Unlike the worksheet errors it carries the whole raw row.
type QBParsingError struct {
	Raw   map[string]string
	Index int
	Msg   string
}

func (e *QBParsingError) Error() string {
	return fmt.Sprintf("QBParsing: invalid record at export row %d: %s", e.Index, e.Msg)
}

func (e *QBParsingError) Kind() Kind { return KindQBParsing }

func (e *QBParsingError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindQBParsing), Row: e.Index}
}

func (e *QBParsingError) Report() ReportRow {
	return ReportRow{
		Source:   "QB EXPORT",
		Location: fmt.Sprintf("Row: %d", e.Index),
		Message:  e.Error(),
		RawValue: fmt.Sprintf("%v", e.Raw),
	}
}

func (e *QBParsingError) LedgerRow() (int, bool) { return e.Index, true }

// TransactionRef carries the ledger-side context a reconciliation failure
// needs for its report row without referencing the transaction itself.
// Amount is the signed decimal string; it lands in the report's value column
// so the trailing total row can sum the dollar impact.
type TransactionRef struct {
	Index     int
	AccountID int64
	Raw       string
	Amount    string
}

// NoRecordsError records a transaction whose account has no existing
// worksheet records anywhere applicable, with no fallback absorbing it.
type NoRecordsError struct {
	Sheet string
	Tx    TransactionRef
}

func (e *NoRecordsError) Error() string {
	return fmt.Sprintf("NoRecordsToReconcile in sheet %q: no existing records for %s (export row %d)",
		e.Sheet, e.Tx.Raw, e.Tx.Index)
}

func (e *NoRecordsError) Kind() Kind { return KindNoRecordsToReconcile }

func (e *NoRecordsError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindNoRecordsToReconcile), Source: e.Sheet, Row: e.Tx.Index}
}

func (e *NoRecordsError) Report() ReportRow {
	return ReportRow{
		Source:   "SOURCE WORKSHEET - " + e.Sheet,
		Location: fmt.Sprintf("QB Row: %d", e.Tx.Index),
		Message:  e.Error(),
		RawValue: e.Tx.Amount,
	}
}

func (e *NoRecordsError) LedgerRow() (int, bool) { return e.Tx.Index, true }

// NoMatchError records a transaction whose account has records but none with
// a balance magnitude equal to the transaction amount.
type NoMatchError struct {
	Sheet string
	Tx    TransactionRef
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("NoMatchingRecord in sheet %q: no matching record for %s (export row %d)",
		e.Sheet, e.Tx.Raw, e.Tx.Index)
}

func (e *NoMatchError) Kind() Kind { return KindNoMatchingRecord }

func (e *NoMatchError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindNoMatchingRecord), Source: e.Sheet, Row: e.Tx.Index}
}

func (e *NoMatchError) Report() ReportRow {
	return ReportRow{
		Source:   "SOURCE WORKSHEET - " + e.Sheet,
		Location: fmt.Sprintf("QB Row: %d", e.Tx.Index),
		Message:  e.Error(),
		RawValue: e.Tx.Amount,
	}
}

func (e *NoMatchError) LedgerRow() (int, bool) { return e.Tx.Index, true }

// UnableToRouteError reports a transaction that could not be assigned to any
// worksheet. It is raised only when the routing default sheet is itself
// missing from the workbook.
type UnableToRouteError struct {
	Tx TransactionRef
}

func (e *UnableToRouteError) Error() string {
	return fmt.Sprintf("UnableToRoute: no routing rule or default sheet for account %d (export row %d)",
		e.Tx.AccountID, e.Tx.Index)
}

func (e *UnableToRouteError) Kind() Kind { return KindUnableToRoute }

func (e *UnableToRouteError) SortKey() SortKey {
	return SortKey{Ordinal: int(KindUnableToRoute), Row: e.Tx.Index}
}

func (e *UnableToRouteError) Report() ReportRow {
	return ReportRow{
		Source:   "QB EXPORT",
		Location: fmt.Sprintf("Row: %d", e.Tx.Index),
		Message:  e.Error(),
		RawValue: e.Tx.Amount,
	}
}

func (e *UnableToRouteError) LedgerRow() (int, bool) { return e.Tx.Index, true }
