// Package models defines the core data types shared by the reconciliation
// engine: ledger transactions, member names, and the string/number/date
// normalization helpers the worksheets and the ledger loader both rely on.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MemberName is one person name attached to an account, as typed in the
// source data. Raw preserves the full original text the name was split from.
type MemberName struct {
	First string `json:"first"`
	Last  string `json:"last,omitempty"`
	Raw   string `json:"raw"`
}

// Equal reports whether two names refer to the same person. Comparison is
// case-sensitive on first and last name; Raw is ignored.
func (n MemberName) Equal(other MemberName) bool {
	return n.First == other.First && n.Last == other.Last
}

// String returns the display form of the name.
func (n MemberName) String() string {
	if n.Last != "" {
		return n.First + " " + n.Last
	}
	return n.First
}

// Transaction is one entry from the external accounting ledger export.
// A Transaction is created once per ledger row at load time and is read-only
// input to reconciliation thereafter.
//
// The amount sign is semantically meaningful: positive amounts are new
// charges, negative amounts are payments or credits that need a matching
// worksheet record. An amount of exactly zero is inert and never reconciled.
type Transaction struct {
	Raw       map[string]string `json:"raw"`
	Index     int               `json:"index"`
	AccountID int64             `json:"accountID"`
	Names     []MemberName      `json:"names"`
	Memo      string            `json:"memo"`
	Amount    decimal.Decimal   `json:"amount"`
	Date      time.Time         `json:"date"`
}

// Validate performs basic validation on the Transaction.
func (t *Transaction) Validate() error {
	if t.AccountID == 0 {
		return fmt.Errorf("transaction account ID cannot be zero")
	}
	if len(t.Names) == 0 {
		return fmt.Errorf("transaction must carry at least one member name")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

// IsInert reports whether the transaction should be skipped entirely.
func (t *Transaction) IsInert() bool {
	return t.Amount.IsZero()
}

// AbsAmount returns the absolute value of the transaction amount.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CloneNames returns a copy of the name list so worksheet records never
// alias the transaction's own slice.
func (t *Transaction) CloneNames() []MemberName {
	names := make([]MemberName, len(t.Names))
	copy(names, t.Names)
	return names
}

// String returns a string representation of the Transaction.
func (t *Transaction) String() string {
	names := make([]string, len(t.Names))
	for i, n := range t.Names {
		names[i] = n.String()
	}
	return fmt.Sprintf("Transaction{Row: %d, Account: %d, Names: [%s], Memo: %s, Amount: %s, Date: %s}",
		t.Index, t.AccountID, strings.Join(names, ", "), t.Memo,
		t.Amount.StringFixed(2), t.Date.Format("2006-01-02"))
}
