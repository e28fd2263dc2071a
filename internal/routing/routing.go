// Package routing assigns settled transactions to worksheets by amount
// magnitude. Rules live in the rule store; the engine takes an immutable
// snapshot at run start so mid-run edits never change behavior.
package routing

import (
	"fmt"
	"sort"

	"membership-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultSheet receives every transaction no rule claims.
const DefaultSheet = "Monthly"

// Rule maps an inclusive absolute-amount range to a destination sheet.
// Either bound may be open. Higher priority wins; rule order in the store is
// otherwise irrelevant.
type Rule struct {
	ID       int64
	Name     string
	Sheet    string
	Min      decimal.NullDecimal
	Max      decimal.NullDecimal
	Priority int
}

// Validate checks a rule before it enters the store.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Sheet == "" {
		return fmt.Errorf("rule %q: destination sheet is required", r.Name)
	}
	if r.Min.Valid && r.Min.Decimal.IsNegative() {
		return fmt.Errorf("rule %q: minimum amount must not be negative", r.Name)
	}
	if r.Min.Valid && r.Max.Valid && r.Max.Decimal.LessThan(r.Min.Decimal) {
		return fmt.Errorf("rule %q: maximum amount %s below minimum %s", r.Name, r.Max.Decimal, r.Min.Decimal)
	}
	return nil
}

// Matches reports whether an absolute amount falls inside the rule's range.
func (r Rule) Matches(abs decimal.Decimal) bool {
	if r.Min.Valid && abs.LessThan(r.Min.Decimal) {
		return false
	}
	if r.Max.Valid && abs.GreaterThan(r.Max.Decimal) {
		return false
	}
	return true
}

// RuleSet is an immutable routing snapshot ordered by descending priority.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet snapshots the given rules. The input slice is copied; ties in
// priority keep the input order.
func NewRuleSet(rules []Rule) *RuleSet {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &RuleSet{rules: sorted}
}

// Rules returns the snapshot in evaluation order.
func (rs *RuleSet) Rules() []Rule { return rs.rules }

// Route returns the destination sheet for a transaction: the
// highest-priority rule whose range contains the absolute amount, or the
// default sheet when none does. Routing is pure and sign-blind; the sign
// only matters once the destination sheet reconciles.
func (rs *RuleSet) Route(tx *models.Transaction) string {
	abs := tx.AbsAmount()
	for _, r := range rs.rules {
		if r.Matches(abs) {
			return r.Sheet
		}
	}
	return DefaultSheet
}
