package store

import (
	"testing"
	"time"

	"membership-reconciliation-service/internal/routing"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestRuleRoundTripAndOrdering(t *testing.T) {
	s := openTestStore(t)

	rules := []routing.Rule{
		{Name: "low", Sheet: "Monthly", Max: nd("100"), Priority: 1},
		{Name: "generator", Sheet: "Generator", Min: nd("500"), Max: nd("700"), Priority: 10},
		{Name: "open", Sheet: "Annual", Min: nd("100"), Priority: 5},
	}
	for _, r := range rules {
		if _, err := s.AddRule(r); err != nil {
			t.Fatalf("AddRule(%q) error = %v", r.Name, err)
		}
	}

	got, err := s.ListRules()
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRules() len = %d, want 3", len(got))
	}
	wantOrder := []string{"generator", "open", "low"}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Fatalf("ListRules() order = %v, want %v", got, wantOrder)
		}
	}

	gen := got[0]
	if !gen.Min.Valid || !gen.Min.Decimal.Equal(decimal.RequireFromString("500")) {
		t.Errorf("Min = %v, want 500", gen.Min)
	}
	if got[1].Max.Valid {
		t.Errorf("open rule Max = %v, want null", got[1].Max)
	}
}

func TestAddRuleRejectsDuplicateName(t *testing.T) {
	s := openTestStore(t)
	rule := routing.Rule{Name: "dup", Sheet: "Monthly"}
	if _, err := s.AddRule(rule); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if _, err := s.AddRule(rule); err == nil {
		t.Fatal("AddRule() duplicate error = nil, want unique violation")
	}
}

func TestAddRuleValidates(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddRule(routing.Rule{Name: "bad"}); err == nil {
		t.Fatal("AddRule() error = nil, want validation failure")
	}
}

func TestRemoveRule(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddRule(routing.Rule{Name: "r", Sheet: "Monthly"}); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if err := s.RemoveRule("r"); err != nil {
		t.Fatalf("RemoveRule() error = %v", err)
	}
	if err := s.RemoveRule("r"); err == nil {
		t.Fatal("RemoveRule() of absent rule = nil, want error")
	}
}

func TestLastRunDateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	got, err := s.LastRunDate()
	if err != nil {
		t.Fatalf("LastRunDate() error = %v", err)
	}
	if got != nil {
		t.Fatalf("LastRunDate() = %v, want nil before first run", got)
	}

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := s.SetLastRunDate(want); err != nil {
		t.Fatalf("SetLastRunDate() error = %v", err)
	}
	got, err = s.LastRunDate()
	if err != nil {
		t.Fatalf("LastRunDate() error = %v", err)
	}
	if got == nil || !got.Equal(want) {
		t.Errorf("LastRunDate() = %v, want %v", got, want)
	}
}

func TestWorkbookPathRoundTrip(t *testing.T) {
	s := openTestStore(t)

	path, err := s.WorkbookPath()
	if err != nil || path != "" {
		t.Fatalf("WorkbookPath() = %q, %v; want empty, nil", path, err)
	}
	if err := s.SetWorkbookPath("/data/members.xlsx"); err != nil {
		t.Fatalf("SetWorkbookPath() error = %v", err)
	}
	if err := s.SetWorkbookPath("/data/members-v2.xlsx"); err != nil {
		t.Fatalf("SetWorkbookPath() overwrite error = %v", err)
	}
	path, err = s.WorkbookPath()
	if err != nil || path != "/data/members-v2.xlsx" {
		t.Errorf("WorkbookPath() = %q, %v; want latest value", path, err)
	}
}
