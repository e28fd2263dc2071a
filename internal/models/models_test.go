package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSplitNameAndAccount(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantID    int64
		wantName  string
		wantOK    bool
	}{
		{"simple", "John Smith 1001", 1001, "John Smith", true},
		{"joint", "John and Jane Smith 1002", 1002, "John and Jane Smith", true},
		{"numeric name part", "John Smith II 42 1003", 1003, "John Smith II 42", true},
		{"extra spaces", "  John   Smith   1001  ", 1001, "John Smith", true},
		{"no account", "John Smith", 0, "", false},
		{"empty", "   ", 0, "", false},
		{"digits only", "1001", 1001, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, ok := SplitNameAndAccount(tt.raw)
			if ok != tt.wantOK || id != tt.wantID || name != tt.wantName {
				t.Errorf("SplitNameAndAccount(%q) = %d, %q, %v; want %d, %q, %v",
					tt.raw, id, name, ok, tt.wantID, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestSplitMultiNames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []MemberName
	}{
		{
			"single",
			"John Smith",
			[]MemberName{{First: "John", Last: "Smith"}},
		},
		{
			"joint shared last name",
			"John and Jane Smith",
			[]MemberName{{First: "John", Last: "Smith"}, {First: "Jane", Last: "Smith"}},
		},
		{
			"ampersand",
			"John & Jane Smith",
			[]MemberName{{First: "John", Last: "Smith"}, {First: "Jane", Last: "Smith"}},
		},
		{
			"own last name per group",
			"John Doe and Jane Smith",
			[]MemberName{{First: "John", Last: "Doe"}, {First: "Jane", Last: "Smith"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMultiNames(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitMultiNames(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i].First != tt.want[i].First || got[i].Last != tt.want[i].Last {
					t.Errorf("SplitMultiNames(%q)[%d] = %v, want %v", tt.raw, i, got[i], tt.want[i])
				}
				if got[i].Raw != tt.raw {
					t.Errorf("Raw = %q, want full input %q", got[i].Raw, tt.raw)
				}
			}
		})
	}
}

func TestAccountNameString(t *testing.T) {
	tests := []struct {
		name      string
		accountID int64
		names     []MemberName
		want      string
	}{
		{"single", 1001, []MemberName{{First: "John", Last: "Smith"}}, "John Smith 1001"},
		{"single no last", 1001, []MemberName{{First: "John"}}, "John 1001"},
		{"joint", 1002, []MemberName{{First: "John", Last: "Smith"}, {First: "Jane", Last: "Smith"}}, "John and Jane Smith 1002"},
		{"no account", 0, []MemberName{{First: "John", Last: "Smith"}}, "John Smith"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AccountNameString(tt.accountID, tt.names); got != tt.want {
				t.Errorf("AccountNameString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"119.00", "119", false},
		{"$1,190.00", "1190", false},
		{"-25.00", "-25", false},
		{" $ 42 ", "42", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAmount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if got, err := ParseAmountOrZero("   "); err != nil || !got.IsZero() {
		t.Errorf("ParseAmountOrZero(blank) = %s, %v; want zero, nil", got, err)
	}
}

func TestParseSheetDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{"2/1/2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"02/01/24", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"3/2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"N/A", time.Time{}, false},
		{"13/1/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseSheetDate(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParseSheetDate(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseSheetDate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := &Transaction{
		AccountID: 1001,
		Names:     []MemberName{{First: "John", Last: "Smith"}},
		Amount:    decimal.RequireFromString("25"),
		Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	missingAccount := *valid
	missingAccount.AccountID = 0
	if err := missingAccount.Validate(); err == nil {
		t.Error("Validate() with zero account = nil, want error")
	}

	missingNames := *valid
	missingNames.Names = nil
	if err := missingNames.Validate(); err == nil {
		t.Error("Validate() with no names = nil, want error")
	}
}

func TestTransactionIsInert(t *testing.T) {
	zero := &Transaction{Amount: decimal.Zero}
	if !zero.IsInert() {
		t.Error("IsInert() = false for zero amount, want true")
	}
	refund := &Transaction{Amount: decimal.RequireFromString("-0.01")}
	if refund.IsInert() {
		t.Error("IsInert() = true for non-zero amount, want false")
	}
}
