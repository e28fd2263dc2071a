package errors

import (
	"fmt"
	"testing"
)

func TestDeduplicateKeepsFirstPerLedgerRow(t *testing.T) {
	tx := TransactionRef{Index: 7, AccountID: 1001, Raw: "John Smith 1001", Amount: "-25"}
	first := &NoRecordsError{Sheet: "Generator", Tx: tx}
	second := &NoMatchError{Sheet: "Monthly", Tx: tx} // same ledger row, different kind

	got := Deduplicate([]RunError{first, second})
	if len(got) != 1 {
		t.Fatalf("Deduplicate() len = %d, want 1", len(got))
	}
	if got[0] != RunError(first) {
		t.Errorf("Deduplicate() kept %v, want first-discovered error", got[0])
	}
}

func TestDeduplicateLeavesWorksheetErrorsAlone(t *testing.T) {
	errs := []RunError{
		&NameMissingError{Source: "Annual", Row: 2},
		&NameMissingError{Source: "Annual", Row: 2},
		&NameParseError{Source: "Monthly", RawName: "???", Row: 2},
	}
	if got := Deduplicate(errs); len(got) != 3 {
		t.Errorf("Deduplicate() len = %d, want 3 (worksheet errors carry no ledger row)", len(got))
	}
}

func TestSortForReportOrdersByKindThenSourceThenRow(t *testing.T) {
	errs := []RunError{
		&NoMatchError{Sheet: "Annual", Tx: TransactionRef{Index: 9}},
		&NameMissingError{Source: "Monthly", Row: 5},
		&NameMissingError{Source: "Annual", Row: 8},
		&NameMissingError{Source: "Annual", Row: 2},
		&QBParsingError{Index: 3},
	}
	SortForReport(errs)

	wantKinds := []Kind{KindNameMissing, KindNameMissing, KindNameMissing, KindQBParsing, KindNoMatchingRecord}
	for i, want := range wantKinds {
		if errs[i].Kind() != want {
			t.Fatalf("sorted[%d].Kind() = %v, want %v", i, errs[i].Kind(), want)
		}
	}
	if errs[0].SortKey().Source != "Annual" || errs[0].SortKey().Row != 2 {
		t.Errorf("sorted[0] = %v, want Annual row 2 first", errs[0])
	}
	if errs[1].SortKey().Row != 8 {
		t.Errorf("sorted[1] row = %d, want 8 (same source sorts by row)", errs[1].SortKey().Row)
	}
}

func TestKindStringNamesAreStable(t *testing.T) {
	tests := map[Kind]string{
		KindNameMissing:          "NameMissing",
		KindNameParse:            "NameParse",
		KindNumericParse:         "NumericParse",
		KindQBParsing:            "QBParsing",
		KindNoRecordsToReconcile: "NoRecordsToReconcile",
		KindNoMatchingRecord:     "NoMatchingRecord",
		KindUnableToRoute:        "UnableToRoute",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestFatalWrapping(t *testing.T) {
	if Fatal("loading workbook", nil) != nil {
		t.Error("Fatal(nil) != nil")
	}

	cause := fmt.Errorf("disk gone")
	err := Fatal("loading workbook", cause)
	if !IsFatal(err) {
		t.Error("IsFatal() = false for wrapped fatal error")
	}
	if IsFatal(cause) {
		t.Error("IsFatal() = true for bare cause")
	}
}
