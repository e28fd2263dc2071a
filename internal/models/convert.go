package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a currency cell into a decimal, tolerating dollar signs
// and thousands separators. An empty or whitespace-only string is an error;
// callers that want blank-means-zero use ParseAmountOrZero.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount string is empty")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParseAmountOrZero behaves like ParseAmount but treats a blank cell as zero,
// matching how the ledger export represents no-charge lines.
func ParseAmountOrZero(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(s)
}

// ParseSheetDate parses the slash-separated date forms found in worksheet and
// ledger cells: M/D/YYYY, M/D/YY (assumed 20xx), and M/YYYY meaning the first
// of the month. Returns ok=false for blank or unparseable values, which the
// sheets treat as "no date" rather than an error.
func ParseSheetDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")

	var year, month, day int
	var err error

	switch len(parts) {
	case 3:
		if month, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
			return time.Time{}, false
		}
		if day, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
			return time.Time{}, false
		}
		if year, err = parseYear(parts[2]); err != nil {
			return time.Time{}, false
		}
	case 2:
		if month, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
			return time.Time{}, false
		}
		day = 1
		if year, err = parseYear(parts[1]); err != nil {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		s = "20" + s
	}
	return strconv.Atoi(s)
}

// FormatSheetDate renders a date in the MM/DD/YYYY form the worksheets use.
func FormatSheetDate(t time.Time) string {
	return t.Format("01/02/2006")
}

// FormatDateSuffix renders the MM-DD-YYYY suffix appended to dated snapshot
// sheet titles.
func FormatDateSuffix(t time.Time) string {
	return t.Format("01-02-2006")
}

// ParseDateSuffix parses the MM-DD-YYYY suffix of a dated snapshot sheet
// title. The second return value reports whether the suffix was a date.
func ParseDateSuffix(s string) (time.Time, bool) {
	t, err := time.Parse("01-02-2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
