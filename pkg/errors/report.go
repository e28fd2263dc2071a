package errors

import "sort"

// Deduplicate drops errors that duplicate an earlier error's ledger row.
// Two errors that both carry a ledger row index and share it are duplicates
// regardless of kind; the first encountered wins. Errors located on a
// worksheet rather than in the export are never deduplicated.
func Deduplicate(errs []RunError) []RunError {
	seen := make(map[int]bool, len(errs))
	unique := make([]RunError, 0, len(errs))

	for _, err := range errs {
		if row, ok := err.LedgerRow(); ok {
			if seen[row] {
				continue
			}
			seen[row] = true
		}
		unique = append(unique, err)
	}

	return unique
}

// SortForReport orders errors by their type-specific sort keys, giving a
// deterministic, stable report ordering across runs.
func SortForReport(errs []RunError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].SortKey().Less(errs[j].SortKey())
	})
}
