package grid

import "strings"

// ColumnToIndex converts a column letter ("A", "B", ... "AA") to its 1-based
// index.
func ColumnToIndex(col string) int {
	idx := 0
	col = strings.ToUpper(strings.TrimSpace(col))
	for i := 0; i < len(col); i++ {
		idx = idx*26 + int(col[i]-'A'+1)
	}
	return idx
}

// IndexToColumn converts a 1-based column index to its letter form.
func IndexToColumn(idx int) string {
	var b []byte
	for idx > 0 {
		idx--
		b = append([]byte{byte('A' + idx%26)}, b...)
		idx /= 26
	}
	return string(b)
}

// ColumnsInRange returns the column count of a range like "A:K".
func ColumnsInRange(rangeStr string) int {
	parts := strings.SplitN(rangeStr, ":", 2)
	if len(parts) != 2 {
		return 1
	}
	return ColumnToIndex(parts[1]) - ColumnToIndex(parts[0]) + 1
}
