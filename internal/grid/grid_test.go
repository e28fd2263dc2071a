package grid

import "testing"

func TestColumnLetterArithmetic(t *testing.T) {
	tests := []struct {
		col string
		idx int
	}{
		{"A", 1},
		{"D", 4},
		{"K", 11},
		{"Z", 26},
		{"AA", 27},
		{"AK", 37},
	}
	for _, tt := range tests {
		if got := ColumnToIndex(tt.col); got != tt.idx {
			t.Errorf("ColumnToIndex(%q) = %d, want %d", tt.col, got, tt.idx)
		}
		if got := IndexToColumn(tt.idx); got != tt.col {
			t.Errorf("IndexToColumn(%d) = %q, want %q", tt.idx, got, tt.col)
		}
	}
}

func TestColumnsInRange(t *testing.T) {
	tests := []struct {
		rng  string
		want int
	}{
		{"A:K", 11},
		{"A:J", 10},
		{"A:C", 3},
		{"A:D", 4},
		{"B:B", 1},
	}
	for _, tt := range tests {
		if got := ColumnsInRange(tt.rng); got != tt.want {
			t.Errorf("ColumnsInRange(%q) = %d, want %d", tt.rng, got, tt.want)
		}
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	c, err := ColorFromHex("#FFCC00")
	if err != nil {
		t.Fatalf("ColorFromHex() error = %v", err)
	}
	if got := c.Hex(); got != "FFCC00" {
		t.Errorf("Hex() = %q, want FFCC00", got)
	}
}

func TestColorFromHexDropsAlpha(t *testing.T) {
	argb, err := ColorFromHex("FF6750A4")
	if err != nil {
		t.Fatalf("ColorFromHex(ARGB) error = %v", err)
	}
	rgb, err := ColorFromHex("6750A4")
	if err != nil {
		t.Fatalf("ColorFromHex(RGB) error = %v", err)
	}
	if argb != rgb {
		t.Errorf("ARGB parse = %v, RGB parse = %v; want equal", argb, rgb)
	}
}

func TestColorFromHexRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "FFF", "GGGGGG", "12345"} {
		if _, err := ColorFromHex(raw); err == nil {
			t.Errorf("ColorFromHex(%q) error = nil, want error", raw)
		}
	}
}

func TestResolveColor(t *testing.T) {
	doc := &Document{Palette: map[string]Color{"accent1": {Red: 0.5}}}

	literal := Color{Red: 1, Green: 0.8}
	if got := doc.ResolveColor(Cell{Color: &literal}); got != literal {
		t.Errorf("ResolveColor(literal) = %v, want %v", got, literal)
	}
	if got := doc.ResolveColor(Cell{ThemeRef: "accent1"}); got != (Color{Red: 0.5}) {
		t.Errorf("ResolveColor(theme) = %v, want palette entry", got)
	}
	if got := doc.ResolveColor(Cell{ThemeRef: "missing"}); got != White {
		t.Errorf("ResolveColor(unknown theme) = %v, want White", got)
	}
	if got := doc.ResolveColor(Cell{}); got != White {
		t.Errorf("ResolveColor(no fill) = %v, want White", got)
	}
}
