// Package grid models the tabular data exchanged with the record store: a
// grid of formatted cell values with effective background colors, plus the
// column-letter arithmetic the worksheets need to describe their layouts.
//
// The engine consumes grids as opaque snapshots and produces RowWrite batches;
// how either travels over the wire is the store adapter's concern.
package grid

import (
	"fmt"
	"strings"
)

// Color is an RGB background color with channels in the 0..1 range.
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// White is the default background for cells with no explicit fill.
var White = Color{Red: 1, Green: 1, Blue: 1}

// PurpleSpacer is the fixed fill used for the spacer column between the
// accounting columns and the CSR columns.
var PurpleSpacer = Color{Red: 0.40392157, Green: 0.30588236, Blue: 0.654902}

// Hex returns the color as an RRGGBB hex string.
func (c Color) Hex() string {
	clamp := func(v float64) int {
		n := int(v*255 + 0.5)
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return n
	}
	return fmt.Sprintf("%02X%02X%02X", clamp(c.Red), clamp(c.Green), clamp(c.Blue))
}

// ColorFromHex parses an RRGGBB hex string, with or without a leading '#'.
func ColorFromHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 8 {
		// ARGB form used by spreadsheet files; drop the alpha channel.
		s = s[2:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{
		Red:   float64(r) / 255,
		Green: float64(g) / 255,
		Blue:  float64(b) / 255,
	}, nil
}

// Cell is one formatted cell from the record store. Exactly one of Color or
// ThemeRef describes the background: Color when the fill is a literal RGB
// value, ThemeRef when it points into the document's theme palette.
type Cell struct {
	Value    string `json:"value"`
	Color    *Color `json:"color,omitempty"`
	ThemeRef string `json:"themeRef,omitempty"`
}

// IsBlank reports whether the cell holds no visible value.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.Value) == ""
}

// Sheet is the grid snapshot for one worksheet.
type Sheet struct {
	Title string   `json:"title"`
	Rows  [][]Cell `json:"rows"`
}

// Document is the full snapshot handed to the engine at run start: one sheet
// grid per relevant worksheet plus the theme palette used to resolve
// theme-indexed cell fills.
type Document struct {
	Sheets  map[string]*Sheet `json:"sheets"`
	Palette map[string]Color  `json:"palette"`
}

// ResolveColor returns the effective background of a cell, looking theme
// references up in the palette and falling back to white.
func (d *Document) ResolveColor(c Cell) Color {
	if c.Color != nil {
		return *c.Color
	}
	if c.ThemeRef != "" {
		if color, ok := d.Palette[c.ThemeRef]; ok {
			return color
		}
	}
	return White
}

// WriteCell is one output cell in a row-write intent.
type WriteCell struct {
	Value        string `json:"value"`
	Color        *Color `json:"color,omitempty"`
	NumberFormat string `json:"numberFormat,omitempty"`
	Formula      bool   `json:"formula,omitempty"`
	Align        string `json:"align,omitempty"`
}

// RowWrite is one ordered row-write intent ready to append to a sheet.
type RowWrite struct {
	Cells []WriteCell `json:"cells"`
}

// SheetWrite is one output sheet: a title and its ordered row-write batch.
type SheetWrite struct {
	Title string     `json:"title"`
	Rows  []RowWrite `json:"rows"`
}

// ValueCell builds a plain output cell with an optional background.
func ValueCell(value string, color *Color) WriteCell {
	return WriteCell{Value: value, Color: color}
}

// CurrencyCell builds an output cell formatted as dollars.
func CurrencyCell(value string, color *Color) WriteCell {
	return WriteCell{Value: value, Color: color, NumberFormat: "$#,##0.00"}
}

// EmptyCell builds an output cell with no value and no fill.
func EmptyCell() WriteCell {
	return WriteCell{}
}
