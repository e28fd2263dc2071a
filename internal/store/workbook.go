package store

import (
	"os"
	"strings"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// WorkbookFile adapts an .xlsx workbook to the grid snapshot the engine
// consumes and accepts its row-write batches on the way back out.
type WorkbookFile struct {
	path   string
	logger logger.Logger
}

// NewWorkbookFile creates an adapter for the workbook at path. The file is
// only touched when loading or writing.
func NewWorkbookFile(path string, log logger.Logger) *WorkbookFile {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &WorkbookFile{path: path, logger: log.WithComponent("workbook")}
}

// Path returns the workbook location.
func (w *WorkbookFile) Path() string { return w.path }

// LoadDocument reads every sheet into a grid snapshot: formatted cell values
// plus effective fill colors. Fill colors in .xlsx styles are literal RGB, so
// the snapshot's theme palette stays empty.
func (w *WorkbookFile) LoadDocument() (*grid.Document, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening workbook %s", w.path)
	}
	defer f.Close()

	doc := &grid.Document{
		Sheets:  make(map[string]*grid.Sheet),
		Palette: make(map[string]grid.Color),
	}
	for _, title := range f.GetSheetList() {
		sheet, err := w.loadSheet(f, title)
		if err != nil {
			return nil, errors.Wrapf(err, "reading sheet %q", title)
		}
		doc.Sheets[title] = sheet
	}
	w.logger.WithField("sheets", len(doc.Sheets)).Info("Loaded workbook snapshot")
	return doc, nil
}

func (w *WorkbookFile) loadSheet(f *excelize.File, title string) (*grid.Sheet, error) {
	raw, err := f.GetRows(title)
	if err != nil {
		return nil, err
	}

	// Style lookups repeat heavily within a sheet; resolve each style ID once.
	fills := make(map[int]*grid.Color)
	sheet := &grid.Sheet{Title: title, Rows: make([][]grid.Cell, len(raw))}
	for r, rawRow := range raw {
		row := make([]grid.Cell, len(rawRow))
		for c, value := range rawRow {
			cell := grid.Cell{Value: value}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			styleID, err := f.GetCellStyle(title, axis)
			if err != nil {
				return nil, err
			}
			fill, ok := fills[styleID]
			if !ok {
				fill, err = cellFill(f, styleID)
				if err != nil {
					return nil, err
				}
				fills[styleID] = fill
			}
			cell.Color = fill
			row[c] = cell
		}
		sheet.Rows[r] = row
	}
	return sheet, nil
}

func cellFill(f *excelize.File, styleID int) (*grid.Color, error) {
	style, err := f.GetStyle(styleID)
	if err != nil {
		return nil, err
	}
	if style == nil || style.Fill.Type != "pattern" || len(style.Fill.Color) == 0 {
		return nil, nil
	}
	color, err := grid.ColorFromHex(style.Fill.Color[0])
	if err != nil {
		// Unrecognized fill encodings degrade to no fill.
		return nil, nil
	}
	return &color, nil
}

// WriteSheets writes each batch into its named sheet, replacing the sheet's
// prior contents if it exists. The workbook is created when missing and saved
// once at the end, so a failed write leaves the file untouched.
func (w *WorkbookFile) WriteSheets(sheets []grid.SheetWrite) error {
	f, created, err := w.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	styles := newStyleCache(f)
	for _, sw := range sheets {
		if err := replaceSheet(f, sw.Title); err != nil {
			return errors.Wrapf(err, "preparing sheet %q", sw.Title)
		}
		if err := writeRows(f, styles, sw); err != nil {
			return errors.Wrapf(err, "writing sheet %q", sw.Title)
		}
	}
	// The default sheet of a fresh file is dead weight once real sheets exist.
	if created && len(sheets) > 0 {
		f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(w.path); err != nil {
		return errors.Wrapf(err, "saving workbook %s", w.path)
	}
	w.logger.WithField("sheets", len(sheets)).Info("Wrote workbook sheets")
	return nil
}

func (w *WorkbookFile) openOrCreate() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "opening workbook %s", w.path)
	}
	return f, false, nil
}

func replaceSheet(f *excelize.File, title string) error {
	if idx, err := f.GetSheetIndex(title); err != nil {
		return err
	} else if idx >= 0 {
		if err := f.DeleteSheet(title); err != nil {
			return err
		}
	}
	_, err := f.NewSheet(title)
	return err
}

func writeRows(f *excelize.File, styles *styleCache, sw grid.SheetWrite) error {
	for r, row := range sw.Rows {
		for c, cell := range row.Cells {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if cell.Formula {
				if err := f.SetCellFormula(sw.Title, axis, strings.TrimPrefix(cell.Value, "=")); err != nil {
					return err
				}
			} else if cell.Value != "" {
				if err := f.SetCellValue(sw.Title, axis, cell.Value); err != nil {
					return err
				}
			}
			styleID, err := styles.resolve(cell)
			if err != nil {
				return err
			}
			if styleID != 0 {
				if err := f.SetCellStyle(sw.Title, axis, axis, styleID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// styleCache deduplicates excelize style registrations across a write batch.
type styleCache struct {
	f   *excelize.File
	ids map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[string]int)}
}

func (sc *styleCache) resolve(cell grid.WriteCell) (int, error) {
	fill := ""
	if cell.Color != nil && *cell.Color != grid.White {
		fill = cell.Color.Hex()
	}
	if fill == "" && cell.NumberFormat == "" && cell.Align == "" {
		return 0, nil
	}

	key := fill + "|" + cell.NumberFormat + "|" + cell.Align
	if id, ok := sc.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
	}
	if cell.NumberFormat != "" {
		numFmt := cell.NumberFormat
		style.CustomNumFmt = &numFmt
	}
	if cell.Align != "" {
		style.Alignment = &excelize.Alignment{Horizontal: strings.ToLower(cell.Align)}
	}
	id, err := sc.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	sc.ids[key] = id
	return id, nil
}
