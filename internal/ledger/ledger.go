// Package ledger loads the QuickBooks transaction export. The export is a
// CSV written by QuickBooks in Windows-1252; rows become typed transactions,
// rows that cannot are recorded as recoverable errors, and decorative
// mostly-empty rows (section headers, totals, spacers) are skipped silently.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/models"
	"membership-reconciliation-service/pkg/logger"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Column headers the export must carry. Matching is case-insensitive and
// ignores surrounding whitespace.
const (
	columnName   = "name"
	columnMemo   = "memo"
	columnAmount = "amount"
	columnDate   = "date"
)

// minOccupiedFields is the threshold below which a data row is treated as
// decorative rather than malformed.
const minOccupiedFields = 4

// Config controls export parsing.
type Config struct {
	// TrimSpaces strips surrounding whitespace from every field.
	TrimSpaces bool
	// Logger receives per-file progress; nil uses the global logger.
	Logger logger.Logger
}

// DefaultConfig returns the settings used for real QuickBooks exports.
func DefaultConfig() *Config {
	return &Config{TrimSpaces: true}
}

// Loader parses QuickBooks export files into transactions.
type Loader struct {
	config *Config
	logger logger.Logger
}

// NewLoader creates a Loader with the given configuration. A nil config gets
// defaults.
func NewLoader(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Loader{
		config: config,
		logger: log.WithComponent("ledger"),
	}
}

// LoadFile parses the export at path. Row-level problems come back as
// recoverable errors alongside the transactions; only I/O and structural
// failures (missing file, missing required columns) return a non-nil error.
func (l *Loader) LoadFile(path string) ([]*models.Transaction, []recerrors.RunError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening export file %s", path)
	}
	defer f.Close()

	txs, rowErrs, err := l.Load(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing export file %s", path)
	}
	return txs, rowErrs, nil
}

// Load parses an export stream.
func (l *Loader) Load(r io.Reader) ([]*models.Transaction, []recerrors.RunError, error) {
	// QuickBooks writes Windows-1252, not UTF-8.
	reader := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("export is empty")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading export header")
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		txs     []*models.Transaction
		rowErrs []recerrors.RunError
		index   int
		skipped int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading export row")
		}
		index++

		raw := rowMap(header, row, l.config.TrimSpaces)
		if occupiedFields(row) < minOccupiedFields {
			skipped++
			continue
		}

		tx, rowErr := l.parseRow(raw, columns, row, index)
		if rowErr != nil {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		txs = append(txs, tx)
	}

	l.logger.WithFields(logger.Fields{
		"transactions": len(txs),
		"row_errors":   len(rowErrs),
		"decorative":   skipped,
	}).Info("Parsed ledger export")
	return txs, rowErrs, nil
}

func (l *Loader) parseRow(raw map[string]string, columns map[string]int, row []string, index int) (*models.Transaction, recerrors.RunError) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		if l.config.TrimSpaces {
			return strings.TrimSpace(row[i])
		}
		return row[i]
	}

	rawName := field(columnName)
	accountID, nameText, ok := models.SplitNameAndAccount(rawName)
	if !ok {
		return nil, &recerrors.QBParsingError{
			Raw:   raw,
			Index: index,
			Msg:   fmt.Sprintf("cannot split account ID out of name %q", rawName),
		}
	}

	amount, err := models.ParseAmountOrZero(field(columnAmount))
	if err != nil {
		return nil, &recerrors.QBParsingError{
			Raw:   raw,
			Index: index,
			Msg:   fmt.Sprintf("invalid amount %q", field(columnAmount)),
		}
	}

	date, ok := models.ParseSheetDate(field(columnDate))
	if !ok {
		return nil, &recerrors.QBParsingError{
			Raw:   raw,
			Index: index,
			Msg:   fmt.Sprintf("invalid date %q", field(columnDate)),
		}
	}

	return &models.Transaction{
		Raw:       raw,
		Index:     index,
		AccountID: accountID,
		Names:     models.SplitMultiNames(nameText),
		Memo:      field(columnMemo),
		Amount:    amount,
		Date:      date,
	}, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{columnName, columnMemo, columnAmount, columnDate} {
		if _, ok := columns[required]; !ok {
			return nil, errors.Errorf("export is missing required column %q", required)
		}
	}
	return columns, nil
}

func rowMap(header, row []string, trim bool) map[string]string {
	raw := make(map[string]string, len(header))
	for i, h := range header {
		if i >= len(row) {
			break
		}
		v := row[i]
		if trim {
			h, v = strings.TrimSpace(h), strings.TrimSpace(v)
		}
		raw[h] = v
	}
	return raw
}

func occupiedFields(row []string) int {
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// DateGroup holds one settlement date's transactions in ascending amount
// order, refunds before charges.
type DateGroup struct {
	Date         time.Time
	Transactions []*models.Transaction
}

// GroupByDate buckets transactions by settlement date, dates ascending and
// amounts ascending within each date. Processing refunds before charges keeps
// a same-day cancel-and-rebook from matching the fresh charge against the
// refund's target record.
func GroupByDate(txs []*models.Transaction) []DateGroup {
	byDate := make(map[time.Time][]*models.Transaction)
	for _, tx := range txs {
		byDate[tx.Date] = append(byDate[tx.Date], tx)
	}

	groups := make([]DateGroup, 0, len(byDate))
	for date, group := range byDate {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Amount.LessThan(group[j].Amount)
		})
		groups = append(groups, DateGroup{Date: date, Transactions: group})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})
	return groups
}
