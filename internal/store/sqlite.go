// Package store persists what survives between runs (routing rules, the
// workbook location, the last run date) in a local SQLite database, and
// adapts the workbook file itself to the grid snapshot the engine consumes.
package store

import (
	"database/sql"
	"time"

	"membership-reconciliation-service/internal/routing"
	"membership-reconciliation-service/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS routing_rules (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	sheet      TEXT NOT NULL,
	min_amount TEXT,
	max_amount TEXT,
	priority   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS app_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// App-state keys.
const (
	stateLastRunDate  = "last_run_date"
	stateWorkbookPath = "workbook_path"
)

// lastRunLayout is the ISO date form last_run_date is stored in.
const lastRunLayout = "2006-01-02"

// Store is the SQLite-backed configuration store. Safe for the single
// operator the tool serves; no cross-process locking beyond SQLite's own.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// Open opens (and if needed creates) the store at path. Use ":memory:" for
// an ephemeral store.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening store at %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "applying store schema")
	}
	return &Store{db: db, logger: log.WithComponent("store")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListRules returns every routing rule ordered by descending priority, then
// insertion order. The result is the run's immutable snapshot.
func (s *Store) ListRules() ([]routing.Rule, error) {
	rows, err := s.db.Query(
		`SELECT id, name, sheet, min_amount, max_amount, priority
		 FROM routing_rules ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing routing rules")
	}
	defer rows.Close()

	var rules []routing.Rule
	for rows.Next() {
		var (
			r        routing.Rule
			min, max sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Sheet, &min, &max, &r.Priority); err != nil {
			return nil, errors.Wrap(err, "scanning routing rule")
		}
		if r.Min, err = scanAmount(min); err != nil {
			return nil, errors.Wrapf(err, "rule %q min", r.Name)
		}
		if r.Max, err = scanAmount(max); err != nil {
			return nil, errors.Wrapf(err, "rule %q max", r.Name)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// AddRule validates and inserts a rule, returning its assigned ID. Rule
// names are unique; inserting a duplicate name fails.
func (s *Store) AddRule(r routing.Rule) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO routing_rules (name, sheet, min_amount, max_amount, priority)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.Sheet, amountParam(r.Min), amountParam(r.Max), r.Priority)
	if err != nil {
		return 0, errors.Wrapf(err, "inserting rule %q", r.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading inserted rule id")
	}
	s.logger.WithFields(logger.Fields{"rule": r.Name, "sheet": r.Sheet}).Info("Added routing rule")
	return id, nil
}

// RemoveRule deletes a rule by name.
func (s *Store) RemoveRule(name string) error {
	res, err := s.db.Exec(`DELETE FROM routing_rules WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "removing rule %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rule removal")
	}
	if n == 0 {
		return errors.Errorf("no routing rule named %q", name)
	}
	s.logger.WithField("rule", name).Info("Removed routing rule")
	return nil
}

// LastRunDate returns the date of the last completed run, or nil when no run
// has completed yet.
func (s *Store) LastRunDate() (*time.Time, error) {
	value, ok, err := s.getState(stateLastRunDate)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(lastRunLayout, value)
	if err != nil {
		return nil, errors.Wrapf(err, "stored last run date %q", value)
	}
	return &t, nil
}

// SetLastRunDate records the date of a completed run.
func (s *Store) SetLastRunDate(t time.Time) error {
	return s.setState(stateLastRunDate, t.Format(lastRunLayout))
}

// WorkbookPath returns the configured workbook location, empty when unset.
func (s *Store) WorkbookPath() (string, error) {
	value, _, err := s.getState(stateWorkbookPath)
	return value, err
}

// SetWorkbookPath records the workbook location.
func (s *Store) SetWorkbookPath(path string) error {
	return s.setState(stateWorkbookPath, path)
}

func (s *Store) getState(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading app state %q", key)
	}
	return value, true, nil
}

func (s *Store) setState(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return errors.Wrapf(err, "writing app state %q", key)
}

func scanAmount(v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, errors.Wrapf(err, "stored amount %q", v.String)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func amountParam(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
