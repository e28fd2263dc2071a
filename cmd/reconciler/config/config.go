// Package config assembles the CLI's collaborators from viper settings:
// the logger, the configuration store, and the workbook adapter.
package config

import (
	"os"
	"path/filepath"

	"membership-reconciliation-service/internal/store"
	"membership-reconciliation-service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultStoreFile is the store filename used when no --db flag or
// RECONCILER_DB variable is set; it lives under the user's home directory.
const DefaultStoreFile = ".reconciler/reconciler.db"

// BuildLogger creates the CLI logger from viper settings: "verbose" lifts
// the level to debug, "log-format" picks text or json.
func BuildLogger() (logger.Logger, error) {
	cfg := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}
	if format := viper.GetString("log-format"); format != "" {
		cfg.Format = logger.Format(format)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	logger.SetGlobalLogger(log)
	return log, nil
}

// StorePath resolves the configuration store location from viper, falling
// back to the default under the home directory.
func StorePath() (string, error) {
	if path := viper.GetString("db"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, DefaultStoreFile), nil
}

// OpenStore opens the configuration store, creating its directory if needed.
func OpenStore(log logger.Logger) (*store.Store, error) {
	path, err := StorePath()
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating store directory %s", dir)
		}
	}
	return store.Open(path, log)
}

// ResolveWorkbook picks the workbook path for a run: the explicit flag value
// wins and is persisted for next time; otherwise the stored path is used.
func ResolveWorkbook(s *store.Store, flagValue string) (*store.WorkbookFile, error) {
	path := flagValue
	if path == "" {
		stored, err := s.WorkbookPath()
		if err != nil {
			return nil, err
		}
		path = stored
	}
	if path == "" {
		return nil, errors.New("no workbook configured: pass --workbook or set one with a prior run")
	}
	if flagValue != "" {
		if err := s.SetWorkbookPath(flagValue); err != nil {
			return nil, err
		}
	}
	return store.NewWorkbookFile(path, nil), nil
}
