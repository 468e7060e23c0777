package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/gradient-spp/noisemap/internal/store"
)

// initStore opens and migrates the run history database.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.History.Path
	if dsn == "" {
		dsn = "noisemap.db"
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "create history directory %s", dir)
		}
	}

	st, err := store.NewSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
