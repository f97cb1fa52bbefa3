package commands

import (
	"os"
	"path/filepath"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/ledger"
)

func openLedger(path string) (*ledger.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create ledger directory").
				WithContext("path", dir).Build()
		}
	}
	store, err := ledger.NewSQLiteStore(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open run ledger").
			WithContext("path", path).Build()
	}
	return store, nil
}
