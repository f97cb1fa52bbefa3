package ledger

import (
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

var (
	// ErrRunNotFound indicates no run with the requested ID exists.
	ErrRunNotFound = derrors.NewError(derrors.CategoryNotFound, "run not found").Build()

	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = derrors.NewError(derrors.CategoryFileSystem, "could not open run ledger database").Build()
)
