package site

import "errors"

// Sentinel build errors. Callers match them with errors.Is; the builder
// wraps them in classified errors carrying the offending path.
var (
	ErrSourceNotFound = errors.New("source root not found")
	ErrEmptyBuild     = errors.New("no valid content items")
	ErrRender         = errors.New("render failed")
	ErrOutput         = errors.New("output write failed")
)
