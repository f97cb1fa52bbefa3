// Package errors provides classified error primitives shared by the build and
// publish pipeline.
//
// A ClassifiedError carries a category (what failed), a severity (how bad it
// is) and a retry hint, plus free-form context. Callers build them with the
// fluent ErrorBuilder and wrap domain sentinels so errors.Is keeps working:
//
//	err := errors.WrapError(site.ErrEmptyBuild, errors.CategoryBuild, "no content items").
//		Fatal().
//		WithContext("source", root).
//		Build()
//
// The CLI and HTTP adapters translate categories into exit codes and status
// codes respectively.
package errors
