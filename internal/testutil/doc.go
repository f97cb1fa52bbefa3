// Package testutil holds fixtures shared by package tests: content trees,
// configuration files, file assertions and throwaway git remotes.
package testutil
