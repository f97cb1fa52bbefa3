package site

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

func stagingDir(outputDir string) string { return outputDir + "_stage" }
func backupDir(outputDir string) string  { return outputDir + ".prev" }

// OwnedDirs lists the directories a build of outputDir writes to.
func OwnedDirs(outputDir string) []string {
	return []string{outputDir, stagingDir(outputDir), backupDir(outputDir)}
}

// beginStaging creates an empty sibling staging directory for the build.
// Leftovers of an interrupted build are removed first.
func beginStaging(outputDir string) (string, error) {
	stage := stagingDir(outputDir)
	if err := os.RemoveAll(stage); err != nil {
		return "", fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	slog.Debug("Initialized staging directory", "staging", stage, "final", outputDir)
	return stage, nil
}

// finalizeStaging promotes the staging directory to the output location:
//  1. Move the existing output (if any) to <output>.prev.
//  2. Rename staging -> output.
//  3. Remove the backup.
//
// If step 2 fails the backup is moved back so the previous artifact stays.
func finalizeStaging(stage, outputDir string) error {
	if _, err := os.Stat(stage); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := backupDir(outputDir)
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	hadOutput := false
	if _, err := os.Stat(outputDir); err == nil {
		if err := os.Rename(outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
		hadOutput = true
	}
	if err := os.Rename(stage, outputDir); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, outputDir); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(outputDir), logfields.Error(rerr))
			}
		}
		return fmt.Errorf("promote staging: %w", err)
	}
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", "output", outputDir)
	return nil
}

// abortStaging removes the staging directory after a failed build.
func abortStaging(stage string) {
	if stage == "" {
		return
	}
	if err := os.RemoveAll(stage); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", stage, logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", "staging", stage)
}
