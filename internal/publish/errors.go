package publish

import "errors"

var (
	ErrEmptyArtifact = errors.New("artifact is empty")
	ErrTransfer      = errors.New("transfer failed")
)
