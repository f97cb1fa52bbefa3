package pipeline

import (
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// ErrRunInProgress is returned when Run is called while another run holds the runner.
var ErrRunInProgress = derrors.RuntimeError("a pipeline run is already in progress").Build()
