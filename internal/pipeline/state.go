package pipeline

// State is a pipeline run state.
type State string

const (
	StateIdle           State = "idle"
	StateBuilding       State = "building"
	StateBuildFailed    State = "build_failed"
	StateBuildSucceeded State = "build_succeeded"
	StatePublishing     State = "publishing"
	StatePublishFailed  State = "publish_failed"
	StatePublished      State = "published"
)

// transitions lists the allowed successor states.
var transitions = map[State][]State{
	StateIdle:           {StateBuilding},
	StateBuilding:       {StateBuildFailed, StateBuildSucceeded},
	StateBuildSucceeded: {StatePublishing},
	StatePublishing:     {StatePublishFailed, StatePublished},
}

// CanTransition reports whether to is a legal successor of s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Failed reports whether s ends a run unsuccessfully.
func (s State) Failed() bool { return s == StateBuildFailed || s == StatePublishFailed }
