package model

// Tab identifies the active view
type Tab int

const (
	TabMetadata Tab = iota
	TabSchema
	TabData
	TabStats
)

func (t Tab) String() string {
	switch t {
	case TabMetadata:
		return "metadata"
	case TabSchema:
		return "schema"
	case TabData:
		return "data"
	case TabStats:
		return "stats"
	default:
		return "unknown"
	}
}

// NavigationFocus is the current selection: active tab, selected column
// path and selected row group. Mutated only by user-driven events.
type NavigationFocus struct {
	Tab      Tab
	Column   string
	RowGroup int // WholeFile when no row group is selected
}

// Scope derives the statistics scope from the focused row group
func (f NavigationFocus) Scope() Scope {
	return Scope{RowGroup: f.RowGroup}
}

// RequestPhase is the lifecycle phase of the current focus request
type RequestPhase int

const (
	PhaseIdle RequestPhase = iota
	PhasePending
	PhaseReady
	PhaseFailed
)

func (p RequestPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestState reports the state machine for the current focus:
// Idle -> Pending -> {Ready, Failed}. Terminal until the next focus change,
// which restarts the machine and supersedes the old request.
type RequestState struct {
	Phase     RequestPhase
	RequestID string
	Focus     NavigationFocus
	Snapshot  *StatSnapshot
	Err       error
}
