package engine

import (
	"sync"

	"parqscope/internal/metrics"
	"parqscope/internal/model"
	"parqscope/internal/utils"
)

// Navigator tracks the current focus and the lifecycle of the request it
// triggered. Each focus change mints a new request ID and supersedes the
// previous request: a result arriving under an old ID is discarded, so the
// displayed state can never regress to an earlier selection.
type Navigator struct {
	mu      sync.Mutex
	focus   model.NavigationFocus
	state   model.RequestState
	results chan model.RequestState
}

func NewNavigator() *Navigator {
	return &Navigator{
		focus: model.NavigationFocus{RowGroup: model.WholeFile},
		state: model.RequestState{Phase: model.PhaseIdle},
		// Buffered so a delivery never blocks behind a slow consumer
		results: make(chan model.RequestState, 16),
	}
}

// SetFocus applies a focus change and starts a new pending request for it.
// Returns the minted request ID; any in-flight request is superseded.
func (n *Navigator) SetFocus(focus model.NavigationFocus) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := utils.GenerateUUID()
	n.focus = focus
	n.state = model.RequestState{
		Phase:     model.PhasePending,
		RequestID: id,
		Focus:     focus,
	}
	metrics.RecordFocusChange()
	return id
}

// Focus returns the current selection
func (n *Navigator) Focus() model.NavigationFocus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focus
}

// CurrentRequestState returns the state machine for the latest focus
func (n *Navigator) CurrentRequestState() model.RequestState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Deliver completes the request with the given ID. If a newer focus change
// has superseded it the result is dropped and false is returned; the state
// machine and the results channel see only current results.
func (n *Navigator) Deliver(requestID string, snap *model.StatSnapshot, err error) bool {
	n.mu.Lock()
	if n.state.RequestID != requestID || n.state.Phase != model.PhasePending {
		n.mu.Unlock()
		metrics.RecordStaleDropped()
		return false
	}

	if err != nil {
		n.state.Phase = model.PhaseFailed
		n.state.Err = err
	} else {
		n.state.Phase = model.PhaseReady
		n.state.Snapshot = snap
	}
	state := n.state
	n.mu.Unlock()

	select {
	case n.results <- state:
	default:
		// Consumer is not draining; the state machine still holds the result
	}
	return true
}

// Results streams completed request states in delivery order
func (n *Navigator) Results() <-chan model.RequestState {
	return n.results
}

// Reset returns the navigator to idle, superseding any pending request.
// Called when the open file changes.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.focus = model.NavigationFocus{RowGroup: model.WholeFile}
	n.state = model.RequestState{Phase: model.PhaseIdle}
}
