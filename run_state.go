package leadscout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
)

// RunState represents the current state of a run.
type RunState string

const (
	// StateAwaitingDecision asks the Decision Engine for the next outcome
	StateAwaitingDecision RunState = "awaiting_decision"
	// StateExecutingTool runs the selected tool through the gateway
	StateExecutingTool RunState = "executing_tool"
	// StateFinishing applies output conformance or citation injection
	StateFinishing RunState = "finishing"
	// StateDegraded produces the fallback output after an exhausted budget
	StateDegraded RunState = "degraded"
	// StateError represents an unrecoverable error state
	StateError RunState = "error"
	// StateComplete represents the completed state
	StateComplete RunState = "complete"
	// StateCancelled represents the cancelled state
	StateCancelled RunState = "cancelled"
)

// RunContext carries the evolving state of one run. It acts as the tape the
// transitions read and write.
type RunContext struct {
	// Input parameters
	RunID   string
	Request Request
	Catalog []ToolCatalogEntry

	// Intermediate results
	Steps   []Step
	Pending *ToolInvocation
	Outcome AgentOutcome
	Output  string

	// Bookkeeping
	Decisions int
	Degraded  bool

	// Error handling
	LastError  error
	ErrorStage string

	// State management
	CurrentState    RunState
	StateStartTimes map[RunState]time.Time

	// Timestamp tracking
	StartTime time.Time
	EndTime   time.Time
}

// NewRunContext creates a run context for the given request.
func NewRunContext(runID string, req Request, catalog []ToolCatalogEntry) *RunContext {
	return &RunContext{
		RunID:           runID,
		Request:         req,
		Catalog:         catalog,
		CurrentState:    StateAwaitingDecision,
		StateStartTimes: map[RunState]time.Time{StateAwaitingDecision: time.Now()},
		StartTime:       time.Now(),
	}
}

// IsTerminal checks if the current state is a terminal state.
func (rc *RunContext) IsTerminal() bool {
	return rc.CurrentState == StateComplete || rc.CurrentState == StateError || rc.CurrentState == StateCancelled
}

// SetError sets the last error and error stage, transitioning to StateError.
func (rc *RunContext) SetError(err error, stage string) {
	rc.LastError = err
	rc.ErrorStage = stage
	rc.CurrentState = StateError
	rc.StateStartTimes[StateError] = time.Now()
}

// SetCancelled sets the state to Cancelled and records the cancellation error.
func (rc *RunContext) SetCancelled(err error, stage string) {
	rc.LastError = err
	rc.ErrorStage = stage
	rc.CurrentState = StateCancelled
	rc.StateStartTimes[StateCancelled] = time.Now()
}

// Complete marks the run as complete and sets the end time.
func (rc *RunContext) Complete() {
	rc.CurrentState = StateComplete
	rc.EndTime = time.Now()
	rc.StateStartTimes[StateComplete] = rc.EndTime
}

// TotalDuration returns the total duration of the run so far.
func (rc *RunContext) TotalDuration() time.Duration {
	if rc.CurrentState == StateComplete {
		return rc.EndTime.Sub(rc.StartTime)
	}
	return time.Since(rc.StartTime)
}

// StateTransition defines a transition function for the state machine.
type StateTransition func(ctx context.Context, eventBus eventbus.EventBus, rCtx *RunContext) (RunState, error)

// StateMachine represents a finite state machine for run execution.
type StateMachine struct {
	transitions map[RunState]StateTransition
	eventBus    eventbus.EventBus
}

// NewStateMachine creates a new state machine with no transitions registered.
func NewStateMachine(eventBus eventbus.EventBus) *StateMachine {
	return &StateMachine{
		transitions: make(map[RunState]StateTransition),
		eventBus:    eventBus,
	}
}

// RegisterTransition registers a state transition function.
func (sm *StateMachine) RegisterTransition(state RunState, transition StateTransition) {
	sm.transitions[state] = transition
}

// Execute runs the state machine until a terminal state. It returns the run's
// output and the last error, which for a cancelled run is the cancellation
// cause; the caller decides which fallback applies.
func (sm *StateMachine) Execute(ctx context.Context, rCtx *RunContext) (string, error) {
	for !rCtx.IsTerminal() {
		// Check for context cancellation before executing the next state
		select {
		case <-ctx.Done():
			err := ctx.Err()
			rCtx.SetCancelled(err, string(rCtx.CurrentState))
			return "", err
		default:
		}

		transition, exists := sm.transitions[rCtx.CurrentState]
		if !exists {
			err := fmt.Errorf("no transition defined for state: %s", rCtx.CurrentState)
			rCtx.SetError(err, string(rCtx.CurrentState))
			return "", err
		}

		nextState, err := transition(ctx, sm.eventBus, rCtx)
		if err != nil {
			currentStage := string(rCtx.CurrentState)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				rCtx.SetCancelled(err, currentStage)
			} else if !rCtx.IsTerminal() {
				rCtx.SetError(err, currentStage)
			}
			continue
		}

		if !rCtx.IsTerminal() {
			rCtx.CurrentState = nextState
			rCtx.StateStartTimes[nextState] = time.Now()
		}
	}

	return rCtx.Output, rCtx.LastError
}
