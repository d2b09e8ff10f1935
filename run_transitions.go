package leadscout

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
)

// runComponents bundles everything the transitions need for one run.
type runComponents struct {
	engine       DecisionEngine
	session      Session
	maxDecisions int
}

// createRunStateMachine builds the complete state machine for one run.
func createRunStateMachine(components runComponents, eventBus eventbus.EventBus) *StateMachine {
	sm := NewStateMachine(eventBus)

	sm.RegisterTransition(StateAwaitingDecision, createAwaitingDecisionTransition(components))
	sm.RegisterTransition(StateExecutingTool, createExecutingToolTransition(components))
	sm.RegisterTransition(StateFinishing, createFinishingTransition(components))
	sm.RegisterTransition(StateDegraded, createDegradedTransition(components))

	return sm
}

// createAwaitingDecisionTransition handles the decision state. The decision
// cap is enforced here, before the engine is consulted, so a runaway
// Continue loop cannot exceed it.
func createAwaitingDecisionTransition(c runComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		if rCtx.Decisions >= c.maxDecisions {
			publish(ctx, eb, eventbus.EventRunDegraded, rCtx.RunID, "StateMachine.AwaitingDecision", map[string]interface{}{
				"reason":    "decision cap reached",
				"decisions": rCtx.Decisions,
			})
			return StateDegraded, nil
		}

		publish(ctx, eb, eventbus.EventDecisionStarted, rCtx.RunID, "StateMachine.AwaitingDecision", map[string]interface{}{
			"step": len(rCtx.Steps),
		})

		outcome := c.engine.Decide(ctx, rCtx.Request, rCtx.Catalog, rCtx.Steps)
		rCtx.Decisions++

		if outcome.IsFinal() {
			rCtx.Outcome = outcome
			publish(ctx, eb, eventbus.EventDecisionFinal, rCtx.RunID, "StateMachine.AwaitingDecision", map[string]interface{}{
				"decisions": rCtx.Decisions,
			})
			return StateFinishing, nil
		}

		rCtx.Pending = outcome.Invocation
		publish(ctx, eb, eventbus.EventDecisionContinue, rCtx.RunID, "StateMachine.AwaitingDecision", map[string]interface{}{
			"tool": outcome.Invocation.Tool,
		})
		return StateExecutingTool, nil
	}
}

// createExecutingToolTransition handles the tool execution state. A failed
// ToolResult is recorded in history and the loop continues; only a
// connection-level error from the session aborts the run.
func createExecutingToolTransition(c runComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		inv := rCtx.Pending
		if inv == nil {
			return StateError, NewInternalError("executing_tool", "no pending invocation", nil)
		}
		rCtx.Pending = nil

		publish(ctx, eb, eventbus.EventToolCallStarted, rCtx.RunID, "StateMachine.ExecutingTool", map[string]interface{}{
			"tool": inv.Tool,
		})

		result, err := c.session.Call(ctx, inv.Tool, inv.Arguments)
		if err != nil {
			publish(ctx, eb, eventbus.EventToolCallFailure, rCtx.RunID, "StateMachine.ExecutingTool", map[string]interface{}{
				"tool":  inv.Tool,
				"error": err.Error(),
			})
			return StateError, err
		}

		rCtx.Steps = append(rCtx.Steps, Step{Invocation: *inv, Result: result})

		eventType := eventbus.EventToolCallSuccess
		if !result.Success {
			eventType = eventbus.EventToolCallFailure
		}
		publish(ctx, eb, eventType, rCtx.RunID, "StateMachine.ExecutingTool", map[string]interface{}{
			"tool":    result.Tool,
			"success": result.Success,
		})

		return StateAwaitingDecision, nil
	}
}

// createFinishingTransition applies output conformance for structured
// requests and the citation guarantee for plain ones.
func createFinishingTransition(_ runComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		if rCtx.Outcome.Final == nil {
			return StateError, NewInternalError("finishing", "finishing without a final outcome", nil)
		}
		raw := rCtx.Outcome.Final.Output

		if rCtx.Request.Structured() {
			rCtx.Output = conformOutput(raw, rCtx.Request.Schema)
			publish(ctx, eb, eventbus.EventConformanceApplied, rCtx.RunID, "StateMachine.Finishing", nil)
		} else {
			finished, injected := ensureCitations(raw, rCtx.Outcome.Final.Citations)
			rCtx.Output = finished
			if injected {
				publish(ctx, eb, eventbus.EventCitationsInjected, rCtx.RunID, "StateMachine.Finishing", nil)
			}
		}

		rCtx.Complete()
		publish(ctx, eb, eventbus.EventRunSuccess, rCtx.RunID, "StateMachine.Finishing", map[string]interface{}{
			"duration": rCtx.TotalDuration().String(),
			"steps":    len(rCtx.Steps),
		})
		return StateComplete, nil
	}
}

// createDegradedTransition produces the fallback output after an exhausted
// decision budget.
func createDegradedTransition(_ runComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		rCtx.Output = degradedOutput(rCtx.Request)
		rCtx.Degraded = true
		rCtx.Complete()
		return StateComplete, nil
	}
}

func publish(ctx context.Context, eb eventbus.EventBus, eventType eventbus.EventType, runID, source string, metadata map[string]interface{}) {
	if eb == nil {
		return
	}
	event := eventbus.NewEvent(eventType, runID, source, metadata).
		WithMetadata("timestamp", time.Now().Format(time.RFC3339))
	_ = eb.Publish(ctx, event)
}
