package leadscout

import (
	"context"
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
)

func TestStateMachine_MissingTransition(t *testing.T) {
	sm := NewStateMachine(nil)
	rCtx := NewRunContext("run-1", Request{RawText: "q"}, nil)

	_, err := sm.Execute(context.Background(), rCtx)
	if err == nil {
		t.Fatal("expected an error for an unregistered state")
	}
	if rCtx.CurrentState != StateError {
		t.Errorf("state = %s, want %s", rCtx.CurrentState, StateError)
	}
}

func TestStateMachine_ContextCancellation(t *testing.T) {
	sm := NewStateMachine(nil)
	sm.RegisterTransition(StateAwaitingDecision, func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		return StateAwaitingDecision, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rCtx := NewRunContext("run-2", Request{RawText: "q"}, nil)
	_, err := sm.Execute(ctx, rCtx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rCtx.CurrentState != StateCancelled {
		t.Errorf("state = %s, want %s", rCtx.CurrentState, StateCancelled)
	}
}

func TestStateMachine_TransitionErrorSetsErrorState(t *testing.T) {
	sentinel := errors.New("boom")
	sm := NewStateMachine(nil)
	sm.RegisterTransition(StateAwaitingDecision, func(ctx context.Context, eb eventbus.EventBus, rCtx *RunContext) (RunState, error) {
		return StateError, sentinel
	})

	rCtx := NewRunContext("run-3", Request{RawText: "q"}, nil)
	_, err := sm.Execute(context.Background(), rCtx)
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want the transition error", err)
	}
	if rCtx.CurrentState != StateError {
		t.Errorf("state = %s, want %s", rCtx.CurrentState, StateError)
	}
	if rCtx.ErrorStage != string(StateAwaitingDecision) {
		t.Errorf("error stage = %q", rCtx.ErrorStage)
	}
}

func TestRunContext_Terminal(t *testing.T) {
	rCtx := NewRunContext("run-4", Request{RawText: "q"}, nil)
	if rCtx.IsTerminal() {
		t.Error("fresh context must not be terminal")
	}
	rCtx.Complete()
	if !rCtx.IsTerminal() {
		t.Error("completed context must be terminal")
	}
	if rCtx.TotalDuration() < 0 {
		t.Error("duration must be non-negative")
	}
}

func TestEnsureCitations(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		citations []string
		want      string
		injected  bool
	}{
		{
			name: "existing sources block untouched",
			text: "Answer.\n\nSources: a.com, b.com",
			want: "Answer.\n\nSources: a.com, b.com",
		},
		{
			name: "based on counts as a citation",
			text: "Answer.\nBased on: crunchbase",
			want: "Answer.\nBased on: crunchbase",
		},
		{
			name:      "citations appended",
			text:      "Answer.",
			citations: []string{"search_engine", "web_data_linkedin_person_profile"},
			want:      "Answer.\n\nSources: search_engine, web_data_linkedin_person_profile",
			injected:  true,
		},
		{
			name:     "generic fallback",
			text:     "Answer.",
			want:     "Answer.\n\nSource: Web search results",
			injected: true,
		},
		{
			name:     "empty sources label still gets fallback",
			text:     "Answer. Sources:",
			want:     "Answer. Sources:\n\nSource: Web search results",
			injected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, injected := ensureCitations(tt.text, tt.citations)
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if injected != tt.injected {
				t.Errorf("injected = %v, want %v", injected, tt.injected)
			}
		})
	}
}

func TestDegradedOutput(t *testing.T) {
	structured := Request{
		RawText: "find acme",
		Schema: FieldSchema{
			{Name: "company_name", Type: FieldString},
			{Name: "employee_count", Type: FieldInteger},
		},
	}
	if got := degradedOutput(structured); got != `{"company_name":null,"employee_count":null}` {
		t.Errorf("structured degraded output = %s", got)
	}

	plain := Request{RawText: "find acme"}
	if got := degradedOutput(plain); got != "Request timed out. Please try a simpler query." {
		t.Errorf("plain degraded output = %q", got)
	}
}
