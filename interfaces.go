package leadscout

import "context"

// Backend is the language-model text-completion service. Implementations are
// expected to be safe for sequential reuse across runs; no retry is layered
// over a Backend beyond the orchestration loop's own fallback policies.
type Backend interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Session is one open connection to the external data-extraction provider.
// It is opened fresh per run and must be closed on every exit path.
type Session interface {
	// Tools returns the catalog enumerated at session start, in provider order.
	Tools() []ToolCatalogEntry

	// Call invokes a named operation. Ordinary failures (unknown tool, per-call
	// timeout, provider-reported errors) come back as a failed ToolResult with a
	// nil error. A non-nil error means the session itself is unusable and the
	// run should apply its provider-connection fallback.
	Call(ctx context.Context, name string, args map[string]any) (ToolResult, error)

	// Close releases the session and its underlying transport.
	Close() error
}

// Gateway opens provider sessions.
type Gateway interface {
	Open(ctx context.Context) (Session, error)
}

// DecisionEngine produces exactly one AgentOutcome per step. It never returns
// an error: backend faults and parse failures are folded into the outcome
// (backup tool selection, or a Final carrying an error string).
type DecisionEngine interface {
	Decide(ctx context.Context, req Request, catalog []ToolCatalogEntry, steps []Step) AgentOutcome
}

// Cache provides storage for memoized decision data.
type Cache interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
}
