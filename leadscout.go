// Package leadscout provides a single-turn research agent for sales
// development: it classifies a request, gathers live data through an MCP tool
// provider when needed, and guarantees the output shape the caller asked for.
package leadscout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
	"github.com/ZanzyTHEbar/leadscout/internal/observability"
	"github.com/ZanzyTHEbar/leadscout/internal/schema"
)

// Agent is the main entry point. One Agent serves many requests; each request
// gets its own provider session and run state.
type Agent struct {
	// Core components
	gateway  Gateway
	engine   DecisionEngine
	eventBus eventbus.EventBus

	// Configuration
	config Config

	logger zerolog.Logger
}

// Config holds the configuration options for the agent.
type Config struct {
	// Hard cap on Decision Engine invocations per run
	MaxDecisions int

	// Wall-clock budget for a whole run
	RunBudget time.Duration

	// Bounds for the one-shot simplified retry after a provider-connection
	// failure
	SimplifiedMaxDecisions int
	SimplifiedRunBudget    time.Duration

	// Tool the simplified retry restricts the catalog to; also the decision
	// backup tool
	DefaultTool string

	// Ceiling on concurrent provider calls. The loop issues one call at a
	// time; the knob exists so the bound is explicit and tunable.
	MaxConcurrentCalls int

	// Event bus configuration
	EnableEventBus      bool
	EventBusBufferSize  int
	EventBusWorkerCount int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxDecisions:           10,
		RunBudget:              45 * time.Second,
		SimplifiedMaxDecisions: 2,
		SimplifiedRunBudget:    20 * time.Second,
		DefaultTool:            "search_engine",
		MaxConcurrentCalls:     1,
		EnableEventBus:         true,
		EventBusBufferSize:     100,
		EventBusWorkerCount:    5,
	}
}

// Option is a function that configures an Agent instance.
type Option func(*Agent)

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(a *Agent) {
		a.config = config
	}
}

// WithGateway sets the tool provider gateway.
func WithGateway(gateway Gateway) Option {
	return func(a *Agent) {
		a.gateway = gateway
	}
}

// WithEngine sets the decision engine.
func WithEngine(engine DecisionEngine) Option {
	return func(a *Agent) {
		a.engine = engine
	}
}

// WithEventBus sets a pre-built event bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(a *Agent) {
		a.eventBus = bus
	}
}

// WithLogger sets the agent logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates a new Agent with the provided options.
func New(options ...Option) (*Agent, error) {
	a := &Agent{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}

	for _, option := range options {
		option(a)
	}

	// Validate required components
	if a.gateway == nil {
		return nil, NewConfigurationError("gateway is required", nil)
	}
	if a.engine == nil {
		return nil, NewConfigurationError("decision engine is required", nil)
	}
	if a.config.MaxDecisions <= 0 || a.config.RunBudget <= 0 {
		return nil, NewConfigurationError("run bounds must be positive", nil)
	}
	if a.config.DefaultTool == "" {
		a.config.DefaultTool = DefaultConfig().DefaultTool
	}

	if a.config.EnableEventBus && a.eventBus == nil {
		a.eventBus = eventbus.NewChannelEventBus(
			eventbus.WithBufferSize(a.config.EventBusBufferSize),
			eventbus.WithWorkerCount(a.config.EventBusWorkerCount),
			eventbus.WithBusLogger(a.logger),
		)
	}

	return a, nil
}

// EventBus exposes the agent's event bus for subscribers.
func (a *Agent) EventBus() eventbus.EventBus {
	return a.eventBus
}

// Close releases process-wide resources held by the agent.
func (a *Agent) Close() error {
	if a.eventBus != nil {
		return a.eventBus.Close()
	}
	return nil
}

// Answer processes one request end to end and returns the finished output.
// The only errors it returns are caller-side: a cancelled parent context or
// an invalid request. Everything else degrades to a fallback output.
func (a *Agent) Answer(ctx context.Context, rawText string) (string, error) {
	fields, instruction, structured := schema.Extract(rawText)
	req := Request{RawText: rawText, Instruction: instruction}
	if structured {
		req.Schema = fields
	}

	runID := observability.NewRunID()
	logger := a.logger.With().Str("run_id", runID).Logger()
	logger.Info().Bool("structured", req.Structured()).Msg("run started")

	a.publish(ctx, eventbus.EventRunStarted, runID, map[string]interface{}{
		"structured": req.Structured(),
	})

	output, err := a.run(ctx, runID, req, a.config.MaxDecisions, a.config.RunBudget, "")
	if err != nil && HasCode(err, ErrCodeProviderConnection) {
		logger.Warn().Err(err).Msg("provider connection failed, entering simplified retry")
		a.publish(ctx, eventbus.EventRunRetry, runID, map[string]interface{}{
			"reason": err.Error(),
		})
		output, err = a.run(ctx, runID, req, a.config.SimplifiedMaxDecisions, a.config.SimplifiedRunBudget, a.config.DefaultTool)
	}

	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// The caller went away; a fallback output has no reader.
			return "", NewCancelledError("run", ctx.Err())
		}
		logger.Warn().Err(err).Msg("run failed, returning degraded output")
		a.publish(ctx, eventbus.EventRunDegraded, runID, map[string]interface{}{
			"reason": err.Error(),
		})
		return degradedOutput(req), nil
	}

	logger.Info().Msg("run completed")
	return output, nil
}

// run executes one bounded pass of the orchestration loop. An onlyTool name
// restricts the catalog for the simplified retry.
func (a *Agent) run(ctx context.Context, runID string, req Request, maxDecisions int, budget time.Duration, onlyTool string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	session, err := a.gateway.Open(runCtx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	catalog := session.Tools()
	if onlyTool != "" {
		catalog = restrictCatalog(catalog, onlyTool)
	}

	components := runComponents{
		engine:       a.engine,
		session:      session,
		maxDecisions: maxDecisions,
	}
	stateMachine := createRunStateMachine(components, a.eventBus)
	return stateMachine.Execute(runCtx, NewRunContext(runID, req, catalog))
}

func restrictCatalog(catalog []ToolCatalogEntry, onlyTool string) []ToolCatalogEntry {
	restricted := make([]ToolCatalogEntry, 0, 1)
	for _, entry := range catalog {
		if entry.Name == onlyTool {
			restricted = append(restricted, entry)
		}
	}
	return restricted
}

func (a *Agent) publish(ctx context.Context, eventType eventbus.EventType, runID string, metadata map[string]interface{}) {
	publish(ctx, a.eventBus, eventType, runID, "Agent", metadata)
}
