// Package decision produces exactly one outcome per orchestration step:
// either a single tool invocation to run next, or a final answer. It owns the
// live-data trigger classification, the tool-selection prompt and its
// deterministic backup policy, and final-answer synthesis.
package decision

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
	"github.com/ZanzyTHEbar/leadscout/internal/conform"
	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
)

const defaultToolName = "search_engine"

// Engine implements leadscout.DecisionEngine over a text-completion backend.
type Engine struct {
	backend     leadscout.Backend
	cache       leadscout.Cache
	rules       Rules
	defaultTool string
	eventBus    eventbus.EventBus
	logger      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache memoizes first-step tool selections per request and catalog.
func WithCache(cache leadscout.Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithRules replaces the default trigger classifier.
func WithRules(rules Rules) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithDefaultTool overrides the backup tool used when selection parsing fails.
func WithDefaultTool(name string) Option {
	return func(e *Engine) { e.defaultTool = name }
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEventBus publishes decision lifecycle signals, such as parse failures,
// on the given bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(e *Engine) { e.eventBus = bus }
}

func New(backend leadscout.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:     backend,
		rules:       DefaultRules(),
		defaultTool: defaultToolName,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide produces the next outcome. It never returns an error: backend faults
// on the first step fall back to the default tool, and faults during
// synthesis fold into a Final outcome carrying an error string.
func (e *Engine) Decide(ctx context.Context, req leadscout.Request, catalog []leadscout.ToolCatalogEntry, steps []leadscout.Step) leadscout.AgentOutcome {
	if len(steps) == 0 {
		return e.firstStep(ctx, req, catalog)
	}
	return e.synthesize(ctx, req, steps)
}

// firstStep classifies the request and, when live data is needed, asks the
// backend to pick one tool. Structured requests always go through a tool:
// the caller declared a field schema precisely because it wants researched
// values, not recalled ones.
func (e *Engine) firstStep(ctx context.Context, req leadscout.Request, catalog []leadscout.ToolCatalogEntry) leadscout.AgentOutcome {
	query := req.Instruction
	if query == "" {
		query = req.RawText
	}

	if !req.Structured() && !e.rules.NeedsLiveData(req.RawText) {
		e.logger.Debug().Msg("no live-data triggers, answering from knowledge")
		text, err := e.backend.Invoke(ctx, knowledgePrompt(req))
		if err != nil {
			return leadscout.FinalWith(errorOutput(err))
		}
		return leadscout.FinalWith(text)
	}

	key := selectionKey(query, catalog)
	if inv, ok := e.cachedSelection(ctx, key); ok {
		e.logger.Debug().Str("tool", inv.Tool).Msg("tool selection served from cache")
		return leadscout.ContinueWith(inv)
	}

	raw, err := e.backend.Invoke(ctx, selectionPrompt(catalog, query))
	if err != nil {
		e.logger.Warn().Err(err).Msg("selection backend call failed, using backup tool")
		return leadscout.ContinueWith(e.backupInvocation(query))
	}

	inv, err := parseSelection(raw, catalog)
	if err != nil {
		parseErr := leadscout.NewDecisionParseError(err)
		e.logger.Warn().Err(parseErr).Str("raw", truncate(raw, 200)).Msg("unparseable tool selection, using backup tool")
		e.publishParseFailure(ctx, query, parseErr)
		return leadscout.ContinueWith(e.backupInvocation(query))
	}

	e.storeSelection(ctx, key, inv)
	return leadscout.ContinueWith(inv)
}

func (e *Engine) synthesize(ctx context.Context, req leadscout.Request, steps []leadscout.Step) leadscout.AgentOutcome {
	var prompt string
	if req.Structured() {
		prompt = structuredSynthesisPrompt(req, steps)
	} else {
		prompt = plainSynthesisPrompt(req, steps)
	}
	text, err := e.backend.Invoke(ctx, prompt)
	if err != nil {
		e.logger.Error().Err(err).Msg("synthesis backend call failed")
		if req.Structured() {
			// An error string must never reach the normalizer: its text-mining
			// fallback would invent field values from the error message.
			return leadscout.FinalWith(conform.Serialize(req.Schema, conform.NullValues(req.Schema)))
		}
		return leadscout.FinalWith(errorOutput(err))
	}
	return leadscout.FinalWith(text, successfulSources(steps)...)
}

func (e *Engine) publishParseFailure(ctx context.Context, query string, err error) {
	if e.eventBus == nil {
		return
	}
	event := eventbus.NewEvent(eventbus.EventDecisionParseFailure, query, "DecisionEngine", map[string]interface{}{
		"error": err.Error(),
	})
	_ = e.eventBus.Publish(ctx, event)
}

// backupInvocation is the deterministic fallback: the default web-search tool
// with the request itself as the query.
func (e *Engine) backupInvocation(query string) leadscout.ToolInvocation {
	return leadscout.ToolInvocation{
		Tool:      e.defaultTool,
		Arguments: map[string]any{"query": query},
	}
}

// parseSelection digs a {"tool": ..., "arguments": ...} object out of the
// backend's raw text and checks the tool against the catalog.
func parseSelection(raw string, catalog []leadscout.ToolCatalogEntry) (leadscout.ToolInvocation, error) {
	span, ok := conform.FirstJSONObject(raw)
	if !ok {
		return leadscout.ToolInvocation{}, fmt.Errorf("no JSON object in selection output")
	}
	var inv leadscout.ToolInvocation
	if err := json.Unmarshal([]byte(span), &inv); err != nil {
		return leadscout.ToolInvocation{}, fmt.Errorf("decoding selection: %w", err)
	}
	if inv.Tool == "" {
		return leadscout.ToolInvocation{}, fmt.Errorf("selection missing tool name")
	}
	for _, entry := range catalog {
		if entry.Name == inv.Tool {
			if inv.Arguments == nil {
				inv.Arguments = map[string]any{}
			}
			return inv, nil
		}
	}
	return leadscout.ToolInvocation{}, fmt.Errorf("selected tool %q not in catalog", inv.Tool)
}

func (e *Engine) cachedSelection(ctx context.Context, key string) (leadscout.ToolInvocation, bool) {
	if e.cache == nil {
		return leadscout.ToolInvocation{}, false
	}
	v, err := e.cache.Get(ctx, key)
	if err != nil {
		return leadscout.ToolInvocation{}, false
	}
	inv, ok := v.(leadscout.ToolInvocation)
	return inv, ok
}

func (e *Engine) storeSelection(ctx context.Context, key string, inv leadscout.ToolInvocation) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, inv); err != nil {
		e.logger.Warn().Err(err).Msg("caching tool selection failed")
	}
}

// selectionKey hashes the query together with the catalog's tool names, so a
// catalog change (different provider, denylist edit) invalidates old entries.
func selectionKey(query string, catalog []leadscout.ToolCatalogEntry) string {
	h := sha1.New()
	h.Write([]byte(query))
	for _, entry := range catalog {
		h.Write([]byte{0})
		h.Write([]byte(entry.Name))
	}
	return "selection:" + hex.EncodeToString(h.Sum(nil))
}

func successfulSources(steps []leadscout.Step) []string {
	var sources []string
	seen := map[string]bool{}
	for _, step := range steps {
		if step.Result.Success && !seen[step.Result.Tool] {
			seen[step.Result.Tool] = true
			sources = append(sources, step.Result.Tool)
		}
	}
	return sources
}

func errorOutput(err error) string {
	return fmt.Sprintf("Error generating response: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
