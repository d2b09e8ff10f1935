// Command leadscout answers one research request from the command line. The
// query is taken from the arguments, or from stdin when no arguments are
// given, and the finished output is printed to stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
	"github.com/ZanzyTHEbar/leadscout/internal/adapters"
	"github.com/ZanzyTHEbar/leadscout/internal/cache"
	"github.com/ZanzyTHEbar/leadscout/internal/config"
	"github.com/ZanzyTHEbar/leadscout/internal/decision"
	"github.com/ZanzyTHEbar/leadscout/internal/eventbus"
	"github.com/ZanzyTHEbar/leadscout/internal/gateway"
	"github.com/ZanzyTHEbar/leadscout/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "leadscout:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	query, err := readQuery()
	if err != nil {
		return err
	}

	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.GeminiAPIKey}),
		genkit.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return fmt.Errorf("genkit initialization failed: %w", err)
	}

	backend, err := adapters.NewGenkitBackend(g, cfg.Model)
	if err != nil {
		return err
	}

	cacheTTL := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	var selectionCache leadscout.Cache
	if cfg.SelectionCacheFile != "" {
		selectionCache = cache.NewSelectionFileCache(cacheTTL, cfg.SelectionCacheFile, logger)
	} else {
		selectionCache = cache.NewInMemoryCache(cacheTTL, logger)
	}

	rules := decision.DefaultRules()
	if cfg.RulesFile != "" {
		rules, err = decision.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}
	}

	bus := eventbus.NewChannelEventBus(eventbus.WithBusLogger(logger))

	engine := decision.New(backend,
		decision.WithCache(selectionCache),
		decision.WithRules(rules),
		decision.WithDefaultTool(cfg.DefaultTool),
		decision.WithEventBus(bus),
		decision.WithLogger(logger),
	)

	gw := gateway.New(gateway.Config{
		Command:     cfg.ProviderCommand,
		Args:        cfg.ProviderArgs,
		Env:         cfg.ProviderEnv(),
		Endpoint:    cfg.ProviderEndpoint,
		CallTimeout: time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
		Denylist:    cfg.DenyTools,
	}, logger)

	agentCfg := leadscout.DefaultConfig()
	agentCfg.MaxDecisions = cfg.MaxDecisions
	agentCfg.RunBudget = time.Duration(cfg.RunBudgetSeconds) * time.Second
	agentCfg.SimplifiedMaxDecisions = cfg.SimplifiedMaxDecisions
	agentCfg.DefaultTool = cfg.DefaultTool

	agent, err := leadscout.New(
		leadscout.WithGateway(gw),
		leadscout.WithEngine(engine),
		leadscout.WithEventBus(bus),
		leadscout.WithConfig(agentCfg),
		leadscout.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer agent.Close()

	trace := subscribeTrace(agent, logger)

	output, err := agent.Answer(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(output)
	if used := trace.names(); len(used) > 0 {
		fmt.Fprintln(os.Stderr, "Tools used:", strings.Join(used, ", "))
	}
	return nil
}

// readQuery takes the request from the arguments, or from stdin when none are
// given.
func readQuery() (string, error) {
	if len(os.Args) > 1 {
		return strings.Join(os.Args[1:], " "), nil
	}

	fmt.Fprintln(os.Stderr, "Reading query from stdin...")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	query := strings.TrimSpace(strings.Join(lines, "\n"))
	if query == "" {
		return "", fmt.Errorf("empty query")
	}
	return query, nil
}

// toolTrace records which provider tools a run touched, so the shell user can
// see what fed the answer.
type toolTrace struct {
	mu    sync.Mutex
	seen  map[string]bool
	order []string
}

func (t *toolTrace) record(name string) {
	if name == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen[name] {
		t.seen[name] = true
		t.order = append(t.order, name)
	}
}

func (t *toolTrace) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

func subscribeTrace(agent *leadscout.Agent, logger zerolog.Logger) *toolTrace {
	trace := &toolTrace{seen: make(map[string]bool)}
	bus := agent.EventBus()
	if bus == nil {
		return trace
	}
	types := []eventbus.EventType{
		eventbus.EventToolCallStarted,
		eventbus.EventToolCallSuccess,
		eventbus.EventToolCallFailure,
	}
	_, _ = bus.Subscribe(types, func(ctx context.Context, event eventbus.Event) error {
		meta := event.Metadata()
		name, _ := meta["tool"].(string)
		if event.Type() == eventbus.EventToolCallSuccess {
			trace.record(name)
		}
		logger.Debug().
			Str("event", string(event.Type())).
			Str("tool", name).
			Msg("tool call")
		return nil
	})
	return trace
}
