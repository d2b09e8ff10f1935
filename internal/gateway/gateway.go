// Package gateway connects the agent to an MCP tool provider. It owns the
// session lifecycle: connect with retry, discover the tool catalog, route
// calls through alias mapping and a per-call timeout, and flatten provider
// payloads into a uniform result envelope.
package gateway

import (
	"context"
	"os/exec"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
)

const (
	defaultCallTimeout     = 30 * time.Second
	defaultConnectAttempts = 3
)

// Config drives how the gateway reaches the provider. Exactly one of Command
// or Endpoint must be set: Command spawns a local MCP server over stdio,
// Endpoint speaks streamable HTTP to a remote one.
type Config struct {
	Command     string
	Args        []string
	Env         []string
	Endpoint    string
	CallTimeout time.Duration
	Denylist    []string
}

// MCPGateway opens sessions against a single configured MCP provider.
type MCPGateway struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *MCPGateway {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &MCPGateway{cfg: cfg, logger: logger.With().Str("component", "gateway").Logger()}
}

// Open establishes a session and loads the tool catalog. Connection attempts
// are retried before the failure is surfaced as a provider-connection error,
// which callers treat as grounds for the simplified retry path.
func (g *MCPGateway) Open(ctx context.Context) (leadscout.Session, error) {
	if g.cfg.Command == "" && g.cfg.Endpoint == "" {
		return nil, leadscout.NewConfigurationError("gateway requires a provider command or endpoint", nil)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "leadscout", Version: "1.0.0"}, nil)

	var session *mcp.ClientSession
	err := retry.Do(
		func() error {
			cs, err := client.Connect(ctx, g.transport(ctx), nil)
			if err != nil {
				return err
			}
			session = cs
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(defaultConnectAttempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Warn().Uint("attempt", n+1).Err(err).Msg("provider connection attempt failed")
		}),
	)
	if err != nil {
		return nil, leadscout.NewProviderConnectionError(err)
	}

	catalog, err := g.loadCatalog(ctx, session)
	if err != nil {
		session.Close()
		return nil, leadscout.NewProviderConnectionError(err)
	}
	g.logger.Info().Int("tools", len(catalog)).Msg("provider session open")

	return &mcpSession{
		session:     session,
		catalog:     catalog,
		known:       catalogSet(catalog),
		callTimeout: g.cfg.CallTimeout,
		logger:      g.logger,
	}, nil
}

func (g *MCPGateway) transport(ctx context.Context) mcp.Transport {
	if g.cfg.Command != "" {
		cmd := exec.CommandContext(ctx, g.cfg.Command, g.cfg.Args...)
		if len(g.cfg.Env) > 0 {
			cmd.Env = append(cmd.Environ(), g.cfg.Env...)
		}
		return &mcp.CommandTransport{Command: cmd}
	}
	return &mcp.StreamableClientTransport{Endpoint: g.cfg.Endpoint}
}

// loadCatalog lists the provider's tools, dropping anything on the denylist.
func (g *MCPGateway) loadCatalog(ctx context.Context, session *mcp.ClientSession) ([]leadscout.ToolCatalogEntry, error) {
	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	return filterCatalog(listed.Tools, g.cfg.Denylist), nil
}

func filterCatalog(tools []*mcp.Tool, denylist []string) []leadscout.ToolCatalogEntry {
	denied := make(map[string]bool, len(denylist))
	for _, name := range denylist {
		denied[name] = true
	}
	catalog := make([]leadscout.ToolCatalogEntry, 0, len(tools))
	for _, tool := range tools {
		if denied[tool.Name] {
			continue
		}
		catalog = append(catalog, leadscout.ToolCatalogEntry{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return catalog
}

func catalogSet(catalog []leadscout.ToolCatalogEntry) map[string]bool {
	set := make(map[string]bool, len(catalog))
	for _, entry := range catalog {
		set[entry.Name] = true
	}
	return set
}
