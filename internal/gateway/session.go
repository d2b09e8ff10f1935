package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
)

// mcpSession wraps a live MCP client session behind the leadscout.Session
// interface. Per-tool failures (unknown name, timeout, provider-reported
// error) come back as failed results; only connection-level breakage is
// returned as an error.
type mcpSession struct {
	session     *mcp.ClientSession
	catalog     []leadscout.ToolCatalogEntry
	known       map[string]bool
	callTimeout time.Duration
	logger      zerolog.Logger
}

func (s *mcpSession) Tools() []leadscout.ToolCatalogEntry {
	return s.catalog
}

func (s *mcpSession) Call(ctx context.Context, name string, args map[string]any) (leadscout.ToolResult, error) {
	canonical := CanonicalName(name)
	if !s.known[canonical] {
		s.logger.Error().Str("tool", name).Str("canonical", canonical).Msg("tool not in catalog")
		return leadscout.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("Tool '%s' not available", name),
			Tool:    name,
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.session.CallTool(callCtx, &mcp.CallToolParams{Name: canonical, Arguments: args})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Error().Str("tool", canonical).Dur("elapsed", time.Since(started)).Msg("tool call timed out")
			return leadscout.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("Tool '%s' timed out after %s", canonical, s.callTimeout),
				Tool:    canonical,
			}, nil
		}
		if ctx.Err() != nil {
			return leadscout.ToolResult{}, leadscout.NewCancelledError("tool call", ctx.Err())
		}
		return leadscout.ToolResult{}, leadscout.NewProviderConnectionError(err)
	}

	if result.IsError {
		return leadscout.ToolResult{
			Success: false,
			Error:   flattenText(result),
			Tool:    canonical,
		}, nil
	}

	s.logger.Debug().Str("tool", canonical).Dur("elapsed", time.Since(started)).Msg("tool call succeeded")
	return leadscout.ToolResult{
		Success: true,
		Data:    decodePayload(result),
		Tool:    canonical,
	}, nil
}

func (s *mcpSession) Close() error {
	return s.session.Close()
}

// decodePayload flattens an MCP result into a Go value. Structured content
// wins when the provider supplies it; otherwise text blocks are joined and,
// when JSON-shaped, decoded so downstream prompts see data rather than an
// escaped string.
func decodePayload(result *mcp.CallToolResult) any {
	if result.StructuredContent != nil {
		return result.StructuredContent
	}
	text := flattenText(result)
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return text
}

func flattenText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
