package gateway

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
)

// stubSession records calls and plays back canned results.
type stubSession struct {
	catalog  []leadscout.ToolCatalogEntry
	lastName string
	lastArgs map[string]any
	result   leadscout.ToolResult
	err      error
	closed   bool
}

func (s *stubSession) Tools() []leadscout.ToolCatalogEntry { return s.catalog }

func (s *stubSession) Call(ctx context.Context, name string, args map[string]any) (leadscout.ToolResult, error) {
	s.lastName = name
	s.lastArgs = args
	return s.result, s.err
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func TestCanonicalName(t *testing.T) {
	cases := map[string]string{
		"crunchbase_company":           "web_data_crunchbase_company",
		"linkedin_person_profile":      "web_data_linkedin_person_profile",
		"amazon_product":               "web_data_amazon_product",
		"search_engine":                "search_engine",
		"web_data_crunchbase_company":  "web_data_crunchbase_company",
		"something_entirely_different": "something_entirely_different",
	}
	for in, want := range cases {
		if got := CanonicalName(in); got != want {
			t.Errorf("CanonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_RequiresProvider(t *testing.T) {
	g := New(Config{}, zerolog.Nop())
	_, err := g.Open(context.Background())
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if !leadscout.HasCode(err, leadscout.ErrCodeConfiguration) {
		t.Errorf("error code mismatch: %v", err)
	}
}

func TestSearchWeb(t *testing.T) {
	stub := &stubSession{result: leadscout.ToolResult{Success: true, Tool: "search_engine"}}
	res, err := SearchWeb(context.Background(), stub, "acme corp news", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Error("expected success")
	}
	if stub.lastName != "search_engine" {
		t.Errorf("tool = %q", stub.lastName)
	}
	if stub.lastArgs["query"] != "acme corp news" || stub.lastArgs["num_results"] != 10 {
		t.Errorf("args = %v", stub.lastArgs)
	}
}

func TestScrapeURL(t *testing.T) {
	stub := &stubSession{}
	if _, err := ScrapeURL(context.Background(), stub, "https://example.com", "markdown"); err != nil {
		t.Fatal(err)
	}
	if stub.lastName != "scrape_as_markdown" {
		t.Errorf("tool = %q", stub.lastName)
	}
	if stub.lastArgs["url"] != "https://example.com" {
		t.Errorf("args = %v", stub.lastArgs)
	}
}

func TestCompanyInfo_Platforms(t *testing.T) {
	cases := map[string]string{
		"linkedin":   "linkedin_company_profile",
		"crunchbase": "crunchbase_company",
		"zoominfo":   "zoominfo_company_profile",
	}
	for platform, wantTool := range cases {
		stub := &stubSession{}
		if _, err := CompanyInfo(context.Background(), stub, "Acme", platform); err != nil {
			t.Fatal(err)
		}
		if stub.lastName != wantTool {
			t.Errorf("platform %q routed to %q, want %q", platform, stub.lastName, wantTool)
		}
		if stub.lastArgs["company_name"] != "Acme" {
			t.Errorf("args = %v", stub.lastArgs)
		}
	}
}

func TestCompanyInfo_UnsupportedPlatform(t *testing.T) {
	stub := &stubSession{}
	res, err := CompanyInfo(context.Background(), stub, "Acme", "myspace")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected a failed result, got %+v", res)
	}
	if stub.lastName != "" {
		t.Error("no call should have been made")
	}
}

func TestProductInfo_Platforms(t *testing.T) {
	stub := &stubSession{}
	if _, err := ProductInfo(context.Background(), stub, "wireless earbuds", "walmart"); err != nil {
		t.Fatal(err)
	}
	if stub.lastName != "web_data_walmart_product" {
		t.Errorf("tool = %q", stub.lastName)
	}
}

func TestDecodePayload_StructuredWins(t *testing.T) {
	result := &mcp.CallToolResult{
		StructuredContent: map[string]any{"name": "Acme"},
		Content:           []mcp.Content{&mcp.TextContent{Text: "ignored"}},
	}
	got := decodePayload(result)
	m, ok := got.(map[string]any)
	if !ok || m["name"] != "Acme" {
		t.Errorf("decodePayload = %#v", got)
	}
}

func TestDecodePayload_JSONText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: ` {"employees": 250} `}},
	}
	got := decodePayload(result)
	m, ok := got.(map[string]any)
	if !ok || m["employees"] != float64(250) {
		t.Errorf("decodePayload = %#v", got)
	}
}

func TestDecodePayload_PlainText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "line one"},
			&mcp.TextContent{Text: "line two"},
		},
	}
	if got := decodePayload(result); got != "line one\nline two" {
		t.Errorf("decodePayload = %#v", got)
	}
}

func TestFilterCatalog(t *testing.T) {
	tools := []*mcp.Tool{
		{Name: "search_engine", Description: "web search"},
		{Name: "extract", Description: "denied"},
		{Name: "scrape_as_markdown"},
	}
	catalog := filterCatalog(tools, []string{"extract"})
	if len(catalog) != 2 {
		t.Fatalf("catalog size = %d, want 2", len(catalog))
	}
	if catalog[0].Name != "search_engine" || catalog[1].Name != "scrape_as_markdown" {
		t.Errorf("catalog = %+v", catalog)
	}
}
