package decision

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/leadscout"
)

// Prompt construction. Three shapes: tool selection (first step with live-data
// triggers), structured synthesis (JSON-only output against a declared field
// set), and plain synthesis (cited SDR prose). The JSON-only rules are stated
// aggressively because the backend is not contractually guaranteed to honor
// them; the conformance layer backstops whatever comes back.

func selectionPrompt(catalog []leadscout.ToolCatalogEntry, query string) string {
	var b strings.Builder
	b.WriteString("You are an SDR research agent. Pick exactly ONE tool to gather data for the request below.\n\n")
	b.WriteString("AVAILABLE TOOLS:\n")
	for _, entry := range catalog {
		desc := entry.Description
		if desc == "" {
			desc = "no description"
		}
		fmt.Fprintf(&b, "- %s: %s\n", entry.Name, desc)
	}
	b.WriteString(`
RESPONSE RULES:
- Respond with ONLY a JSON object of the form {"tool": "<tool name>", "arguments": {<argument mapping>}}
- No explanations, no markdown code blocks, nothing before or after the JSON
- The tool name must be one of the available tools
- Prefer search_engine for general research queries
`)
	fmt.Fprintf(&b, "\nRequest: %s\n", query)
	return b.String()
}

func structuredSynthesisPrompt(req leadscout.Request, steps []leadscout.Step) string {
	var b strings.Builder
	b.WriteString("You are an SDR research agent. Using the gathered data below, return ONLY a JSON object.\n")
	b.WriteString("\nCRITICAL: YOU MUST RETURN YOUR RESPONSE AS VALID JSON ONLY with exactly these fields:\n")
	for _, f := range req.Schema {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Type)
	}
	fmt.Fprintf(&b, `
CRITICAL JSON REQUIREMENTS:
- Return ONLY valid JSON, nothing else
- No explanations, no text before or after the JSON
- No markdown code blocks
- Use exactly these field names: %s
- If information is missing, use null for that field
- Your entire response must be parseable as JSON

Example format:
{"company_name": "Example Corp", "industry": "Technology", "employee_count": null, "is_public": true}
`, strings.Join(req.Schema.Names(), ", "))
	b.WriteString("\nGathered data:\n")
	writeStepDigest(&b, steps)
	fmt.Fprintf(&b, "\nUser Request: %s\n", req.Instruction)
	return b.String()
}

func plainSynthesisPrompt(req leadscout.Request, steps []leadscout.Step) string {
	var b strings.Builder
	b.WriteString(`You are an expert SDR (Sales Development Representative) research agent. Using the gathered data below, write an actionable research brief.

ALWAYS INCLUDE:
1. Actionable outreach strategy with personalized messaging angles
2. Business intelligence: company background, key decision makers, pain points
3. Sales context: competitive landscape, likely objections, next steps

CRITICAL CITATION REQUIREMENTS:
- Every response MUST end with "Sources: [source1], [source2]" or "Source: [source_name]"
- Use the actual website names or sources from the gathered data
- Responses without citations are incomplete

Gathered data:
`)
	writeStepDigest(&b, steps)
	fmt.Fprintf(&b, "\nUser Request: %s\n", req.RawText)
	return b.String()
}

func knowledgePrompt(req leadscout.Request) string {
	return fmt.Sprintf(`You are an expert SDR (Sales Development Representative) assistant. Answer the question below from your own knowledge with practical, actionable advice. Do not invent statistics or cite sources you do not have.

Question: %s
`, req.RawText)
}

// writeStepDigest renders the tool-call history. Payloads are truncated so a
// verbose scrape cannot blow out the context window.
func writeStepDigest(b *strings.Builder, steps []leadscout.Step) {
	const payloadLimit = 4000
	for i, step := range steps {
		fmt.Fprintf(b, "--- Tool call %d: %s ---\n", i+1, step.Invocation.Tool)
		if !step.Result.Success {
			fmt.Fprintf(b, "FAILED: %s\n", step.Result.Error)
			continue
		}
		payload := fmt.Sprintf("%v", step.Result.Data)
		if len(payload) > payloadLimit {
			payload = payload[:payloadLimit] + "... [truncated]"
		}
		b.WriteString(payload)
		b.WriteByte('\n')
	}
}
