package gateway

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/leadscout"
)

// Convenience wrappers for the provider tools the agent reaches for most.
// They operate on the Session interface so callers and tests can substitute
// their own.

// SearchWeb runs the general web search tool.
func SearchWeb(ctx context.Context, s leadscout.Session, query string, numResults int) (leadscout.ToolResult, error) {
	return s.Call(ctx, "search_engine", map[string]any{
		"query":       query,
		"num_results": numResults,
	})
}

// ScrapeURL fetches a page in the given format ("markdown" or "html").
func ScrapeURL(ctx context.Context, s leadscout.Session, url, format string) (leadscout.ToolResult, error) {
	return s.Call(ctx, "scrape_as_"+format, map[string]any{"url": url})
}

// LinkedInProfile pulls a person's profile dataset.
func LinkedInProfile(ctx context.Context, s leadscout.Session, profileURL string) (leadscout.ToolResult, error) {
	return s.Call(ctx, "linkedin_person_profile", map[string]any{"profile_url": profileURL})
}

var companyPlatformTools = map[string]string{
	"linkedin":   "linkedin_company_profile",
	"crunchbase": "crunchbase_company",
	"zoominfo":   "zoominfo_company_profile",
}

// CompanyInfo pulls a company dataset from the named platform.
func CompanyInfo(ctx context.Context, s leadscout.Session, companyName, platform string) (leadscout.ToolResult, error) {
	tool, ok := companyPlatformTools[platform]
	if !ok {
		return leadscout.ToolResult{Success: false, Error: fmt.Sprintf("Unsupported platform: %s", platform)}, nil
	}
	return s.Call(ctx, tool, map[string]any{"company_name": companyName})
}

// SearchJobs queries LinkedIn job listings.
func SearchJobs(ctx context.Context, s leadscout.Session, query, location string) (leadscout.ToolResult, error) {
	return s.Call(ctx, "linkedin_job_listings", map[string]any{
		"query":    query,
		"location": location,
	})
}

var productPlatformTools = map[string]string{
	"amazon":  "amazon_product_search",
	"walmart": "web_data_walmart_product",
	"ebay":    "web_data_ebay_product",
	"bestbuy": "web_data_bestbuy_products",
}

// ProductInfo queries a product dataset on the named e-commerce platform.
func ProductInfo(ctx context.Context, s leadscout.Session, query, platform string) (leadscout.ToolResult, error) {
	tool, ok := productPlatformTools[platform]
	if !ok {
		return leadscout.ToolResult{Success: false, Error: fmt.Sprintf("Unsupported e-commerce platform: %s", platform)}, nil
	}
	return s.Call(ctx, tool, map[string]any{"query": query})
}
