package gateway

// aliases maps the short tool names used in prompts and stored decisions to
// the provider's canonical dataset tool names. Unknown names pass through
// unchanged.
var aliases = map[string]string{
	"crunchbase_company":        "web_data_crunchbase_company",
	"linkedin_person_profile":   "web_data_linkedin_person_profile",
	"linkedin_company_profile":  "web_data_linkedin_company_profile",
	"linkedin_job_listings":     "web_data_linkedin_job_listings",
	"linkedin_posts":            "web_data_linkedin_posts",
	"zoominfo_company_profile":  "web_data_zoominfo_company_profile",
	"amazon_product":            "web_data_amazon_product",
	"amazon_product_search":     "web_data_amazon_product_search",
}

// CanonicalName resolves a tool alias to the provider's canonical name.
func CanonicalName(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
