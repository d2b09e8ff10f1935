package decision

import "strings"

// Rules is the keyword classifier that decides, on the first step of a run,
// whether a request needs live external data or can be answered from model
// knowledge alone. The boundary is deliberately configurable: the default set
// covers the common lead-research shapes, and deployments can load their own
// set from a YAML file.
type Rules struct {
	TemporalTerms []string `yaml:"temporal_terms"`
	EntityTerms   []string `yaml:"entity_terms"`
	InfoVerbs     []string `yaml:"info_verbs"`
	ProfileTerms  []string `yaml:"profile_terms"`
	PersonTerms   []string `yaml:"person_terms"`
	JobTerms      []string `yaml:"job_terms"`
	CommerceTerms []string `yaml:"commerce_terms"`
	URLPrefixes   []string `yaml:"url_prefixes"`
}

// DefaultRules returns the built-in classifier boundary.
func DefaultRules() Rules {
	return Rules{
		TemporalTerms: []string{"latest", "recent", "current", "today", "news", "announcement"},
		EntityTerms:   []string{"company", "business", "startup", "organization", "firm"},
		InfoVerbs:     []string{"find", "research", "look up", "lookup", "tell me about", "who is", "what is", "info", "information", "details"},
		ProfileTerms:  []string{"linkedin", "profile"},
		PersonTerms:   []string{"person", "people", "founder", "ceo", "executive", "contact", "employee"},
		JobTerms:      []string{"job", "jobs", "hiring", "position", "opening", "vacancy"},
		CommerceTerms: []string{"product", "pricing", "price", "competitor", "competitors"},
		URLPrefixes:   []string{"http://", "https://", "www."},
	}
}

// NeedsLiveData reports whether text matches any live-data trigger.
func (r Rules) NeedsLiveData(text string) bool {
	lowered := strings.ToLower(text)
	if matchesAny(lowered, r.TemporalTerms) {
		return true
	}
	if matchesAny(lowered, r.URLPrefixes) {
		return true
	}
	if matchesAny(lowered, r.JobTerms) {
		return true
	}
	if matchesAny(lowered, r.CommerceTerms) {
		return true
	}
	if matchesAny(lowered, r.EntityTerms) && matchesAny(lowered, r.InfoVerbs) {
		return true
	}
	if matchesAny(lowered, r.ProfileTerms) && matchesAny(lowered, r.PersonTerms) {
		return true
	}
	return false
}

func matchesAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
