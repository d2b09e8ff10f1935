package decision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules reads a classifier rule set from a YAML file. Sections left empty
// in the file inherit the built-in defaults, so a deployment can override just
// the boundary it cares about.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return mergeRules(DefaultRules(), loaded), nil
}

func mergeRules(base, override Rules) Rules {
	pick := func(def, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return def
	}
	return Rules{
		TemporalTerms: pick(base.TemporalTerms, override.TemporalTerms),
		EntityTerms:   pick(base.EntityTerms, override.EntityTerms),
		InfoVerbs:     pick(base.InfoVerbs, override.InfoVerbs),
		ProfileTerms:  pick(base.ProfileTerms, override.ProfileTerms),
		PersonTerms:   pick(base.PersonTerms, override.PersonTerms),
		JobTerms:      pick(base.JobTerms, override.JobTerms),
		CommerceTerms: pick(base.CommerceTerms, override.CommerceTerms),
		URLPrefixes:   pick(base.URLPrefixes, override.URLPrefixes),
	}
}
