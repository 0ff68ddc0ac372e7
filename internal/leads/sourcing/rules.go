package sourcing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules reads sourcing rules from a YAML file. An empty path or a
// missing file disables rule matching (nil rules); a malformed file is a
// startup error.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sourcing rules: %w", err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sourcing rules: %w", err)
	}

	for i, rule := range doc.Rules {
		if rule.Trigger == "" || rule.Source == "" {
			return nil, fmt.Errorf("sourcing rule %d: trigger and source are required", i)
		}
		if rule.MatchType != MatchExact && rule.MatchType != MatchSubstring {
			return nil, fmt.Errorf("sourcing rule %d: unknown matchType %q", i, rule.MatchType)
		}
	}

	return doc.Rules, nil
}
