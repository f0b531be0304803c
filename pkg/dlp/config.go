package dlp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Pattern  string `yaml:"pattern" json:"pattern"`
	Mask     string `yaml:"mask" json:"mask"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Severity string `yaml:"severity" json:"severity"`
}

type RulesConfig struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// LoadRules reads masking rules from a YAML file. An empty path selects the
// built-in rules.
func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), fmt.Errorf("reading dlp rules: %w", err)
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, fmt.Errorf("parsing dlp rules: %w", err)
	}

	if len(cfg.Rules) == 0 {
		return RulesConfig{}, errors.New("no DLP rules configured")
	}

	return cfg, nil
}

// DefaultRules masks the identifiers that show up on Indian medical
// paperwork. Aadhaar runs before phone so a 12 digit number is not half
// masked as a mobile number.
func DefaultRules() RulesConfig {
	return RulesConfig{Rules: []Rule{
		{Name: "Aadhaar", Type: "aadhaar", Pattern: `\b\d{4}[ -]?\d{4}[ -]?\d{4}\b`, Mask: "XXXX-XXXX-XXXX", Enabled: true, Severity: "high"},
		{Name: "PAN", Type: "pan", Pattern: `\b[A-Z]{5}\d{4}[A-Z]\b`, Mask: "XXXXX0000X", Enabled: true, Severity: "high"},
		{Name: "Email", Type: "email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, Mask: "***@***", Enabled: true, Severity: "medium"},
		{Name: "Phone", Type: "phone", Pattern: `(?:\+91[ -]?)?\b[6-9]\d{4}[ -]?\d{5}\b`, Mask: "XXXXX-XXXXX", Enabled: true, Severity: "medium"},
	}}
}
