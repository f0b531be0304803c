package dlp

import (
	"fmt"
	"regexp"
	"sort"
)

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Detector finds and masks personal identifiers in free text and in the
// nested maps used for event payloads and audit details. A nil Detector
// leaves data untouched.
type Detector struct {
	rules []compiledRule
}

func NewDetector(cfg RulesConfig) (*Detector, error) {
	var compiled []compiledRule
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return &Detector{rules: compiled}, nil
}

type Finding struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type Result struct {
	Detected bool      `json:"detected"`
	Types    []string  `json:"types"`
	Findings []Finding `json:"findings"`
}

// Detect reports which identifier types occur in text.
func (d *Detector) Detect(text string) Result {
	if d == nil {
		return Result{}
	}
	var res Result
	seen := map[string]struct{}{}
	for _, r := range d.rules {
		for _, m := range r.re.FindAllStringIndex(text, -1) {
			res.Findings = append(res.Findings, Finding{Type: r.rule.Type, Start: m[0], End: m[1]})
			seen[r.rule.Type] = struct{}{}
		}
	}
	for t := range seen {
		res.Types = append(res.Types, t)
	}
	sort.Strings(res.Types)
	res.Detected = len(res.Findings) > 0
	return res
}

func (d *Detector) MaskText(text string) string {
	if d == nil {
		return text
	}
	for _, r := range d.rules {
		text = r.re.ReplaceAllString(text, r.rule.Mask)
	}
	return text
}

// Sanitize returns a copy of data with every string value masked.
func (d *Detector) Sanitize(data map[string]interface{}) map[string]interface{} {
	if d == nil {
		return data
	}

	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		out[key] = d.sanitizeValue(value)
	}
	return out
}

func (d *Detector) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return d.MaskText(v)
	case map[string]interface{}:
		return d.Sanitize(v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, nested := range v {
			out[k] = d.MaskText(nested)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, nested := range v {
			out[i] = d.sanitizeValue(nested)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, nested := range v {
			out[i] = d.MaskText(nested)
		}
		return out
	default:
		return value
	}
}
