package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Category describes one billable item category and the policy coverage
// section that pays for it.
type Category struct {
	Display     string `yaml:"display" json:"display"`
	CoverageKey string `yaml:"coverage_key" json:"coverage_key"`
}

type Catalog struct {
	Categories map[string]Category `yaml:"categories" json:"categories"`
	// PreAuthKeywords mark diagnostic items that need a pre-authorization
	// number when the policy asks for one.
	PreAuthKeywords []string `yaml:"pre_auth_keywords" json:"pre_auth_keywords"`
	GenericMarkers  []string `yaml:"generic_markers" json:"generic_markers"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Categories) == 0 {
		return Catalog{}, fmt.Errorf("terminology catalog empty")
	}
	def := DefaultCatalog()
	if len(cat.PreAuthKeywords) == 0 {
		cat.PreAuthKeywords = def.PreAuthKeywords
	}
	if len(cat.GenericMarkers) == 0 {
		cat.GenericMarkers = def.GenericMarkers
	}
	return cat, nil
}

func (c Catalog) Lookup(category string) (Category, bool) {
	if c.Categories == nil {
		return Category{}, false
	}
	entry, ok := c.Categories[strings.ToLower(category)]
	if ok {
		return entry, true
	}
	for k, v := range c.Categories {
		if strings.EqualFold(k, category) {
			return v, true
		}
	}
	return Category{}, false
}

// CoverageKey returns the coverage section name for an item category, or ""
// when the category is unknown.
func (c Catalog) CoverageKey(category string) string {
	entry, ok := c.Lookup(category)
	if !ok {
		return ""
	}
	return entry.CoverageKey
}

// RequiresPreAuth matches keywords on word boundaries so "ct" does not fire
// on "doctor".
func (c Catalog) RequiresPreAuth(description string) bool {
	padded := " " + strings.Join(strings.FieldsFunc(strings.ToLower(description), isSeparator), " ") + " "
	for _, kw := range c.PreAuthKeywords {
		kw = strings.Join(strings.FieldsFunc(strings.ToLower(kw), isSeparator), " ")
		if kw != "" && strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func (c Catalog) IsGeneric(description string) bool {
	return containsAny(strings.ToLower(description), c.GenericMarkers)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func DefaultCatalog() Catalog {
	return Catalog{
		Categories: map[string]Category{
			"consultation":         {Display: "Consultation", CoverageKey: "consultation_fees"},
			"diagnostic":           {Display: "Diagnostic Test", CoverageKey: "diagnostic_tests"},
			"pharmacy":             {Display: "Pharmacy", CoverageKey: "pharmacy"},
			"dental":               {Display: "Dental", CoverageKey: "dental"},
			"vision":               {Display: "Vision", CoverageKey: "vision"},
			"alternative_medicine": {Display: "Alternative Medicine", CoverageKey: "alternative_medicine"},
		},
		PreAuthKeywords: []string{"mri", "ct", "ct scan", "mri scan"},
		GenericMarkers:  []string{"generic"},
	}
}
