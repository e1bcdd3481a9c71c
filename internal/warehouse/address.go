package warehouse

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// CityOther is the city assigned when no rule matches an address.
const CityOther = "Other"

// CityRule maps an address substring pattern to a canonical city name.
// Rules are evaluated in order; the first match wins.
type CityRule struct {
	Pattern string `yaml:"pattern"`
	City    string `yaml:"city"`
}

// CityMatcher resolves free-text addresses to canonical city names by
// ordered, case- and accent-insensitive substring matching.
type CityMatcher struct {
	rules []cityRule
}

type cityRule struct {
	folded string
	city   string
}

// foldTransformer lowercases after stripping combining marks, so "Fès",
// "FES" and "fes" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// NewCityMatcher builds a matcher from an ordered rule list.
func NewCityMatcher(rules []CityRule) *CityMatcher {
	m := &CityMatcher{rules: make([]cityRule, 0, len(rules))}
	for _, r := range rules {
		m.rules = append(m.rules, cityRule{folded: fold(r.Pattern), city: r.City})
	}
	return m
}

// Match returns the canonical city for an address, or CityOther when no
// rule matches. A malformed address is never an error.
func (m *CityMatcher) Match(address string) string {
	folded := fold(address)
	for _, r := range m.rules {
		if strings.Contains(folded, r.folded) {
			return r.city
		}
	}
	return CityOther
}

// DefaultCityRules returns the built-in rule set covering the Moroccan
// cities observed in the source data, including anglicized spellings.
// Accented variants collapse under folding and need no separate rules.
func DefaultCityRules() []CityRule {
	return []CityRule{
		{Pattern: "casablanca", City: "Casablanca"},
		{Pattern: "rabat", City: "Rabat"},
		{Pattern: "marrakech", City: "Marrakech"},
		{Pattern: "marrakesh", City: "Marrakech"},
		{Pattern: "fes", City: "Fès"},
		{Pattern: "fez", City: "Fès"},
		{Pattern: "tanger", City: "Tanger"},
		{Pattern: "tangier", City: "Tanger"},
		{Pattern: "agadir", City: "Agadir"},
		{Pattern: "meknes", City: "Meknès"},
		{Pattern: "oujda", City: "Oujda"},
		{Pattern: "kenitra", City: "Kenitra"},
		{Pattern: "tetouan", City: "Tétouan"},
		{Pattern: "sale", City: "Salé"},
		{Pattern: "temara", City: "Temara"},
		{Pattern: "mohammedia", City: "Mohammedia"},
		{Pattern: "el jadida", City: "El Jadida"},
		{Pattern: "beni mellal", City: "Beni Mellal"},
		{Pattern: "nador", City: "Nador"},
		{Pattern: "safi", City: "Safi"},
		{Pattern: "laayoune", City: "Laâyoune"},
	}
}

// LoadCityRules reads an ordered rule list from a YAML file, for
// deployments that need to extend or replace the built-in set.
func LoadCityRules(path string) ([]CityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read city rules: %w", err)
	}

	var rules []CityRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse city rules %s: %w", path, err)
	}
	for i, r := range rules {
		if r.Pattern == "" || r.City == "" {
			return nil, fmt.Errorf("city rule %d in %s: pattern and city are required", i, path)
		}
	}
	return rules, nil
}

// ExtractPostalCode returns the first run of exactly five consecutive
// digits in the address, or nil when none exists. Longer digit runs (phone
// numbers) do not qualify.
func ExtractPostalCode(address string) *string {
	runStart := -1
	flush := func(end int) *string {
		if runStart >= 0 && end-runStart == 5 {
			code := address[runStart:end]
			return &code
		}
		return nil
	}

	for i, r := range address {
		if r >= '0' && r <= '9' {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if code := flush(i); code != nil {
			return code
		}
		runStart = -1
	}
	return flush(len(address))
}
