package survey

import (
	"regexp"
	"strconv"
	"strings"
)

// Region codes produced by ClassifyRegion.
const (
	RegionNA    = "NA"
	RegionLATAM = "LATAM"
	RegionAPAC  = "APAC"
	RegionEMEA  = "EMEA"
)

// Program maturity classes produced by ClassifyMaturity.
const (
	MaturityEarly      = "Early"
	MaturityDeveloping = "Developing"
	MaturityMature     = "Mature"
	MaturityUnknown    = "Unknown"
)

// rule matches when the lowercased input contains any of its needles. Rules are
// evaluated in slice order and the first match wins.
type rule struct {
	needles []string
	result  string
}

func firstMatch(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(text, n) {
				return r.result, true
			}
		}
	}
	return "", false
}

var regionRules = []rule{
	{[]string{"north america", "united states", "canada"}, RegionNA},
	{[]string{"latin america", "latam", "south america", "mexico", "brazil"}, RegionLATAM},
	{[]string{"asia", "apac", "pacific", "australia"}, RegionAPAC},
	{[]string{"europe", "emea", "middle east", "africa", "united kingdom"}, RegionEMEA},
}

// ClassifyRegion maps a free-text headquarters answer to a region code. Text that matches
// no rule is returned trimmed but otherwise unchanged.
func ClassifyRegion(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := firstMatch(regionRules, strings.ToLower(s)); ok {
		return code
	}
	return s
}

// IsRegionCode reports whether s is one of the codes ClassifyRegion produces.
func IsRegionCode(s string) bool {
	switch s {
	case RegionNA, RegionLATAM, RegionAPAC, RegionEMEA:
		return true
	}
	return false
}

var maturityRules = []rule{
	{[]string{"less than 1 year", "less than a year", "0-1 year", "0–1 year", "not yet launched"}, MaturityEarly},
	{[]string{"1-2 years", "1–2 years", "2-3 years", "2–3 years"}, MaturityDeveloping},
	{[]string{"3-5 years", "3–5 years", "more than 5 years", "5+ years"}, MaturityMature},
}

var rangeSpacing = regexp.MustCompile(`\s*([-–])\s*`)

// ClassifyMaturity buckets a program tenure answer into Early, Developing or Mature.
// Empty or unrecognized answers are Unknown.
func ClassifyMaturity(s string) string {
	text := strings.ToLower(strings.Join(strings.Fields(s), " "))
	text = rangeSpacing.ReplaceAllString(text, "$1")
	if m, ok := firstMatch(maturityRules, text); ok {
		return m
	}
	return MaturityUnknown
}

// ParsePercent reads answers like "42%", "42.5 %" or "42". Anything that does not parse
// to a finite number is missing.
func ParsePercent(s string) Num {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing()
	}
	return Some(v)
}
