package analysis

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// Filter restricts rows by dimension value. Dimensions are AND-combined; values within a
// dimension are OR-combined. Matching ignores case and surrounding whitespace.
// An empty filter matches every row.
type Filter map[survey.Field][]string

// dimensionAliases maps the short names accepted by the CLI and the API to fields.
var dimensionAliases = map[string]survey.Field{
	"region":       survey.FieldRegion,
	"industry":     survey.FieldIndustry,
	"revenue_band": survey.FieldRevenueBand,
	"revenue":      survey.FieldRevenueBand,
	"maturity":     survey.FieldProgramMaturity,
}

// ParseDimension resolves a filter dimension name such as "region" or "maturity".
func ParseDimension(name string) (survey.Field, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := dimensionAliases[key]; ok {
		return f, true
	}
	for _, f := range survey.DimensionFields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

// Add appends allowed values for a dimension, skipping blanks.
func (f Filter) Add(field survey.Field, values ...string) {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			f[field] = append(f[field], v)
		}
	}
}

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool {
	for _, vals := range f {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// String renders the filter deterministically, e.g. "region=APAC|EMEA; industry=SaaS".
func (f Filter) String() string {
	if f.IsEmpty() {
		return "none"
	}
	keys := make([]string, 0, len(f))
	for k, vals := range f {
		if len(vals) > 0 {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(f[survey.Field(k)], "|"))
	}
	return strings.Join(parts, "; ")
}

// Apply returns the rows matching every dimension of f. The input slice is not modified.
func Apply(rows []survey.Row, f Filter) []survey.Row {
	if f.IsEmpty() {
		return rows
	}
	sets := make(map[survey.Field]map[string]bool, len(f))
	for dim, allowed := range f {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}

	out := make([]survey.Row, 0, len(rows))
	for _, r := range rows {
		pass := true
		for dim, set := range sets {
			val, _ := r.Text(dim)
			if !set[strings.ToLower(strings.TrimSpace(val))] {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, r)
		}
	}
	return out
}

func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
