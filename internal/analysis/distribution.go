package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// ErrNoDistribution is returned for fields that are neither categorical nor bucketed.
var ErrNoDistribution = errors.New("field has no distribution")

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Distribution counts rows per value of one field. For bucketed numeric fields Buckets
// follow the bin table order and include empty bins; otherwise they are sorted by count.
type Distribution struct {
	Field   survey.Field    `json:"field"`
	Kind    string          `json:"kind"` // category|bins
	Buckets []CategoryCount `json:"buckets"`
	Missing int             `json:"missing"`
}

// DistributionFields are the fields reported in the distributions section.
var DistributionFields = []survey.Field{
	survey.FieldRegion,
	survey.FieldIndustry,
	survey.FieldRevenueBand,
	survey.FieldProgramMaturity,
	survey.FieldEmployees,
	survey.FieldTeamSize,
	survey.FieldTotalPartners,
	survey.FieldActivePartners,
	survey.FieldTimeToRevenue,
}

// DistributionFor counts rows per category or bin for f.
func DistributionFor(rows []survey.Row, f survey.Field) (Distribution, error) {
	if table := survey.BinTableFor(f); table != nil {
		return binHistogram(rows, f, table), nil
	}
	if survey.IsNumeric(f) || f == survey.FieldCompany || f == survey.FieldCompanyKey {
		return Distribution{}, fmt.Errorf("%w: %s", ErrNoDistribution, f)
	}
	if f == survey.FieldTopChallenge {
		d := Distribution{Field: f, Kind: "category"}
		d.Buckets, d.Missing = groupNormalized(rows, f)
		return d, nil
	}
	return categoryCounts(rows, f), nil
}

func categoryCounts(rows []survey.Row, f survey.Field) Distribution {
	d := Distribution{Field: f, Kind: "category"}
	counts := map[string]int{}
	for _, r := range rows {
		v, _ := r.Text(f)
		v = strings.TrimSpace(v)
		if v == "" {
			d.Missing++
			continue
		}
		counts[v]++
	}
	d.Buckets = sortedCounts(counts)
	return d
}

// binHistogram maps each stored midpoint back to its bin label.
func binHistogram(rows []survey.Row, f survey.Field, table *survey.BinTable) Distribution {
	d := Distribution{Field: f, Kind: "bins"}
	bins := table.Bins()
	pos := make(map[float64]int, len(bins))
	d.Buckets = make([]CategoryCount, len(bins))
	for i, b := range bins {
		pos[b.Mid] = i
		d.Buckets[i] = CategoryCount{Value: b.Label}
	}
	for _, r := range rows {
		n, _ := r.Numeric(f)
		if !n.Valid {
			d.Missing++
			continue
		}
		if i, ok := pos[n.V]; ok {
			d.Buckets[i].Count++
		}
	}
	return d
}

// groupNormalized groups free text by its normalized form. Each group is labelled with the
// first spelling seen.
func groupNormalized(rows []survey.Row, f survey.Field) ([]CategoryCount, int) {
	missing := 0
	label := map[string]string{}
	counts := map[string]int{}
	for _, r := range rows {
		v, _ := r.Text(f)
		key := survey.NormalizeCategory(v)
		if key == "" {
			missing++
			continue
		}
		if _, ok := label[key]; !ok {
			label[key] = strings.TrimSpace(v)
		}
		counts[key]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for key, n := range counts {
		out = append(out, CategoryCount{Value: label[key], Count: n})
	}
	sortCounts(out)
	return out, missing
}

// TopChallenges returns the n most common challenges, grouped by normalized text.
func TopChallenges(rows []survey.Row, n int) []CategoryCount {
	out, _ := groupNormalized(rows, survey.FieldTopChallenge)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedCounts(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sortCounts(out)
	return out
}

func sortCounts(cc []CategoryCount) {
	sort.Slice(cc, func(i, j int) bool {
		if cc[i].Count == cc[j].Count {
			return cc[i].Value < cc[j].Value
		}
		return cc[i].Count > cc[j].Count
	})
}
