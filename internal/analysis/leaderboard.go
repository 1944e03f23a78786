package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// Entry is one leaderboard line.
type Entry struct {
	Rank     int     `json:"rank"`
	Company  string  `json:"company"`
	Region   string  `json:"region"`
	Industry string  `json:"industry"`
	Value    float64 `json:"value"`
}

// Leaderboard ranks rows by a numeric field, highest first. Rows missing the metric are
// left out; ties are broken by company name. n <= 0 returns every ranked row.
func Leaderboard(rows []survey.Row, metric survey.Field, n int) ([]Entry, error) {
	if !survey.IsNumeric(metric) {
		return nil, fmt.Errorf("leaderboard metric %q is not numeric", metric)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		v, _ := r.Numeric(metric)
		if !v.Valid {
			continue
		}
		out = append(out, Entry{Company: r.Company, Region: r.Region, Industry: r.Industry, Value: v.V})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value == out[j].Value {
			return strings.ToLower(out[i].Company) < strings.ToLower(out[j].Company)
		}
		return out[i].Value > out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
