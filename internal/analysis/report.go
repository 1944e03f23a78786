package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// Options controls dashboard analysis.
type Options struct {
	// Filter restricts the rows analyzed.
	Filter Filter
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopN bounds the leaderboard and top challenges lists.
	TopN int
	// LeaderboardMetric is the numeric field companies are ranked by.
	LeaderboardMetric survey.Field
	// Correlations computes Pearson correlations among numeric fields.
	Correlations bool
	// OutlierThreshold counts |robust z| above it; 0 disables.
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dashboard analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:        5,
		TopN:              10,
		LeaderboardMetric: survey.FieldPartnerRevenuePct,
		Correlations:      true,
		OutlierThreshold:  3.5,
	}
}

// Report is a markdown-friendly analysis of a standardized survey dataset.
type Report struct {
	Name          string          `json:"name"`
	Run           survey.Summary  `json:"run"`
	Filter        string          `json:"filter"`
	Total         int             `json:"total_rows"`
	Matched       int             `json:"matched_rows"`
	Numeric       []NumSummary    `json:"numeric"`
	Distributions []Distribution  `json:"distributions"`
	TopChallenges []CategoryCount `json:"top_challenges"`
	Corr          *CorrMatrix     `json:"correlations,omitempty"`
	Metric        survey.Field    `json:"leaderboard_metric"`
	Leaderboard   []Entry         `json:"leaderboard"`
	Samples       []survey.Row    `json:"samples,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// Analyze filters ds and computes every dashboard section.
func Analyze(name string, ds *survey.Dataset, opt Options) (*Report, error) {
	if ds == nil {
		return nil, fmt.Errorf("analyze: nil dataset")
	}
	metric := opt.LeaderboardMetric
	if metric == "" {
		metric = survey.FieldPartnerRevenuePct
	}
	rows := Apply(ds.Rows, opt.Filter)
	rep := &Report{
		Name:    name,
		Run:     ds.Summary,
		Filter:  opt.Filter.String(),
		Total:   len(ds.Rows),
		Matched: len(rows),
		Metric:  metric,
	}

	lb, err := Leaderboard(rows, metric, opt.TopN)
	if err != nil {
		return nil, err
	}
	rep.Leaderboard = lb

	for _, f := range survey.NumericFields {
		rep.Numeric = append(rep.Numeric, Describe(rows, f, opt.OutlierThreshold))
	}
	for _, f := range DistributionFields {
		d, err := DistributionFor(rows, f)
		if err != nil {
			return nil, err
		}
		rep.Distributions = append(rep.Distributions, d)
	}
	rep.TopChallenges = TopChallenges(rows, opt.TopN)
	if opt.Correlations {
		rep.Corr = Correlations(rows, survey.NumericFields)
	}

	sampleRows := opt.SampleRows
	if sampleRows > len(rows) {
		sampleRows = len(rows)
	}
	if sampleRows > 0 {
		rep.Samples = rows[:sampleRows]
	}

	if len(rows) == 0 && len(ds.Rows) > 0 {
		rep.Warnings = append(rep.Warnings, "filter matched no rows")
	}
	rep.Warnings = append(rep.Warnings, unparsedNotes(ds.Summary)...)
	return rep, nil
}

// unparsedNotes reports mapping failures aggregated per question.
func unparsedNotes(s survey.Summary) []string {
	byKey := make(map[string]string, len(survey.Questionnaire))
	for _, q := range survey.Questionnaire {
		byKey[q.Key] = q.Text
	}
	keys := make([]string, 0, len(s.Unparsed))
	for k, n := range s.Unparsed {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	notes := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		text := byKey[k]
		if text == "" {
			text = k
		}
		notes = append(notes, fmt.Sprintf("%d answer(s) to %q could not be mapped and are treated as missing", s.Unparsed[k], text))
	}
	if s.RepairedCells > 0 {
		notes = append(notes, fmt.Sprintf("%d cell(s) had encoding artifacts removed", s.RepairedCells))
	}
	return notes
}

var sampleColumns = []survey.Field{
	survey.FieldCompany,
	survey.FieldRegion,
	survey.FieldIndustry,
	survey.FieldRevenueBand,
	survey.FieldTotalPartners,
	survey.FieldActivePartnerRatio,
	survey.FieldPartnerRevenuePct,
	survey.FieldProgramMaturity,
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Responses: %d\n", r.Total))
	b.WriteString(fmt.Sprintf("Filter: %s\n", r.Filter))
	b.WriteString(fmt.Sprintf("Matched: %d\n\n", r.Matched))

	b.WriteString("[STANDARDIZATION]\n")
	if r.Run.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.Run.RunID))
	}
	b.WriteString(fmt.Sprintf("Repaired cells: %d\n", r.Run.RepairedCells))
	b.WriteString(fmt.Sprintf("Unmapped answers: %d\n\n", r.Run.UnparsedTotal()))

	b.WriteString("[NUMERIC FIELDS]\n")
	for _, s := range r.Numeric {
		total := s.Count + s.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(s.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: n=%d (missing %.1f%%)", s.Field, s.Count, missPct))
		if s.Count > 0 {
			b.WriteString(fmt.Sprintf(" — mean %s, median %s, std %s, min %s, max %s, p25 %s, p75 %s",
				fmtNum(s.Mean), fmtNum(s.Median), fmtNum(s.Std), fmtNum(s.Min), fmtNum(s.Max), fmtNum(s.P25), fmtNum(s.P75)))
			if s.OutlierThreshold > 0 && s.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", s.Outliers, s.OutlierThreshold))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Distributions) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, d := range r.Distributions {
			b.WriteString(fmt.Sprintf("- %s: ", d.Field))
			for i, c := range d.Buckets {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(c.Value), c.Count))
			}
			if d.Missing > 0 {
				b.WriteString(fmt.Sprintf("; missing=%d", d.Missing))
			}
			b.WriteString("\n")
		}
	}

	if len(r.TopChallenges) > 0 {
		b.WriteString("\n[TOP CHALLENGES]\n")
		for i, c := range r.TopChallenges {
			b.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, safeVal(c.Value), c.Count))
		}
	}

	if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}

	b.WriteString(fmt.Sprintf("\n[LEADERBOARD] by %s\n", r.Metric))
	if len(r.Leaderboard) == 0 {
		b.WriteString("(no companies report this metric)\n")
	}
	for _, e := range r.Leaderboard {
		b.WriteString(fmt.Sprintf("%d. %s — %.4g", e.Rank, safeName(e.Company), e.Value))
		if e.Region != "" || e.Industry != "" {
			b.WriteString(fmt.Sprintf(" (%s)", strings.Trim(e.Region+", "+e.Industry, ", ")))
		}
		b.WriteString("\n")
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		for i, f := range sampleColumns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(string(f))
		}
		b.WriteString(" |\n|")
		for range sampleColumns {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, f := range sampleColumns {
				if i > 0 {
					b.WriteString(" | ")
				}
				var val string
				if n, ok := row.Numeric(f); ok {
					val = n.String()
				} else {
					val, _ = row.Text(f)
				}
				val = truncate(val, 80)
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func fmtNum(n survey.Num) string {
	if !n.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", n.V)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
