package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

var fixtureAnswers = []map[string]string{
	{survey.QCompany: "Acme", survey.QRegion: "North America", survey.QIndustry: "SaaS", survey.QRevenueBand: "$10M - $50M",
		survey.QEmployees: "50 - 199", survey.QTeamSize: "2 - 5", survey.QTotalPartners: "50 - 499", survey.QActivePartners: "10 - 49",
		survey.QTimeToRevenue: "3 - 6 months", survey.QPartnerRevenue: "25%", survey.QExpectedRevenue: "40%",
		survey.QMaturity: "1-2 years", survey.QChallenge: "Recruiting partners"},
	{survey.QCompany: "Globex", survey.QRegion: "Germany, Europe", survey.QIndustry: "Fintech", survey.QRevenueBand: "$50M+",
		survey.QEmployees: "200 - 999", survey.QTeamSize: "6 - 10", survey.QTotalPartners: "500 - 999", survey.QActivePartners: "100 - 499",
		survey.QTimeToRevenue: "6 - 12 months", survey.QPartnerRevenue: "40%", survey.QExpectedRevenue: "60%",
		survey.QMaturity: "3-5 years", survey.QChallenge: "recruiting partners!"},
	{survey.QCompany: "Initech", survey.QRegion: "Asia-Pacific", survey.QIndustry: "SaaS", survey.QRevenueBand: "$1M - $10M",
		survey.QEmployees: "1 - 49", survey.QTeamSize: "Just me", survey.QTotalPartners: "Less than 50", survey.QActivePartners: "Less than 10",
		survey.QTimeToRevenue: "Less than 3 months", survey.QPartnerRevenue: "10%", survey.QExpectedRevenue: "20%",
		survey.QMaturity: "Less than 1 year", survey.QChallenge: "Enablement"},
	{survey.QCompany: "Hooli", survey.QRegion: "Canada", survey.QIndustry: "saas", survey.QRevenueBand: "$50M+",
		survey.QEmployees: "1,000 - 4,999", survey.QTeamSize: "11 - 25", survey.QTotalPartners: "1,000 - 4,999", survey.QActivePartners: "500 or more",
		survey.QTimeToRevenue: "1 - 2 years", survey.QPartnerRevenue: "n/a", survey.QExpectedRevenue: "50%",
		survey.QMaturity: "More than 5 years", survey.QChallenge: "Measuring ROI"},
	{survey.QCompany: "Umbrella", survey.QRegion: "Mars", survey.QIndustry: "Biotech",
		survey.QTotalPartners: "lots", survey.QPartnerRevenue: "40%"},
}

func fixtureDataset(t *testing.T) *survey.Dataset {
	t.Helper()
	raw := &survey.RawTable{}
	for _, q := range survey.Questionnaire {
		raw.Header = append(raw.Header, q.Text)
	}
	for _, a := range fixtureAnswers {
		rec := make([]string, 0, len(survey.Questionnaire))
		for _, q := range survey.Questionnaire {
			rec = append(rec, a[q.Key])
		}
		raw.Rows = append(raw.Rows, rec)
	}
	ds, err := survey.Standardize(raw)
	if err != nil {
		t.Fatalf("standardize: %v", err)
	}
	return ds
}

func TestAnalyzeAndMarkdown(t *testing.T) {
	ds := fixtureDataset(t)
	rep, err := Analyze("responses.csv", ds, DefaultOptions())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Total != 5 || rep.Matched != 5 {
		t.Fatalf("expected 5/5 rows, got %d/%d", rep.Total, rep.Matched)
	}
	if len(rep.Numeric) != len(survey.NumericFields) {
		t.Fatalf("expected a summary per numeric field, got %d", len(rep.Numeric))
	}

	md := rep.Markdown()
	for _, section := range []string{
		"[DATASET SUMMARY]", "[STANDARDIZATION]", "[NUMERIC FIELDS]", "[DISTRIBUTIONS]",
		"[TOP CHALLENGES]", "[CORRELATIONS]", "[LEADERBOARD] by partner_revenue_pct", "[SAMPLE ROWS]", "[NOTES]",
	} {
		if !strings.Contains(md, section) {
			t.Fatalf("expected %s in markdown, got: %s", section, md)
		}
	}
	if !strings.Contains(md, "File: responses.csv") {
		t.Fatalf("expected file name in markdown")
	}
	if !strings.Contains(md, "1. Recruiting partners (2)") {
		t.Fatalf("expected grouped challenge count, got: %s", md)
	}
	if !strings.Contains(md, "could not be mapped") {
		t.Fatalf("expected unmapped answers note, got: %s", md)
	}
}

func TestAnalyzeNumericSummaries(t *testing.T) {
	ds := fixtureDataset(t)
	rep, err := Analyze("", ds, DefaultOptions())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var pct NumSummary
	for _, s := range rep.Numeric {
		if s.Field == survey.FieldPartnerRevenuePct {
			pct = s
		}
	}
	vals := []float64{25, 40, 10, 40}
	if pct.Count != 4 || pct.Missing != 1 {
		t.Fatalf("count/missing mismatch: %+v", pct)
	}
	if !almostEqual(pct.Mean.V, mean(vals), 1e-9) {
		t.Fatalf("mean mismatch: got %v want %v", pct.Mean.V, mean(vals))
	}
	if !almostEqual(pct.Std.V, sampleStd(vals), 1e-9) {
		t.Fatalf("std mismatch: got %v want %v", pct.Std.V, sampleStd(vals))
	}
	if pct.Min.V != 10 || pct.Max.V != 40 {
		t.Fatalf("min/max mismatch: %+v", pct)
	}
	if !almostEqual(pct.Median.V, 32.5, 1e-9) {
		t.Fatalf("median mismatch: %v", pct.Median.V)
	}
	if pct.P25.V > pct.Median.V || pct.Median.V > pct.P75.V {
		t.Fatalf("quartiles out of order: %+v", pct)
	}
}

func TestDescribeSmallSamples(t *testing.T) {
	s := Describe(nil, survey.FieldEmployees, 3.5)
	if s.Count != 0 || s.Mean.Valid || s.Std.Valid {
		t.Fatalf("empty input should be all missing: %+v", s)
	}
	one := []survey.Row{{Employees: survey.Some(125)}}
	s = Describe(one, survey.FieldEmployees, 3.5)
	if !s.Mean.Valid || s.Mean.V != 125 {
		t.Fatalf("mean of one value: %+v", s)
	}
	if s.Std.Valid {
		t.Fatalf("sample std of one value must be missing")
	}
}

func TestDescribeOutliers(t *testing.T) {
	vals := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	rows := make([]survey.Row, len(vals))
	for i, v := range vals {
		rows[i].PartnerRevenuePct = survey.Some(v)
	}
	s := Describe(rows, survey.FieldPartnerRevenuePct, 3.5)
	if s.Outliers != 1 {
		t.Fatalf("expected one outlier, got %d", s.Outliers)
	}
	if got := Describe(rows, survey.FieldPartnerRevenuePct, 0); got.Outliers != 0 || got.OutlierThreshold != 0 {
		t.Fatalf("threshold 0 must disable outliers: %+v", got)
	}
}

func TestFilters(t *testing.T) {
	ds := fixtureDataset(t)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty", Filter{}, []string{"Acme", "Globex", "Initech", "Hooli", "Umbrella"}},
		{"or within dimension", Filter{survey.FieldRegion: {"na", "EMEA"}}, []string{"Acme", "Globex", "Hooli"}},
		{"and across dimensions", Filter{survey.FieldRegion: {"NA"}, survey.FieldIndustry: {"SaaS"}}, []string{"Acme", "Hooli"}},
		{"maturity", Filter{survey.FieldProgramMaturity: {"mature"}}, []string{"Globex", "Hooli"}},
		{"no match", Filter{survey.FieldRegion: {"LATAM"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := companies(Apply(ds.Rows, tt.filter))
			if !equalStrings(got, tt.want) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestFilterParsingAndString(t *testing.T) {
	f := Filter{}
	for _, name := range []string{"region", "Maturity", "revenue_band", "program_maturity"} {
		field, ok := ParseDimension(name)
		if !ok {
			t.Fatalf("dimension %q not recognized", name)
		}
		f.Add(field, " x ", "")
	}
	if _, ok := ParseDimension("employees_est"); ok {
		t.Fatalf("numeric field must not be a filter dimension")
	}
	if got := f.String(); got != "program_maturity=x|x; region=x; revenue_band=x" {
		t.Fatalf("unexpected filter string %q", got)
	}
	if (Filter{}).String() != "none" {
		t.Fatalf("empty filter string")
	}
}

func TestAnalyzeFilteredNoRows(t *testing.T) {
	ds := fixtureDataset(t)
	opt := DefaultOptions()
	opt.Filter = Filter{survey.FieldRegion: {"LATAM"}}
	rep, err := Analyze("", ds, opt)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Matched != 0 || len(rep.Leaderboard) != 0 {
		t.Fatalf("expected empty result, got %+v", rep)
	}
	if rep.Warnings[0] != "filter matched no rows" {
		t.Fatalf("expected empty-filter note, got %v", rep.Warnings)
	}
	if !strings.Contains(rep.Markdown(), "(no companies report this metric)") {
		t.Fatalf("expected empty leaderboard message")
	}
}

func TestLeaderboard(t *testing.T) {
	ds := fixtureDataset(t)
	lb, err := Leaderboard(ds.Rows, survey.FieldPartnerRevenuePct, 3)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	// Globex and Umbrella tie at 40; Hooli is missing and excluded.
	want := []string{"Globex", "Umbrella", "Acme"}
	if len(lb) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(lb))
	}
	for i, e := range lb {
		if e.Company != want[i] || e.Rank != i+1 {
			t.Fatalf("entry %d: got %+v want %s", i, e, want[i])
		}
	}
	all, _ := Leaderboard(ds.Rows, survey.FieldPartnerRevenuePct, 0)
	if len(all) != 4 {
		t.Fatalf("expected every non-missing row, got %d", len(all))
	}
	if _, err := Leaderboard(ds.Rows, survey.FieldRegion, 3); err == nil {
		t.Fatalf("expected error for non-numeric metric")
	}
}

func TestDistributions(t *testing.T) {
	ds := fixtureDataset(t)

	region, err := DistributionFor(ds.Rows, survey.FieldRegion)
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	if region.Kind != "category" || region.Buckets[0] != (CategoryCount{Value: survey.RegionNA, Count: 2}) {
		t.Fatalf("unexpected region distribution: %+v", region)
	}

	total, err := DistributionFor(ds.Rows, survey.FieldTotalPartners)
	if err != nil {
		t.Fatalf("total partners: %v", err)
	}
	labels := make([]string, len(total.Buckets))
	counts := make([]int, len(total.Buckets))
	for i, b := range total.Buckets {
		labels[i], counts[i] = b.Value, b.Count
	}
	wantLabels := []string{"Less than 50", "50 - 499", "500 - 999", "1,000 - 4,999", "5,000 or more"}
	if !equalStrings(labels, wantLabels) {
		t.Fatalf("bins must follow table order: %v", labels)
	}
	if want := []int{1, 1, 1, 1, 0}; !equalInts(counts, want) {
		t.Fatalf("bin counts: got %v want %v", counts, want)
	}
	if total.Missing != 1 {
		t.Fatalf("expected one missing, got %d", total.Missing)
	}

	if _, err := DistributionFor(ds.Rows, survey.FieldActivePartnerRatio); err == nil {
		t.Fatalf("derived ratios have no distribution")
	}

	top := TopChallenges(ds.Rows, 2)
	if len(top) != 2 || top[0].Value != "Recruiting partners" || top[0].Count != 2 {
		t.Fatalf("unexpected top challenges: %+v", top)
	}
}

func TestCorrelations(t *testing.T) {
	ds := fixtureDataset(t)
	fields := []survey.Field{survey.FieldTotalPartners, survey.FieldEmployees, survey.FieldPartnerRevenuePct}
	m := Correlations(ds.Rows, fields)

	var xs, ys []float64
	for _, r := range ds.Rows {
		if r.TotalPartners.Valid && r.Employees.Valid {
			xs = append(xs, r.TotalPartners.V)
			ys = append(ys, r.Employees.V)
		}
	}
	if m.N[0][1] != len(xs) {
		t.Fatalf("pairwise count: got %d want %d", m.N[0][1], len(xs))
	}
	if !m.Values[0][1].Valid || !almostEqual(m.Values[0][1].V, correlation(xs, ys), 1e-9) {
		t.Fatalf("r mismatch: got %v want %v", m.Values[0][1], correlation(xs, ys))
	}
	if m.Values[1][0] != m.Values[0][1] {
		t.Fatalf("matrix must be symmetric")
	}
	if !almostEqual(m.Values[0][0].V, 1, 1e-9) {
		t.Fatalf("diagonal should be 1, got %v", m.Values[0][0])
	}

	pairs := m.TopPairs(10)
	for i := 1; i < len(pairs); i++ {
		if math.Abs(pairs[i].R) > math.Abs(pairs[i-1].R) {
			t.Fatalf("pairs not sorted by |r|: %+v", pairs)
		}
	}
}

func TestCorrelationsTooFewPairs(t *testing.T) {
	rows := []survey.Row{
		{TotalPartners: survey.Some(25), Employees: survey.Some(25)},
		{TotalPartners: survey.Some(275), Employees: survey.Some(125)},
		{TotalPartners: survey.Some(750)},
	}
	m := Correlations(rows, []survey.Field{survey.FieldTotalPartners, survey.FieldEmployees})
	if m.Values[0][1].Valid || m.N[0][1] != 2 {
		t.Fatalf("two pairs must give missing r: %+v", m)
	}
	if len(m.TopPairs(5)) != 0 {
		t.Fatalf("missing cells must not be listed")
	}

	flat := []survey.Row{
		{TotalPartners: survey.Some(25), Employees: survey.Some(25)},
		{TotalPartners: survey.Some(25), Employees: survey.Some(125)},
		{TotalPartners: survey.Some(25), Employees: survey.Some(600)},
	}
	m = Correlations(flat, []survey.Field{survey.FieldTotalPartners, survey.FieldEmployees})
	if m.Values[0][1].Valid {
		t.Fatalf("zero variance must give missing r, got %v", m.Values[0][1])
	}
}

func TestReportJSONUsesNullForMissing(t *testing.T) {
	rep, err := Analyze("", &survey.Dataset{}, DefaultOptions())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := json.Marshal(rep.Numeric[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"mean":null`) {
		t.Fatalf("expected null mean, got %s", b)
	}
}

func companies(rows []survey.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Company)
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var acc float64
	for _, v := range vals {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(vals)-1))
}

func correlation(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var num, da, db float64
	for i := range a {
		x, y := a[i]-ma, b[i]-mb
		num += x * y
		da += x * x
		db += y * y
	}
	if da == 0 || db == 0 {
		return math.NaN()
	}
	return num / math.Sqrt(da*db)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestMarkdownTruncatesLongCellsByRune(t *testing.T) {
	long := strings.Repeat("é", 100)
	ds := &survey.Dataset{
		Rows:    []survey.Row{{Company: long, TopChallenge: "x"}},
		Summary: survey.Summary{Rows: 1},
	}
	opt := DefaultOptions()
	opt.SampleRows = 1
	rep, err := Analyze("long.csv", ds, opt)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	md := rep.Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8")
	}
	if !strings.Contains(md, strings.Repeat("é", 77)+"...") {
		t.Fatalf("expected company cut to 77 runes plus ellipsis:\n%s", md)
	}
	if got := truncate("short", 80); got != "short" {
		t.Fatalf("short values must be unchanged, got %q", got)
	}
}
