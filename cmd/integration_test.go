package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sopdash/internal/export"
	"github.com/KaramelBytes/sopdash/internal/survey"
)

// resetFlags restores every flag of c and its subcommands to its default so that state
// does not leak between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points HOME at a temp dir so no user config is read or written.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeSurvey writes a questionnaire export with the given answers, keyed by question key.
func writeSurvey(t *testing.T, path string, answers ...map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"Timestamp"}
	for _, q := range survey.Questionnaire {
		header = append(header, q.Text)
	}
	_ = w.Write(header)
	for _, a := range answers {
		rec := []string{"2024-05-01"}
		for _, q := range survey.Questionnaire {
			rec = append(rec, a[q.Key])
		}
		_ = w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func sampleAnswers() []map[string]string {
	return []map[string]string{
		{
			survey.QCompany: "Acme, Inc.", survey.QRegion: "United States", survey.QIndustry: "SaaS",
			survey.QRevenueBand: "$10M - $50M", survey.QEmployees: "50 - 199", survey.QTeamSize: "2 - 5",
			survey.QTotalPartners: "50 - 499", survey.QActivePartners: "10 - 49", survey.QTimeToRevenue: "3 - 6 months",
			survey.QPartnerRevenue: "25%", survey.QExpectedRevenue: "40%", survey.QMaturity: "1-2 years",
			survey.QChallenge: "Recruiting",
		},
		{
			survey.QCompany: "Globex", survey.QRegion: "Europe", survey.QIndustry: "Fintech",
			survey.QRevenueBand: "$50M - $100M", survey.QEmployees: "200 - 999", survey.QTeamSize: "6 - 10",
			survey.QTotalPartners: "500 - 999", survey.QActivePartners: "100 - 499", survey.QTimeToRevenue: "6 - 12 months",
			survey.QPartnerRevenue: "40%", survey.QExpectedRevenue: "55%", survey.QMaturity: "More than 5 years",
			survey.QChallenge: "recruiting",
		},
		{
			survey.QCompany: "Initech", survey.QRegion: "Australia", survey.QIndustry: "SaaS",
			survey.QRevenueBand: "$10M - $50M", survey.QEmployees: "1 - 49", survey.QTeamSize: "Just me",
			survey.QTotalPartners: "Less than 50", survey.QActivePartners: "Less than 10", survey.QTimeToRevenue: "garbage",
			survey.QPartnerRevenue: "10%", survey.QExpectedRevenue: "", survey.QMaturity: "Less than 1 year",
			survey.QChallenge: "Enablement",
		},
	}
}

func TestCLI_StandardizeToStdout(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "responses.csv")
	writeSurvey(t, in, sampleAnswers()...)

	out := runCmd(t, "standardize", in)
	recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("stdout is not CSV: %v\n%s", err, out)
	}
	if len(recs) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(recs))
	}
	if strings.Join(recs[0], ",") != strings.Join(export.Header(), ",") {
		t.Fatalf("unexpected header: %v", recs[0])
	}
	if recs[1][0] != "Acme, Inc." || recs[1][2] != survey.RegionNA {
		t.Fatalf("unexpected first row: %v", recs[1])
	}
	// unparsable time to revenue stays blank
	if recs[3][9] != "" {
		t.Fatalf("expected missing time_to_revenue, got %q", recs[3][9])
	}
}

func TestCLI_StandardizeFilesAndFilters(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "responses.csv")
	writeSurvey(t, in, sampleAnswers()...)

	xlsxPath := filepath.Join(home, "out", "clean.xlsx")
	runCmd(t, "standardize", in, "-o", xlsxPath)
	wb, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer wb.Close()
	rows, err := wb.GetRows("Standardized")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 sheet rows, got %d", len(rows))
	}

	dbPath := filepath.Join(home, "clean.db")
	out := runCmd(t, "standardize", in, "-o", dbPath, "--region", "na", "--region", "apac")
	if !strings.Contains(out, "✓ Wrote 2 rows") {
		t.Fatalf("unexpected status: %s", out)
	}
	db, err := export.Open(context.Background(), export.FormatSQLite, dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM responses"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 filtered rows in db, got %d", n)
	}

	if _, err := execCmd("standardize", in, "--format", "xlsx"); err == nil {
		t.Fatalf("xlsx to stdout should fail")
	}
	if _, err := execCmd("standardize", in, "--format", "parquet", "-o", filepath.Join(home, "x.parquet")); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestCLI_StandardizeRejectsWrongSchema(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "other.csv")
	if err := os.WriteFile(in, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := execCmd("standardize", in)
	if err == nil || !strings.Contains(err.Error(), "missing 13 required column(s)") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestCLI_AnalyzeMarkdownAndJSON(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "responses.csv")
	writeSurvey(t, in, sampleAnswers()...)

	mdPath := filepath.Join(home, "report.md")
	runCmd(t, "analyze", in, "-o", mdPath, "--region", "EMEA")
	body, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(body)
	for _, want := range []string{"[DATASET SUMMARY]", "Responses: 3", "Filter: region=EMEA", "Matched: 1", "[LEADERBOARD] by partner_revenue_pct"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}

	out := runCmd(t, "analyze", in, "--json", "--metric", "total_partners_est", "--top", "2")
	var rep struct {
		Total       int    `json:"total_rows"`
		Metric      string `json:"leaderboard_metric"`
		Leaderboard []struct {
			Company string `json:"company"`
		} `json:"leaderboard"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if rep.Total != 3 || rep.Metric != "total_partners_est" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(rep.Leaderboard) != 2 || rep.Leaderboard[0].Company != "Globex" {
		t.Fatalf("unexpected leaderboard: %+v", rep.Leaderboard)
	}

	if _, err := execCmd("analyze", in, "--metric", "region"); err == nil {
		t.Fatalf("non-numeric metric should fail")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)
	runCmd(t, "config", "set", "top_n", "3")
	runCmd(t, "config", "set", "export_format", "Excel")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 3") || !strings.Contains(out, "export_format: xlsx") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := execCmd("config", "set", "leaderboard_metric", "industry"); err == nil {
		t.Fatalf("non-numeric metric should be rejected")
	}
	if _, err := execCmd("config", "set", "export_format", "parquet"); err == nil {
		t.Fatalf("unknown format should be rejected")
	}
}

func TestCLI_List(t *testing.T) {
	home := isolate(t)

	out := runCmd(t, "list", "--questions")
	if !strings.Contains(out, "- company: Company Name") {
		t.Fatalf("unexpected questions:\n%s", out)
	}
	out = runCmd(t, "list", "--fields")
	if !strings.Contains(out, "- total_partners_est (number): Less than 50=25") {
		t.Fatalf("unexpected fields:\n%s", out)
	}

	in := filepath.Join(home, "responses.csv")
	writeSurvey(t, in, sampleAnswers()...)
	dbPath := filepath.Join(home, "runs.db")
	runCmd(t, "standardize", in, "-o", dbPath)
	runCmd(t, "standardize", in, "-o", dbPath, "--industry", "fintech")
	out = runCmd(t, "list", "--runs", dbPath)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 runs, got:\n%s", out)
	}
	if !strings.Contains(out, "1/3 rows") || !strings.Contains(out, "3/3 rows") {
		t.Fatalf("unexpected runs:\n%s", out)
	}

	if _, err := execCmd("list"); err == nil {
		t.Fatalf("list without a selector should fail")
	}
}

func TestCLI_InitWritesDefaultsOnce(t *testing.T) {
	home := isolate(t)
	out := runCmd(t, "init")
	path := filepath.Join(home, ".sopdash", "config.yaml")
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected output: %s", out)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(body), "leaderboard_metric: partner_revenue_pct") {
		t.Fatalf("unexpected config:\n%s", body)
	}
	if _, err := execCmd("init"); err == nil {
		t.Fatalf("second init should refuse to overwrite")
	}
	runCmd(t, "init", "--force")
}
