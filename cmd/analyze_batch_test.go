package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_OutDirAndSuppressSamples(t *testing.T) {
	home := isolate(t)

	// Two exports with the same basename in different directories
	p1 := filepath.Join(home, "d1", "responses.csv")
	p2 := filepath.Join(home, "d2", "responses.csv")
	writeSurvey(t, p1, sampleAnswers()...)
	writeSurvey(t, p2, sampleAnswers()[:2]...)

	outDir := filepath.Join(home, "summaries")
	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "responses.csv"), "--out-dir", outDir, "--sample-rows", "0")
	if !strings.Contains(out, "[1/2] Processing responses.csv") || !strings.Contains(out, "[2/2] Processing responses.csv") {
		t.Fatalf("expected progress lines, got:\n%s", out)
	}

	// Verify files written with collision suffix
	b1 := filepath.Join(outDir, "responses.summary.md")
	b2 := filepath.Join(outDir, "responses__2.summary.md")
	body1, err := os.ReadFile(b1)
	if err != nil {
		t.Fatalf("missing first summary: %v", err)
	}
	body2, err := os.ReadFile(b2)
	if err != nil {
		t.Fatalf("missing second summary: %v", err)
	}
	if !strings.Contains(string(body1), "Responses: 3") || !strings.Contains(string(body2), "Responses: 2") {
		t.Fatalf("summaries written in the wrong order")
	}

	// Sample rows are suppressed
	for _, b := range [][]byte{body1, body2} {
		if strings.Contains(string(b), "[SAMPLE ROWS]") {
			t.Fatalf("expected no sample rows")
		}
	}
}

func TestAnalyzeBatch_QuietAndNoMatches(t *testing.T) {
	home := isolate(t)
	p := filepath.Join(home, "responses.csv")
	writeSurvey(t, p, sampleAnswers()...)

	out := runCmd(t, "analyze-batch", p, "--quiet")
	if out != "" {
		t.Fatalf("quiet run should print nothing, got:\n%s", out)
	}
	if _, err := execCmd("analyze-batch", filepath.Join(home, "nothing-*.csv")); err == nil {
		t.Fatalf("expected error when no inputs match")
	}
}

func TestSummaryPathSheetSlug(t *testing.T) {
	dir := t.TempDir()
	got, renamed := summaryPath(dir, "/data/survey.xlsx", " Q3 Results_final ")
	if renamed {
		t.Fatalf("fresh dir should not rename")
	}
	if filepath.Base(got) != "survey__sheet-q3-results-final.summary.md" {
		t.Fatalf("unexpected name: %s", got)
	}
	if slug("***") != "sheet" {
		t.Fatalf("empty slug should fall back to sheet")
	}
}
