package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sopdash/internal/analysis"
	"github.com/KaramelBytes/sopdash/internal/utils"
)

var (
	abIn         inputFlags
	abFilter     filterFlags
	abOutDir     string
	abSampleRows int
	abTopN       int
	abMetric     string
	abCorr       bool
	abOutlierThr float64
	abQuiet      bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple survey exports with progress and per-file summaries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		in, err := abIn.options()
		if err != nil {
			return err
		}
		opt, err := reportOptions(cmd, abSampleRows, abTopN, abMetric, abCorr, abOutlierThr)
		if err != nil {
			return err
		}
		opt.Filter = abFilter.filter()

		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		// Progress is noise when Markdown is piped somewhere.
		progress := !abQuiet && (abOutDir != "" || isTerminal())
		total := len(files)
		for i, path := range files {
			if progress {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, err := loadDataset(path, in, logger)
			if err != nil {
				return err
			}
			rep, err := analysis.Analyze(filepath.Base(path), ds, opt)
			if err != nil {
				return err
			}
			md := rep.Markdown()

			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(out, md)
				}
				continue
			}
			outFile, renamed := summaryPath(abOutDir, path, abIn.sheetName)
			if renamed && !abQuiet {
				fmt.Fprintf(out, "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s (%d of %d rows matched)\n", filepath.Base(outFile), rep.Matched, rep.Total)
			}
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates, in sorted order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// summaryPath names the summary for input inside dir. Inputs sharing a base name get
// __2, __3, ... suffixes instead of overwriting each other.
func summaryPath(dir, input, sheet string) (string, bool) {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		stem += "__sheet-" + slug(sheet)
	}
	outFile := filepath.Join(dir, stem+".summary.md")
	if _, err := os.Stat(outFile); err != nil {
		return outFile, false
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", stem, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, true
		}
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	ss := strings.Trim(b.String(), "-")
	if ss == "" {
		return "sheet"
	}
	return ss
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abIn.register(analyzeBatchCmd)
	abFilter.register(analyzeBatchCmd)
	registerReportFlags(analyzeBatchCmd, &abSampleRows, &abTopN, &abMetric, &abCorr, &abOutlierThr)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for <name>.summary.md files (stdout if omitted)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
