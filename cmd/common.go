package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/KaramelBytes/sopdash/internal/analysis"
	"github.com/KaramelBytes/sopdash/internal/parser"
	"github.com/KaramelBytes/sopdash/internal/survey"
)

// inputFlags are shared by every command that reads a survey export.
type inputFlags struct {
	delimiter string
	sheetName string
	maxRows   int
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	cmd.Flags().StringVar(&in.sheetName, "sheet-name", "", "XLSX: sheet name to read (default first sheet)")
	cmd.Flags().IntVar(&in.maxRows, "max-rows", 0, "maximum data rows to read (0 = config or unlimited)")
}

// options merges flags over the loaded config.
func (in *inputFlags) options() (parser.Options, error) {
	c := settings()
	opt := parser.Options{
		Delimiter: c.DelimiterRune(),
		MaxRows:   c.MaxRows,
		SheetName: in.sheetName,
	}
	if in.maxRows > 0 {
		opt.MaxRows = in.maxRows
	}
	if in.delimiter != "" {
		d, err := parseDelimiter(in.delimiter)
		if err != nil {
			return opt, err
		}
		opt.Delimiter = d
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case ",":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// filterFlags restrict the rows a command works on. Values within one flag are ORed,
// different flags are ANDed.
type filterFlags struct {
	regions    []string
	industries []string
	revenue    []string
	maturities []string
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&ff.regions, "region", nil, "keep only these regions (repeatable)")
	cmd.Flags().StringSliceVar(&ff.industries, "industry", nil, "keep only these industries (repeatable)")
	cmd.Flags().StringSliceVar(&ff.revenue, "revenue-band", nil, "keep only these revenue bands (repeatable)")
	cmd.Flags().StringSliceVar(&ff.maturities, "maturity", nil, "keep only these program maturities (repeatable)")
}

func (ff *filterFlags) filter() analysis.Filter {
	f := analysis.Filter{}
	f.Add(survey.FieldRegion, ff.regions...)
	f.Add(survey.FieldIndustry, ff.industries...)
	f.Add(survey.FieldRevenueBand, ff.revenue...)
	f.Add(survey.FieldProgramMaturity, ff.maturities...)
	return f
}

// loadDataset reads and standardizes one survey export.
func loadDataset(path string, opt parser.Options, logger *zap.Logger) (*survey.Dataset, error) {
	raw, err := parser.ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("read survey export",
		zap.String("path", path),
		zap.Int("columns", len(raw.Header)),
		zap.Int("records", len(raw.Rows)),
	)
	ds, err := survey.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logger.Info("standardized",
		zap.String("file", filepath.Base(path)),
		zap.String("run_id", ds.Summary.RunID),
		zap.Int("rows", ds.Summary.Rows),
		zap.Int("repaired_cells", ds.Summary.RepairedCells),
		zap.Int("unparsed_cells", ds.Summary.UnparsedTotal()),
	)
	return ds, nil
}

// metricField validates a leaderboard metric name.
func metricField(name string) (survey.Field, error) {
	f, ok := survey.ParseField(strings.TrimSpace(name))
	if !ok || !survey.IsNumeric(f) {
		return "", fmt.Errorf("invalid metric: %s (use a numeric field such as partner_revenue_pct)", name)
	}
	return f, nil
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
