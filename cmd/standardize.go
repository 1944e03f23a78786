package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/sopdash/internal/analysis"
	"github.com/KaramelBytes/sopdash/internal/export"
)

var (
	stdIn        inputFlags
	stdFilter    filterFlags
	stdOutput    string
	stdFormat    string
	stdDSN       string
	stdShowNotes bool
)

var standardizeCmd = &cobra.Command{
	Use:   "standardize <file>",
	Short: "Clean a raw survey export into the standardized table",
	Long: `Standardize repairs text, maps every categorical answer and bucketed range to a
canonical value, derives per-company ratios, and writes the result.

Without -o the table is written to stdout as CSV. The export format follows --format,
then the -o extension (.csv, .xlsx, .db/.sqlite), then the export_format setting.
PostgreSQL exports take a DSN from --dsn or the postgres_dsn setting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		opt, err := stdIn.options()
		if err != nil {
			return err
		}
		format, err := resolveFormat(stdFormat, stdOutput)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0], opt, logger)
		if err != nil {
			return err
		}
		f := stdFilter.filter()
		rows := analysis.Apply(ds.Rows, f)

		out := cmd.OutOrStdout()
		status := out
		switch {
		case format == export.FormatPostgres:
			dsn := stdDSN
			if dsn == "" {
				dsn = settings().PostgresDSN
			}
			if dsn == "" {
				return fmt.Errorf("postgres export needs --dsn or the postgres_dsn setting")
			}
			if err := export.Write(cmd.Context(), format, dsn, ds, rows); err != nil {
				return err
			}
			fmt.Fprintf(status, "✓ Wrote %d rows to PostgreSQL (run %s)\n", len(rows), ds.Summary.RunID)
		case stdOutput == "":
			if format != export.FormatCSV {
				return fmt.Errorf("%s export needs -o <path>", format)
			}
			if err := export.WriteCSV(out, rows); err != nil {
				return err
			}
			status = cmd.ErrOrStderr()
		default:
			if err := export.Write(cmd.Context(), format, stdOutput, ds, rows); err != nil {
				return err
			}
			fmt.Fprintf(status, "✓ Wrote %d rows to %s\n", len(rows), stdOutput)
		}
		logger.Debug("export done", zap.String("format", string(format)), zap.Int("rows", len(rows)))

		printRunNotes(status, ds.Summary.RepairedCells, ds.Summary.Unparsed, f, len(rows), stdShowNotes)
		return nil
	},
}

// resolveFormat picks the export format from the flag, the output extension, then config.
func resolveFormat(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if output != "" {
		return export.FormatFromPath(output), nil
	}
	if c := settings(); c.ExportFormat != "" {
		return export.ParseFormat(c.ExportFormat)
	}
	return export.FormatCSV, nil
}

// printRunNotes reports data-quality counts. Per-question detail is printed when verbose.
func printRunNotes(w io.Writer, repaired int, unparsed map[string]int, f analysis.Filter, matched int, verbose bool) {
	if !f.IsEmpty() {
		fmt.Fprintf(w, "  Filter: %s (%d rows)\n", f.String(), matched)
	}
	if repaired > 0 {
		fmt.Fprintf(w, "⚠ Repaired encoding artifacts in %d cell(s)\n", repaired)
	}
	total := 0
	for _, n := range unparsed {
		total += n
	}
	if total == 0 {
		return
	}
	fmt.Fprintf(w, "⚠ %d answer(s) could not be mapped and were treated as missing\n", total)
	if verbose {
		for _, q := range sortedKeys(unparsed) {
			fmt.Fprintf(w, "  - %s: %d\n", q, unparsed[q])
		}
	}
}

func init() {
	rootCmd.AddCommand(standardizeCmd)
	stdIn.register(standardizeCmd)
	stdFilter.register(standardizeCmd)
	standardizeCmd.Flags().StringVarP(&stdOutput, "output", "o", "", "output path (stdout CSV if omitted)")
	standardizeCmd.Flags().StringVar(&stdFormat, "format", "", "export format: csv | xlsx | sqlite | postgres")
	standardizeCmd.Flags().StringVar(&stdDSN, "dsn", "", "PostgreSQL connection string (overrides postgres_dsn)")
	standardizeCmd.Flags().BoolVarP(&stdShowNotes, "verbose", "v", false, "list unmapped answers per question")
}
