package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sopdash/internal/analysis"
	"github.com/KaramelBytes/sopdash/internal/utils"
)

var (
	anaIn         inputFlags
	anaFilter     filterFlags
	anaOutputPath string
	anaJSON       bool
	anaSampleRows int
	anaTopN       int
	anaMetric     string
	anaCorr       bool
	anaOutlierThr float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Standardize a survey export and produce a dashboard summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		in, err := anaIn.options()
		if err != nil {
			return err
		}
		opt, err := reportOptions(cmd, anaSampleRows, anaTopN, anaMetric, anaCorr, anaOutlierThr)
		if err != nil {
			return err
		}
		opt.Filter = anaFilter.filter()

		ds, err := loadDataset(path, in, logger)
		if err != nil {
			return err
		}
		rep, err := analysis.Analyze(filepath.Base(path), ds, opt)
		if err != nil {
			return err
		}

		var body []byte
		if anaJSON {
			body, err = utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
		} else {
			body = []byte(rep.Markdown())
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

// reportOptions merges config with any report flags the user changed.
func reportOptions(cmd *cobra.Command, sampleRows, topN int, metric string, corr bool, outlierThr float64) (analysis.Options, error) {
	c := settings()
	opt := analysis.DefaultOptions()
	opt.SampleRows = c.SampleRows
	if c.TopN > 0 {
		opt.TopN = c.TopN
	}
	opt.OutlierThreshold = c.OutlierThreshold
	if c.LeaderboardMetric != "" {
		f, err := metricField(c.LeaderboardMetric)
		if err != nil {
			return opt, fmt.Errorf("config leaderboard_metric: %w", err)
		}
		opt.LeaderboardMetric = f
	}

	fl := cmd.Flags()
	if fl.Changed("sample-rows") {
		opt.SampleRows = sampleRows
	}
	if fl.Changed("top") {
		opt.TopN = topN
	}
	if fl.Changed("metric") {
		f, err := metricField(metric)
		if err != nil {
			return opt, err
		}
		opt.LeaderboardMetric = f
	}
	if fl.Changed("correlations") {
		opt.Correlations = corr
	}
	if fl.Changed("outlier-threshold") {
		opt.OutlierThreshold = outlierThr
	}
	return opt, nil
}

// registerReportFlags adds the report tuning flags shared by analyze and analyze-batch.
func registerReportFlags(cmd *cobra.Command, sampleRows, topN *int, metric *string, corr *bool, outlierThr *float64) {
	cmd.Flags().IntVar(sampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	cmd.Flags().IntVar(topN, "top", 10, "length of the leaderboard and top challenges lists")
	cmd.Flags().StringVar(metric, "metric", "partner_revenue_pct", "numeric field companies are ranked by")
	cmd.Flags().BoolVar(corr, "correlations", true, "compute Pearson correlations among numeric fields")
	cmd.Flags().Float64Var(outlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based, 0 disables)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaIn.register(analyzeCmd)
	anaFilter.register(analyzeCmd)
	registerReportFlags(analyzeCmd, &anaSampleRows, &anaTopN, &anaMetric, &anaCorr, &anaOutlierThr)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the analysis as JSON instead of Markdown")
}
