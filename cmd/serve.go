package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sopdash/internal/server"
)

var (
	srvIn         inputFlags
	srvAddr       string
	srvSampleRows int
	srvTopN       int
	srvMetric     string
	srvCorr       bool
	srvOutlierThr float64
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve the standardized dataset as a JSON API for dashboards",
	Long: `Serve standardizes the export once and answers read-only queries over it:

  GET /healthz
  GET /api/summary          numeric summaries
  GET /api/rows             paginated rows (offset, limit)
  GET /api/leaderboard      ranked companies (metric, limit)
  GET /api/correlations     Pearson matrix and strongest pairs
  GET /api/distributions/{field}
  GET /api/challenges       most common top challenges
  GET /api/report[.md]      full report as JSON or Markdown
  GET /api/export.csv       standardized CSV

Every endpoint accepts region, industry, revenue_band and maturity filters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		in, err := srvIn.options()
		if err != nil {
			return err
		}
		opt, err := reportOptions(cmd, srvSampleRows, srvTopN, srvMetric, srvCorr, srvOutlierThr)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0], in, logger)
		if err != nil {
			return err
		}
		addr := srvAddr
		if addr == "" {
			addr = settings().ServeAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(filepath.Base(args[0]), ds, opt, logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvIn.register(serveCmd)
	registerReportFlags(serveCmd, &srvSampleRows, &srvTopN, &srvMetric, &srvCorr, &srvOutlierThr)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default serve_addr setting)")
}
