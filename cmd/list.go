package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sopdash/internal/export"
	"github.com/KaramelBytes/sopdash/internal/survey"
)

var (
	listFields    bool
	listQuestions bool
	listRunsDB    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List standardized fields, required survey questions, or exported runs",
	Example: `  sopdash list --fields
  sopdash list --questions
  sopdash list --runs clean.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 0
		for _, set := range []bool{listFields, listQuestions, listRunsDB != ""} {
			if set {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("specify exactly one of --fields, --questions or --runs")
		}
		out := cmd.OutOrStdout()
		switch {
		case listFields:
			for _, f := range survey.Columns {
				kind := "text"
				if survey.IsNumeric(f) {
					kind = "number"
				}
				line := fmt.Sprintf("- %s (%s)", f, kind)
				if t := survey.BinTableFor(f); t != nil {
					line += ": "
					for i, b := range t.Bins() {
						if i > 0 {
							line += ", "
						}
						line += fmt.Sprintf("%s=%g", b.Label, b.Mid)
					}
				}
				fmt.Fprintln(out, line)
			}
		case listQuestions:
			for _, q := range survey.Questionnaire {
				fmt.Fprintf(out, "- %s: %s\n", q.Key, q.Text)
			}
		default:
			db, err := export.Open(cmd.Context(), export.FormatSQLite, listRunsDB)
			if err != nil {
				return err
			}
			defer db.Close()
			runs, err := export.ListRuns(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "(no runs)")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "- %s %s: %d/%d rows, %d repaired, %d unmapped\n",
					r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.ExportedRows, r.RowCount, r.RepairedCells, r.UnparsedCells)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listFields, "fields", false, "list standardized columns and bucket midpoints")
	listCmd.Flags().BoolVar(&listQuestions, "questions", false, "list the survey questions an export must contain")
	listCmd.Flags().StringVar(&listRunsDB, "runs", "", "list export runs stored in a SQLite file")
}
