package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the SQL target of format. For SQLite dsn is a file path.
func Open(ctx context.Context, format Format, dsn string) (*sqlx.DB, error) {
	var driver string
	switch format {
	case FormatSQLite:
		driver = "sqlite"
	case FormatPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q is not a SQL format", ErrFormat, format)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", format, err)
	}
	return db, nil
}

const createRuns = `CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	row_count INTEGER NOT NULL,
	exported_rows INTEGER NOT NULL,
	repaired_cells INTEGER NOT NULL,
	unparsed_cells INTEGER NOT NULL
)`

// createResponses derives the responses DDL from the column layout.
func createResponses() string {
	defs := []string{"run_id TEXT NOT NULL REFERENCES runs(run_id)"}
	for _, f := range survey.Columns {
		typ := "TEXT"
		if survey.IsNumeric(f) {
			typ = "DOUBLE PRECISION"
		}
		defs = append(defs, string(f)+" "+typ)
	}
	return "CREATE TABLE IF NOT EXISTS responses (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

func insertResponse() string {
	cols := append([]string{"run_id"}, Header()...)
	return "INSERT INTO responses (" + strings.Join(cols, ", ") + ") VALUES (:" + strings.Join(cols, ", :") + ")"
}

// Run is one export run as stored in the runs table.
type Run struct {
	RunID         string    `db:"run_id"`
	CreatedAt     time.Time `db:"created_at"`
	RowCount      int       `db:"row_count"`
	ExportedRows  int       `db:"exported_rows"`
	RepairedCells int       `db:"repaired_cells"`
	UnparsedCells int       `db:"unparsed_cells"`
}

type responseRecord struct {
	RunID string `db:"run_id"`
	survey.Row
}

// WriteSQL creates the runs and responses tables if needed and inserts the run and its rows
// in one transaction. Missing numbers are stored as NULL.
func WriteSQL(ctx context.Context, db *sqlx.DB, sum survey.Summary, rows []survey.Row) error {
	for _, ddl := range []string{createRuns, createResponses()} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := Run{
		RunID:         sum.RunID,
		CreatedAt:     sum.CreatedAt.UTC(),
		RowCount:      sum.Rows,
		ExportedRows:  len(rows),
		RepairedCells: sum.RepairedCells,
		UnparsedCells: sum.UnparsedTotal(),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, row_count, exported_rows, repaired_cells, unparsed_cells)
		VALUES (:run_id, :created_at, :row_count, :exported_rows, :repaired_cells, :unparsed_cells)
	`, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertResponse())
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, responseRecord{RunID: sum.RunID, Row: r}); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the runs recorded in db, newest first.
func ListRuns(ctx context.Context, db *sqlx.DB) ([]Run, error) {
	var runs []Run
	err := db.SelectContext(ctx, &runs, `
		SELECT run_id, created_at, row_count, exported_rows, repaired_cells, unparsed_cells
		FROM runs
		ORDER BY created_at DESC, run_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
