package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"go.uber.org/zap"
)

// rowIndexColumn keys row order inside each dataset table. It is invisible to
// readers: ReadAll strips it from the returned rows and columns.
const rowIndexColumn = "row_idx"

var tableNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// DuckDBStore is a DuckDB-backed dataset store. Each dataset lives in its own
// wide table keyed by row index; computed columns are appended with
// ALTER TABLE so unrelated columns are never touched.
type DuckDBStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDuckDBStore opens (or creates) a DuckDB dataset database at the given
// path. Use ":memory:" for an ephemeral store.
func NewDuckDBStore(path string, logger *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}

	return &DuckDBStore{
		db:     db,
		logger: logger,
	}, nil
}

// LoadCSV replaces the dataset's content with the rows of a CSV file, using
// DuckDB's schema inference.
func (s *DuckDBStore) LoadCSV(ctx context.Context, datasetID, csvPath string) error {
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT row_number() OVER () - 1 AS %s, *
		FROM read_csv_auto('%s')
	`, tableName(datasetID), rowIndexColumn, strings.ReplaceAll(csvPath, "'", "''"))

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to load csv into dataset %s", datasetID)
	}

	s.logger.Debug("Dataset loaded from CSV",
		zap.String("dataset", datasetID),
		zap.String("path", csvPath),
	)

	return nil
}

// ReadAll implements Store.
func (s *DuckDBStore) ReadAll(ctx context.Context, datasetID string) ([]types.Row, []string, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`, tableName(datasetID), rowIndexColumn)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to read dataset %s", datasetID)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to read dataset columns", err)
	}

	var result []types.Row

	values := make([]any, len(columnNames))
	pointers := make([]any, len(columnNames))

	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to scan dataset row", err)
		}

		row := make(types.Row, len(columnNames))

		for i, name := range columnNames {
			if name == rowIndexColumn {
				continue
			}

			row[name] = values[i]
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to iterate dataset rows", err)
	}

	visible := slices.DeleteFunc(slices.Clone(columnNames), func(name string) bool {
		return name == rowIndexColumn
	})

	return result, visible, nil
}

// Columns implements Store.
func (s *DuckDBStore) Columns(ctx context.Context, datasetID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		tableName(datasetID))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to read columns of dataset %s", datasetID)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to scan column name", err)
		}

		if name == rowIndexColumn {
			continue
		}

		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetReadFailed, "failed to iterate columns", err)
	}

	return columns, nil
}

// Count implements Store.
func (s *DuckDBStore) Count(ctx context.Context, datasetID string) (int, error) {
	var count int

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, tableName(datasetID))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to count rows of dataset %s", datasetID)
	}

	return count, nil
}

// WriteColumn implements Store.
func (s *DuckDBStore) WriteColumn(ctx context.Context, datasetID, name string, values []*float64) error {
	count, err := s.Count(ctx, datasetID)
	if err != nil {
		return err
	}

	if len(values) != count {
		return errors.Newf(errors.ErrCodeColumnLengthMismatch,
			"column %q has %d values for %d rows", name, len(values), count)
	}

	table := tableName(datasetID)

	alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s DOUBLE`, table, quoteIdent(name))
	if _, err := s.db.ExecContext(ctx, alter); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to add column %q", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatasetWriteFailed, "failed to begin transaction", err)
	}

	update := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, table, quoteIdent(name), rowIndexColumn)

	stmt, err := tx.PrepareContext(ctx, update)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeDatasetWriteFailed, "failed to prepare column update", err)
	}
	defer stmt.Close()

	for i, value := range values {
		var v any
		if value != nil {
			v = *value
		}

		if _, err := stmt.ExecContext(ctx, v, i); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to write column %q at row %d", name, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDatasetWriteFailed, "failed to commit column write", err)
	}

	s.logger.Debug("Column written",
		zap.String("dataset", datasetID),
		zap.String("column", name),
		zap.Int("rows", len(values)),
	)

	return nil
}

// WriteGroupColumns implements Store.
func (s *DuckDBStore) WriteGroupColumns(ctx context.Context, datasetID, group string, values map[string][]*float64) error {
	for _, output := range slices.Sorted(maps.Keys(values)) {
		if err := s.WriteColumn(ctx, datasetID, types.GroupColumn(group, output), values[output]); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the underlying database handle.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func tableName(datasetID string) string {
	return "dataset_" + tableNamePattern.ReplaceAllString(datasetID, "_")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
