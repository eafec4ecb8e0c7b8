package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"go.uber.org/zap"
)

// Store persists indicator records. Graph operations never touch the store
// directly; they work on the in-memory snapshot produced by LoadAll.
type Store interface {
	// Initialize creates the backing schema.
	Initialize() error
	// Save inserts or replaces an indicator record, preserving its catalog position.
	Save(indicator types.Indicator) error
	// Delete removes an indicator record by id.
	Delete(id string) error
	// LoadAll returns the full catalog as an insertion-ordered snapshot.
	LoadAll() (*MemoryCatalog, error)
	// Close releases the underlying database handle.
	Close() error
}

// DuckDBStore is a DuckDB-backed indicator store. Position ordering is kept
// with a sequence so that LoadAll reproduces insertion order exactly.
type DuckDBStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBStore opens (or creates) a DuckDB catalog database at the given
// path. Use ":memory:" for an ephemeral store.
func NewDuckDBStore(path string, logger *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	return &DuckDBStore{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize implements Store.
func (s *DuckDBStore) Initialize() error {
	_, err := s.db.Exec(`CREATE SEQUENCE IF NOT EXISTS indicator_position_seq`)
	if err != nil {
		return fmt.Errorf("failed to create position sequence: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS indicators (
			id TEXT PRIMARY KEY,
			position BIGINT,
			name TEXT,
			description TEXT,
			source_code TEXT,
			output_column TEXT,
			group_name TEXT,
			expected_outputs TEXT,
			dependencies TEXT,
			dependency_columns TEXT,
			external_datasets TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create indicators table: %w", err)
	}

	return nil
}

// Save implements Store.
func (s *DuckDBStore) Save(indicator types.Indicator) error {
	if indicator.ID == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "indicator id is empty")
	}

	expectedOutputs, err := encodeList(indicator.ExpectedOutputs)
	if err != nil {
		return err
	}

	dependencies, err := encodeList(indicator.Dependencies)
	if err != nil {
		return err
	}

	dependencyColumns, err := encodeList(indicator.DependencyColumns)
	if err != nil {
		return err
	}

	externalDatasets, err := encodeList(indicator.ExternalDatasets)
	if err != nil {
		return err
	}

	var exists bool
	if err := s.db.QueryRow(`SELECT COUNT(*) > 0 FROM indicators WHERE id = ?`, indicator.ID).Scan(&exists); err != nil {
		return errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to look up indicator", err)
	}

	if exists {
		update := s.sq.
			Update("indicators").
			Set("name", indicator.Name).
			Set("description", indicator.Description).
			Set("source_code", indicator.SourceCode).
			Set("output_column", indicator.OutputColumn).
			Set("group_name", indicator.GroupName).
			Set("expected_outputs", expectedOutputs).
			Set("dependencies", dependencies).
			Set("dependency_columns", dependencyColumns).
			Set("external_datasets", externalDatasets).
			Set("updated_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": indicator.ID}).
			RunWith(s.db)

		if _, err := update.Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to update indicator", err)
		}

		return nil
	}

	_, err = s.db.Exec(`
		INSERT INTO indicators (
			id, position, name, description, source_code, output_column, group_name,
			expected_outputs, dependencies, dependency_columns, external_datasets,
			created_at, updated_at
		) VALUES (?, nextval('indicator_position_seq'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		indicator.ID, indicator.Name, indicator.Description, indicator.SourceCode,
		indicator.OutputColumn, indicator.GroupName, expectedOutputs, dependencies,
		dependencyColumns, externalDatasets, indicator.CreatedAt, indicator.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to insert indicator", err)
	}

	s.logger.Debug("Indicator saved",
		zap.String("id", indicator.ID),
		zap.String("name", indicator.Name),
	)

	return nil
}

// Delete implements Store.
func (s *DuckDBStore) Delete(id string) error {
	result, err := s.sq.
		Delete("indicators").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to delete indicator", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to read delete result", err)
	}

	if affected == 0 {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	return nil
}

// LoadAll implements Store.
func (s *DuckDBStore) LoadAll() (*MemoryCatalog, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, source_code, output_column, group_name,
		       expected_outputs, dependencies, dependency_columns, external_datasets,
		       created_at, updated_at
		FROM indicators
		ORDER BY position
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to query indicators", err)
	}
	defer rows.Close()

	snapshot := NewMemoryCatalog()

	for rows.Next() {
		var (
			indicator                                                          types.Indicator
			expectedOutputs, dependencies, dependencyColumns, externalDatasets string
		)

		err := rows.Scan(
			&indicator.ID, &indicator.Name, &indicator.Description, &indicator.SourceCode,
			&indicator.OutputColumn, &indicator.GroupName,
			&expectedOutputs, &dependencies, &dependencyColumns, &externalDatasets,
			&indicator.CreatedAt, &indicator.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to scan indicator", err)
		}

		if indicator.ExpectedOutputs, err = decodeList(expectedOutputs); err != nil {
			return nil, err
		}

		if indicator.Dependencies, err = decodeList(dependencies); err != nil {
			return nil, err
		}

		if indicator.DependencyColumns, err = decodeList(dependencyColumns); err != nil {
			return nil, err
		}

		if indicator.ExternalDatasets, err = decodeList(externalDatasets); err != nil {
			return nil, err
		}

		if err := snapshot.Put(indicator); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to iterate indicators", err)
	}

	return snapshot, nil
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}

	encoded, err := json.Marshal(list)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to encode list field", err)
	}

	return string(encoded), nil
}

func decodeList(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogStoreFailed, "failed to decode list field", err)
	}

	if len(list) == 0 {
		return nil, nil
	}

	return list, nil
}
