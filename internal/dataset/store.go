package dataset

import (
	"context"

	"github.com/quantboard-lab/quantboard/internal/types"
)

// Store is the dataset collaborator: an ordered sequence of rows, each a
// mapping from column name to value. The pipeline appends computed columns
// through it; columns are merged into the existing set, never silently
// dropped or replaced wholesale.
type Store interface {
	// ReadAll returns the dataset's current rows in order, together with the
	// current column names. The pipeline calls this fresh before every
	// indicator so each step observes all columns written by prior steps.
	ReadAll(ctx context.Context, datasetID string) ([]types.Row, []string, error)
	// Columns returns the dataset's current column names.
	Columns(ctx context.Context, datasetID string) ([]string, error)
	// Count returns the dataset's row count.
	Count(ctx context.Context, datasetID string) (int, error)
	// WriteColumn merges one column into the dataset. values must align with
	// the row count; nil entries store as null.
	WriteColumn(ctx context.Context, datasetID, name string, values []*float64) error
	// WriteGroupColumns merges one column per output of a group indicator,
	// named by the "{group}:{output}" convention.
	WriteGroupColumns(ctx context.Context, datasetID, group string, values map[string][]*float64) error
}
