package pipeline

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/dataset"
	"github.com/quantboard-lab/quantboard/internal/executor"
	"github.com/quantboard-lab/quantboard/internal/graph"
	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"go.uber.org/zap"
)

// ProgressCallback reports application progress as (current, total) indicator
// counts, including skipped ones.
type ProgressCallback func(current, total int)

// Pipeline applies a catalog's indicators to a dataset in dependency order.
// Each indicator runs against a fresh read of the dataset, so computed columns
// written by earlier indicators are visible to later ones within the same
// pass. A per-indicator failure is recorded and the pass continues.
type Pipeline struct {
	store    dataset.Store
	executor executor.Executor
	config   Config
	logger   *logger.Logger

	// datasetLocks serializes passes per dataset so two concurrent ApplyAll
	// calls cannot interleave reload-then-write steps on the same table.
	mu           sync.Mutex
	datasetLocks map[string]*sync.Mutex
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(store dataset.Store, exec executor.Executor, config Config, logger *logger.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New(errors.ErrCodePipelineNoStore, "pipeline requires a dataset store")
	}

	if exec == nil {
		return nil, errors.New(errors.ErrCodePipelineNoExecutor, "pipeline requires an executor")
	}

	if len(config.PriceColumns) == 0 {
		config.PriceColumns = types.PriceColumns()
	}

	return &Pipeline{
		store:        store,
		executor:     exec,
		config:       config,
		logger:       logger,
		datasetLocks: make(map[string]*sync.Mutex),
	}, nil
}

// ApplyAll runs every indicator of the catalog against the dataset in
// topological order and returns the per-indicator outcomes. Indicators caught
// in a dependency cycle are reported as skipped; the rest of the pass still
// runs. The returned error covers batch-level problems only, never a single
// indicator's failure.
func (p *Pipeline) ApplyAll(ctx context.Context, datasetID string, cat catalog.Catalog, onProgress optional.Option[ProgressCallback]) (types.BatchResult, error) {
	if cat == nil {
		return types.BatchResult{}, errors.New(errors.ErrCodePipelineNoCatalog, "pipeline requires a catalog")
	}

	lock := p.datasetLock(datasetID)
	lock.Lock()
	defer lock.Unlock()

	ordered, cycles := graph.TopologicalSort(cat)

	result := types.BatchResult{
		DatasetID: datasetID,
		Validity:  types.CatalogValid,
	}

	if len(cycles) > 0 {
		result.Validity = types.CatalogHasCycles
		result.CycleNodes = cycles

		p.logger.Warn("Catalog has dependency cycles, excluding affected indicators",
			zap.String("dataset", datasetID),
			zap.Strings("cycle_nodes", cycles),
		)
	}

	total := len(ordered) + len(cycles)
	current := 0

	report := func() {
		current++

		if onProgress.IsSome() {
			onProgress.Unwrap()(current, total)
		}
	}

	for _, id := range cycles {
		outcome := types.ApplyOutcome{
			IndicatorID: id,
			Status:      types.ApplyStatusSkipped,
			Error:       "excluded from the pass by a dependency cycle",
		}

		if indicator, ok := cat.Get(id); ok {
			outcome.IndicatorName = indicator.Name
		}

		result.Outcomes = append(result.Outcomes, outcome)
		report()
	}

	for _, indicator := range ordered {
		outcome := p.applyIndicator(ctx, datasetID, indicator)
		result.Outcomes = append(result.Outcomes, outcome)
		report()

		if outcome.Status == types.ApplyStatusFailed {
			p.logger.Warn("Indicator application failed",
				zap.String("dataset", datasetID),
				zap.String("indicator", indicator.Name),
				zap.String("error", outcome.Error),
			)
		} else {
			p.logger.Debug("Indicator applied",
				zap.String("dataset", datasetID),
				zap.String("indicator", indicator.Name),
				zap.Strings("columns", outcome.Columns),
				zap.Int("rows", outcome.RowCount),
			)
		}
	}

	return result, nil
}

// applyIndicator runs one indicator against the dataset's current content and
// persists its output columns. All failure paths collapse into a FAILED
// outcome; nothing here aborts the batch.
func (p *Pipeline) applyIndicator(ctx context.Context, datasetID string, indicator types.Indicator) types.ApplyOutcome {
	outcome := types.ApplyOutcome{
		IndicatorID:   indicator.ID,
		IndicatorName: indicator.Name,
	}

	rows, columns, err := p.store.ReadAll(ctx, datasetID)
	if err != nil {
		return failedOutcome(outcome, err.Error())
	}

	outcome.RowCount = len(rows)

	request := executor.Request{
		Code:             indicator.SourceCode,
		Data:             p.projectRows(rows, columns),
		IsGroup:          indicator.IsGroup(),
		ExternalDatasets: p.externalDatasets(indicator),
	}

	result, err := p.executor.Execute(ctx, request)
	if err != nil {
		return failedOutcome(outcome, err.Error())
	}

	if result.Details != nil {
		outcome.Warnings = result.Details.Warnings
	}

	if !result.Success {
		message := result.Error
		if message == "" && result.Details != nil {
			message = result.Details.Message
		}

		if message == "" {
			message = "execution failed"
		}

		return failedOutcome(outcome, message)
	}

	if indicator.IsGroup() {
		return p.persistGroup(ctx, datasetID, indicator, result, outcome)
	}

	return p.persistSingle(ctx, datasetID, indicator, result, outcome)
}

func (p *Pipeline) persistSingle(ctx context.Context, datasetID string, indicator types.Indicator, result executor.Result, outcome types.ApplyOutcome) types.ApplyOutcome {
	if len(result.Values) != outcome.RowCount {
		err := errors.Newf(errors.ErrCodeResultLengthMismatch,
			"indicator %q returned %d values for %d rows", indicator.Name, len(result.Values), outcome.RowCount)

		return failedOutcome(outcome, err.Error())
	}

	if err := p.store.WriteColumn(ctx, datasetID, indicator.OutputColumn, result.Values); err != nil {
		return failedOutcome(outcome, err.Error())
	}

	outcome.Status = types.ApplyStatusSuccess
	outcome.Columns = []string{indicator.OutputColumn}

	return outcome
}

// persistGroup validates that the engine returned at least the expected
// outputs, then writes exactly those. Extra keys in the result are ignored.
func (p *Pipeline) persistGroup(ctx context.Context, datasetID string, indicator types.Indicator, result executor.Result, outcome types.ApplyOutcome) types.ApplyOutcome {
	if result.GroupValues == nil {
		err := errors.Newf(errors.ErrCodeMissingGroupOutputs,
			"group indicator %q returned no output mapping", indicator.Name)

		return failedOutcome(outcome, err.Error())
	}

	written := make(map[string][]*float64, len(indicator.ExpectedOutputs))

	var missing []string

	for _, output := range indicator.ExpectedOutputs {
		values, ok := result.GroupValues[output]
		if !ok {
			missing = append(missing, output)

			continue
		}

		if len(values) != outcome.RowCount {
			err := errors.Newf(errors.ErrCodeResultLengthMismatch,
				"group indicator %q output %q returned %d values for %d rows",
				indicator.Name, output, len(values), outcome.RowCount)

			return failedOutcome(outcome, err.Error())
		}

		written[output] = values
	}

	if len(missing) > 0 {
		err := errors.Newf(errors.ErrCodeMissingGroupOutputs,
			"group indicator %q is missing expected outputs %v", indicator.Name, missing)

		return failedOutcome(outcome, err.Error())
	}

	if err := p.store.WriteGroupColumns(ctx, datasetID, indicator.GroupName, written); err != nil {
		return failedOutcome(outcome, err.Error())
	}

	outcome.Status = types.ApplyStatusSuccess
	outcome.Columns = indicator.OutputColumns()

	return outcome
}

// projectRows converts dataset rows into the execution record shape: the date
// column passes through as-is, every other column is coerced to a nullable
// float. Column order follows the configured price fields, then the dataset's
// remaining columns.
func (p *Pipeline) projectRows(rows []types.Row, columns []string) []types.Row {
	available := make(map[string]bool, len(columns))
	for _, name := range columns {
		available[name] = true
	}

	order := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))

	for _, name := range p.config.PriceColumns {
		if available[name] && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	for _, name := range columns {
		if !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	projected := make([]types.Row, len(rows))

	for i, row := range rows {
		record := make(types.Row, len(order))

		for _, name := range order {
			if name == types.ColumnDate {
				record[name] = row[name]

				continue
			}

			record[name] = types.NumericValue(row[name])
		}

		projected[i] = record
	}

	return projected
}

func (p *Pipeline) externalDatasets(indicator types.Indicator) map[string]executor.ExternalDatasetConfig {
	if len(indicator.ExternalDatasets) == 0 {
		return nil
	}

	configs := make(map[string]executor.ExternalDatasetConfig, len(indicator.ExternalDatasets))
	for _, name := range indicator.ExternalDatasets {
		configs[name] = executor.ExternalDatasetConfig{
			GroupID:     p.config.DatasetGroupID,
			DatasetName: name,
		}
	}

	return configs
}

func (p *Pipeline) datasetLock(datasetID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.datasetLocks[datasetID]
	if !ok {
		lock = &sync.Mutex{}
		p.datasetLocks[datasetID] = lock
	}

	return lock
}

func failedOutcome(outcome types.ApplyOutcome, message string) types.ApplyOutcome {
	outcome.Status = types.ApplyStatusFailed
	outcome.Error = message

	return outcome
}
