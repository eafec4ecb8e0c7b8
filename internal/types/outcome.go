package types

// ApplyStatus is the per-indicator result of one application pass.
type ApplyStatus string

const (
	ApplyStatusSuccess ApplyStatus = "SUCCESS"
	ApplyStatusFailed  ApplyStatus = "FAILED"
	// ApplyStatusSkipped marks indicators excluded from the pass because they
	// participate in a dependency cycle.
	ApplyStatusSkipped ApplyStatus = "SKIPPED"
)

// CatalogValidity is the cycle state of the catalog, surfaced to callers
// rather than discovered only incidentally during a sort.
type CatalogValidity string

const (
	CatalogValid     CatalogValidity = "valid"
	CatalogHasCycles CatalogValidity = "has-cycles"
)

// ApplyOutcome records the result of applying one indicator to a dataset.
// Failures are recovered at the batch level; they never abort sibling
// indicators.
type ApplyOutcome struct {
	IndicatorID   string      `yaml:"indicator_id" json:"indicatorId"`
	IndicatorName string      `yaml:"indicator_name" json:"indicatorName"`
	Status        ApplyStatus `yaml:"status" json:"status"`
	// Columns lists the dataset columns written on success.
	Columns []string `yaml:"columns" json:"columns"`
	// RowCount is the number of rows processed.
	RowCount int `yaml:"row_count" json:"rowCount"`
	// Error carries the failure detail when Status is FAILED.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
	// Warnings captured by the execution engine while running the script.
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// BatchResult aggregates the outcomes of one full application pass over a
// dataset.
type BatchResult struct {
	DatasetID string          `yaml:"dataset_id" json:"datasetId"`
	Validity  CatalogValidity `yaml:"validity" json:"validity"`
	// CycleNodes holds the indicator ids excluded from this pass because of a
	// dependency cycle. Empty when Validity is CatalogValid.
	CycleNodes []string       `yaml:"cycle_nodes,omitempty" json:"cycleNodes,omitempty"`
	Outcomes   []ApplyOutcome `yaml:"outcomes" json:"outcomes"`
}

// Succeeded returns the outcomes with SUCCESS status.
func (r *BatchResult) Succeeded() []ApplyOutcome {
	return r.filter(ApplyStatusSuccess)
}

// Failed returns the outcomes with FAILED status.
func (r *BatchResult) Failed() []ApplyOutcome {
	return r.filter(ApplyStatusFailed)
}

func (r *BatchResult) filter(status ApplyStatus) []ApplyOutcome {
	var outcomes []ApplyOutcome

	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			outcomes = append(outcomes, outcome)
		}
	}

	return outcomes
}
