package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantboard-lab/quantboard/internal/types"
)

// ExternalDatasetConfig locates one auxiliary dataset an indicator may read
// through the "{dataset}@{column}" qualified form. The parameter name used in
// the script maps to this config; the engine merges the dataset's columns in
// under that name.
type ExternalDatasetConfig struct {
	GroupID     string `json:"groupId"`
	DatasetName string `json:"datasetName"`
}

// Request is the wire shape handed to the execution engine: the indicator's
// source code, the projected dataset rows, and the output mode flag.
type Request struct {
	Code             string                           `json:"code"`
	Data             []types.Row                      `json:"data"`
	IsGroup          bool                             `json:"isGroup"`
	ExternalDatasets map[string]ExternalDatasetConfig `json:"externalDatasets,omitempty"`
}

// Details carries the structured failure context reported by the engine:
// error type, traceback excerpt, the offending script line when known,
// actionable hints (e.g. the available columns on a missing-column error),
// and any warnings captured during the run.
type Details struct {
	Message   string   `json:"message,omitempty"`
	Type      string   `json:"type,omitempty"`
	Traceback string   `json:"traceback,omitempty"`
	CodeLine  string   `json:"code_line,omitempty"`
	Hints     []string `json:"hints,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Result is the execution engine's response. Exactly one of Values and
// GroupValues is populated on success, matching the request's output mode.
// Null entries mark rows where the script produced no numeric value.
type Result struct {
	Success bool
	// Values holds the single-mode value array, aligned to the row index.
	Values []*float64
	// GroupValues maps output name to value array for group mode.
	GroupValues map[string][]*float64
	Error       string
	Details     *Details
}

// rawResult mirrors the engine's JSON response before the polymorphic
// "values" field is decoded.
type rawResult struct {
	Success bool            `json:"success"`
	Values  json.RawMessage `json:"values,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details *Details        `json:"details,omitempty"`
}

// UnmarshalJSON decodes the engine response, accepting "values" as either a
// flat array (single mode) or a name-to-array mapping (group mode).
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw rawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Success = raw.Success
	r.Error = raw.Error
	r.Details = raw.Details
	r.Values = nil
	r.GroupValues = nil

	if len(raw.Values) == 0 || string(raw.Values) == "null" {
		return nil
	}

	switch raw.Values[0] {
	case '[':
		if err := json.Unmarshal(raw.Values, &r.Values); err != nil {
			return fmt.Errorf("failed to decode value array: %w", err)
		}
	case '{':
		if err := json.Unmarshal(raw.Values, &r.GroupValues); err != nil {
			return fmt.Errorf("failed to decode group value mapping: %w", err)
		}
	default:
		return fmt.Errorf("unexpected values payload: %s", string(raw.Values))
	}

	return nil
}

// Executor runs an indicator's source code against projected dataset rows.
// Execution is blocking and synchronous; cancellation, if any, comes from the
// caller's context.
type Executor interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
