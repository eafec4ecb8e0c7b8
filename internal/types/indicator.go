package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantboard-lab/quantboard/pkg/errors"
)

// OutputMode distinguishes indicators producing a single column from group
// indicators producing one column per expected output.
type OutputMode string

const (
	OutputModeSingle OutputMode = "single"
	OutputModeGroup  OutputMode = "group"
)

// Indicator is a named, user-scripted computation unit over a dataset.
// Its source code is opaque to this system except for dependency scanning.
type Indicator struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description"`
	// SourceCode is handed to the execution engine verbatim.
	SourceCode string `yaml:"source_code" json:"sourceCode" validate:"required"`
	// OutputColumn is set for single-output indicators.
	OutputColumn string `yaml:"output_column" json:"outputColumn"`
	// GroupName and ExpectedOutputs are set for group indicators. Produced
	// columns are named "{GroupName}:{output}".
	GroupName       string   `yaml:"group_name" json:"groupName"`
	ExpectedOutputs []string `yaml:"expected_outputs" json:"expectedOutputs"`
	// Dependencies and DependencyColumns are derived from SourceCode by the
	// dependency detector and regenerated on every source update.
	Dependencies      []string `yaml:"dependencies" json:"dependencies"`
	DependencyColumns []string `yaml:"dependency_columns" json:"dependencyColumns"`
	// ExternalDatasets names auxiliary datasets whose columns the source may
	// reference via the "{dataset}@{column}" form.
	ExternalDatasets []string  `yaml:"external_datasets" json:"externalDatasets"`
	CreatedAt        time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Mode returns the indicator's output mode.
func (i *Indicator) Mode() OutputMode {
	if i.GroupName != "" {
		return OutputModeGroup
	}

	return OutputModeSingle
}

// IsGroup reports whether the indicator produces multiple named outputs.
func (i *Indicator) IsGroup() bool {
	return i.Mode() == OutputModeGroup
}

// OutputColumns returns every column the indicator produces. For group
// indicators these follow the "{group}:{output}" convention.
func (i *Indicator) OutputColumns() []string {
	if i.IsGroup() {
		columns := make([]string, 0, len(i.ExpectedOutputs))
		for _, output := range i.ExpectedOutputs {
			columns = append(columns, GroupColumn(i.GroupName, output))
		}

		return columns
	}

	return []string{i.OutputColumn}
}

// Validate checks required fields and the output mode structure. Exactly one
// of single and group mode must be populated; group mode requires a non-empty
// ExpectedOutputs list.
func (i *Indicator) Validate() error {
	validate := validator.New()
	if err := validate.Struct(i); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidIndicator, "invalid indicator", err)
	}

	hasSingle := i.OutputColumn != ""
	hasGroup := i.GroupName != "" || len(i.ExpectedOutputs) > 0

	switch {
	case hasSingle && hasGroup:
		return errors.Newf(errors.ErrCodeConflictingOutputMode,
			"indicator %q sets both outputColumn and group fields", i.Name)
	case !hasSingle && !hasGroup:
		return errors.Newf(errors.ErrCodeMissingOutputColumn,
			"indicator %q has no output column and no group definition", i.Name)
	case hasGroup && i.GroupName == "":
		return errors.Newf(errors.ErrCodeMissingGroupName,
			"indicator %q declares expected outputs without a group name", i.Name)
	case hasGroup && len(i.ExpectedOutputs) == 0:
		return errors.Newf(errors.ErrCodeEmptyExpectedOutputs,
			"group indicator %q has no expected outputs", i.Name)
	}

	return nil
}
