package pipeline

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config controls how the pipeline projects dataset rows and reaches the
// execution engine.
type Config struct {
	// ExecutorCommand is the interpreter command spawned per execution, e.g.
	// "python3".
	ExecutorCommand string `yaml:"executor_command" json:"executor_command" validate:"required"`
	// ExecutorArgs are passed to the command before the request is written to
	// its stdin.
	ExecutorArgs []string `yaml:"executor_args" json:"executor_args"`
	// PriceColumns overrides the fixed price fields projected into every
	// execution record. Defaults to date/open/high/low/close/volume.
	PriceColumns []string `yaml:"price_columns" json:"price_columns"`
	// DatasetGroupID is forwarded with every external dataset reference so the
	// engine can locate auxiliary datasets.
	DatasetGroupID string `yaml:"dataset_group_id" json:"dataset_group_id"`
}

// EmptyConfig returns a config with the default projection columns and no
// executor command.
func EmptyConfig() Config {
	return Config{
		PriceColumns: types.PriceColumns(),
	}
}

// ParseConfig parses a YAML pipeline config and validates it.
func ParseConfig(content string) (Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodePipelineConfigError, "failed to parse pipeline config", err)
	}

	if len(config.PriceColumns) == 0 {
		config.PriceColumns = types.PriceColumns()
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the config's required fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodePipelineConfigError, "invalid pipeline config", err)
	}

	return nil
}

// GenerateSchema returns the JSON schema of the pipeline config.
func GenerateSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(&Config{})

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
