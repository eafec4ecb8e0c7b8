package service

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantboard-lab/quantboard/internal/catalog"
	"github.com/quantboard-lab/quantboard/internal/graph"
	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"go.uber.org/zap"
)

// IndicatorService orchestrates the catalog lifecycle: definition validation,
// dependency detection on create and update, rename propagation into dependent
// sources, and cascading deletes. All mutations go through the in-memory
// catalog first and are mirrored to the persistent store when one is
// configured.
type IndicatorService struct {
	catalog catalog.Catalog
	// store mirrors catalog mutations; nil keeps the service in-memory only.
	store  catalog.Store
	logger *logger.Logger
	mu     sync.Mutex
}

// CreateInput carries the user-supplied fields of a new indicator. ID,
// dependency fields, and timestamps are derived by the service.
type CreateInput struct {
	Name             string
	Description      string
	SourceCode       string
	OutputColumn     string
	GroupName        string
	ExpectedOutputs  []string
	ExternalDatasets []string
}

// NewIndicatorService creates a service over the given catalog. store may be
// nil for in-memory operation.
func NewIndicatorService(cat catalog.Catalog, store catalog.Store, logger *logger.Logger) *IndicatorService {
	return &IndicatorService{
		catalog: cat,
		store:   store,
		logger:  logger,
		mu:      sync.Mutex{},
	}
}

// Create validates, assigns an id, detects dependencies from the source code,
// and stores the indicator. Definition errors reject synchronously; nothing
// is stored on failure.
func (s *IndicatorService) Create(input CreateInput) (types.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	indicator := types.Indicator{
		ID:               uuid.NewString(),
		Name:             input.Name,
		Description:      input.Description,
		SourceCode:       input.SourceCode,
		OutputColumn:     input.OutputColumn,
		GroupName:        input.GroupName,
		ExpectedOutputs:  slices.Clone(input.ExpectedOutputs),
		ExternalDatasets: slices.Clone(input.ExternalDatasets),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := indicator.Validate(); err != nil {
		return types.Indicator{}, err
	}

	detection := graph.DetectDependencies(indicator.SourceCode, indicator.ID, s.catalog)
	indicator.Dependencies = detection.Dependencies
	indicator.DependencyColumns = detection.DependencyColumns

	if err := s.put(indicator); err != nil {
		return types.Indicator{}, err
	}

	s.logger.Info("Indicator created",
		zap.String("id", indicator.ID),
		zap.String("name", indicator.Name),
		zap.Strings("dependencies", indicator.Dependencies),
	)

	return indicator, nil
}

// Get returns the indicator by id.
func (s *IndicatorService) Get(id string) (types.Indicator, error) {
	indicator, ok := s.catalog.Get(id)
	if !ok {
		return types.Indicator{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	return indicator, nil
}

// List returns all indicators in catalog insertion order.
func (s *IndicatorService) List() []types.Indicator {
	return s.catalog.List()
}

// UpdateSource replaces the indicator's source code and regenerates its
// dependency fields from scratch. Regeneration is idempotent: updating with
// the same source yields the same dependency fields.
func (s *IndicatorService) UpdateSource(id, sourceCode string) (types.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indicator, ok := s.catalog.Get(id)
	if !ok {
		return types.Indicator{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	if sourceCode == "" {
		return types.Indicator{}, errors.Newf(errors.ErrCodeMissingSourceCode,
			"indicator %q cannot have empty source code", indicator.Name)
	}

	indicator.SourceCode = sourceCode
	indicator.UpdatedAt = time.Now().UTC()

	detection := graph.DetectDependencies(sourceCode, id, s.catalog)
	indicator.Dependencies = detection.Dependencies
	indicator.DependencyColumns = detection.DependencyColumns

	if err := s.put(indicator); err != nil {
		return types.Indicator{}, err
	}

	return indicator, nil
}

// Rename changes a single-output indicator's output column and rewrites every
// dependent's source code to reference the new name. All rewrites are
// computed up front and committed together with the rename, so a failing
// precondition leaves the catalog untouched.
func (s *IndicatorService) Rename(id, newOutput string) (types.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indicator, ok := s.catalog.Get(id)
	if !ok {
		return types.Indicator{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	if indicator.IsGroup() {
		return types.Indicator{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"indicator %q is a group indicator, rename its outputs individually", indicator.Name)
	}

	if newOutput == "" {
		return types.Indicator{}, errors.New(errors.ErrCodeInvalidParameter, "new output column is empty")
	}

	oldColumn := indicator.OutputColumn
	if oldColumn == newOutput {
		return indicator, nil
	}

	if err := s.checkColumnConflict(id, newOutput); err != nil {
		return types.Indicator{}, err
	}

	indicator.OutputColumn = newOutput
	indicator.UpdatedAt = time.Now().UTC()

	return indicator, s.commitRename(indicator, oldColumn, newOutput)
}

// RenameGroupOutput renames one expected output of a group indicator. The
// indicator's own source is rewritten where it names the output (mapping
// keys), and dependents are rewritten against the namespaced
// "{group}:{output}" column.
func (s *IndicatorService) RenameGroupOutput(id, oldOutput, newOutput string) (types.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indicator, ok := s.catalog.Get(id)
	if !ok {
		return types.Indicator{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	if !indicator.IsGroup() {
		return types.Indicator{}, errors.Newf(errors.ErrCodeNotAGroupOutput,
			"indicator %q is not a group indicator", indicator.Name)
	}

	index := slices.Index(indicator.ExpectedOutputs, oldOutput)
	if index < 0 {
		return types.Indicator{}, errors.Newf(errors.ErrCodeUnknownOutput,
			"group %q has no output %q", indicator.GroupName, oldOutput)
	}

	if oldOutput == newOutput {
		return indicator, nil
	}

	if slices.Contains(indicator.ExpectedOutputs, newOutput) {
		return types.Indicator{}, errors.Newf(errors.ErrCodeRenameConflict,
			"group %q already has an output %q", indicator.GroupName, newOutput)
	}

	oldColumn := types.GroupColumn(indicator.GroupName, oldOutput)
	newColumn := types.GroupColumn(indicator.GroupName, newOutput)

	if err := s.checkColumnConflict(id, newColumn); err != nil {
		return types.Indicator{}, err
	}

	indicator.ExpectedOutputs = slices.Clone(indicator.ExpectedOutputs)
	indicator.ExpectedOutputs[index] = newOutput
	// the group's own return mapping names the bare output
	indicator.SourceCode = graph.RewriteColumn(indicator.SourceCode, oldOutput, newOutput)
	indicator.UpdatedAt = time.Now().UTC()

	return indicator, s.commitRename(indicator, oldColumn, newColumn)
}

// commitRename stores the renamed indicator together with every dependent's
// rewritten source, then regenerates the dependents' dependency fields
// against the updated catalog.
func (s *IndicatorService) commitRename(renamed types.Indicator, oldColumn, newColumn string) error {
	dependents := graph.ColumnDependents(s.catalog, []string{oldColumn})[oldColumn]

	staged := make([]types.Indicator, 0, len(dependents))

	now := time.Now().UTC()

	for _, dependent := range dependents {
		if dependent.ID == renamed.ID {
			continue
		}

		dependent.SourceCode = graph.RewriteColumn(dependent.SourceCode, oldColumn, newColumn)
		dependent.UpdatedAt = now
		staged = append(staged, dependent)
	}

	if err := s.put(renamed); err != nil {
		return err
	}

	for _, dependent := range staged {
		if err := s.put(dependent); err != nil {
			return err
		}
	}

	// dependency fields always reflect the current source and catalog
	for _, dependent := range staged {
		detection := graph.DetectDependencies(dependent.SourceCode, dependent.ID, s.catalog)
		dependent.Dependencies = detection.Dependencies
		dependent.DependencyColumns = detection.DependencyColumns

		if err := s.put(dependent); err != nil {
			return err
		}
	}

	s.logger.Info("Output column renamed",
		zap.String("indicator", renamed.Name),
		zap.String("old", oldColumn),
		zap.String("new", newColumn),
		zap.Int("dependents_rewritten", len(staged)),
	)

	return nil
}

// Delete removes an indicator. Without cascade, an indicator that others
// depend on is refused. With cascade, the indicator's full dependent closure
// is removed leaves-first, so no remaining indicator ever references a
// deleted one. Returns the deleted ids in deletion order.
func (s *IndicatorService) Delete(id string, cascade bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Get(id); !ok {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	if !cascade {
		if dependents := graph.DirectDependents(s.catalog, id); len(dependents) > 0 {
			names := make([]string, 0, len(dependents))
			for _, dependent := range dependents {
				names = append(names, dependent.Name)
			}

			return nil, errors.Newf(errors.ErrCodeCascadeIncomplete,
				"indicator %s has dependents %v, delete with cascade", id, names)
		}

		if err := s.remove(id); err != nil {
			return nil, err
		}

		return []string{id}, nil
	}

	inSet := make(map[string]bool)
	for _, member := range graph.CascadeSet(s.catalog, id) {
		inSet[member] = true
	}

	ordered, cycles := graph.TopologicalSort(s.catalog)

	// leaves first: reverse topological order, with cycle members (which the
	// sort excludes) removed up front
	var order []string

	for _, member := range cycles {
		if inSet[member] {
			order = append(order, member)
		}
	}

	for i := len(ordered) - 1; i >= 0; i-- {
		if inSet[ordered[i].ID] {
			order = append(order, ordered[i].ID)
		}
	}

	for _, member := range order {
		if err := s.remove(member); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Indicator deleted",
		zap.String("id", id),
		zap.Int("cascade_size", len(order)),
	)

	return order, nil
}

// Validity probes the catalog for dependency cycles.
func (s *IndicatorService) Validity() (types.CatalogValidity, []string) {
	return graph.Validity(s.catalog)
}

func (s *IndicatorService) checkColumnConflict(selfID, column string) error {
	for _, other := range s.catalog.List() {
		if other.ID == selfID {
			continue
		}

		if slices.Contains(other.OutputColumns(), column) {
			return errors.Newf(errors.ErrCodeRenameConflict,
				"column %q is already produced by indicator %q", column, other.Name)
		}
	}

	return nil
}

func (s *IndicatorService) put(indicator types.Indicator) error {
	if err := s.catalog.Put(indicator); err != nil {
		return err
	}

	if s.store != nil {
		return s.store.Save(indicator)
	}

	return nil
}

func (s *IndicatorService) remove(id string) error {
	if err := s.catalog.Remove(id); err != nil {
		return err
	}

	if s.store != nil {
		return s.store.Delete(id)
	}

	return nil
}
