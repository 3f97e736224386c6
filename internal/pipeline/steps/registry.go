// Package steps describes the workflow stages for listing and dependency checks
// outside of a running graph.
package steps

import (
	"fmt"
	"sort"

	dbpkg "github.com/jonathan/recruiting-agent/internal/db"
	"github.com/jonathan/recruiting-agent/internal/stages"
)

// StepDefinition defines metadata for a workflow step
type StepDefinition struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
	Terminal     bool     `json:"terminal"`
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	stages.ParseJob: {
		Name:         stages.ParseJob,
		Category:     dbpkg.StepCategoryAnalysis,
		Description:  "Extract title, skills and responsibilities from the job description",
		Dependencies: []string{},
	},
	stages.SourceCandidates: {
		Name:         stages.SourceCandidates,
		Category:     dbpkg.StepCategorySourcing,
		Description:  "Plan platforms, keywords and outreach for finding candidates",
		Dependencies: []string{stages.ParseJob},
		Terminal:     true,
	},
	stages.CreateScreening: {
		Name:         stages.CreateScreening,
		Category:     dbpkg.StepCategoryScreening,
		Description:  "Draft screening criteria, questions and rubric",
		Dependencies: []string{stages.ParseJob},
		Terminal:     true,
	},
	stages.AnalyzeCompensation: {
		Name:         stages.AnalyzeCompensation,
		Category:     dbpkg.StepCategoryCompensation,
		Description:  "Recommend a salary and benefits package within the budget",
		Dependencies: []string{stages.ParseJob},
	},
	stages.GenerateOffer: {
		Name:         stages.GenerateOffer,
		Category:     dbpkg.StepCategoryOffer,
		Description:  "Write the offer letter",
		Dependencies: []string{stages.AnalyzeCompensation},
		Terminal:     true,
	},
}

// order is the topological order of the registry
var order = []string{
	stages.ParseJob,
	stages.SourceCandidates,
	stages.CreateScreening,
	stages.AnalyzeCompensation,
	stages.GenerateOffer,
}

// All returns the step definitions in execution order.
func All() []StepDefinition {
	defs := make([]StepDefinition, 0, len(order))
	for _, name := range order {
		defs = append(defs, StepRegistry[name])
	}
	return defs
}

// CategoryOf returns the category of a step, or "" for unknown steps.
func CategoryOf(name string) string {
	return StepRegistry[name].Category
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// GetAvailableSteps returns steps that are not completed and whose dependencies are met
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for name := range StepRegistry {
		if completed[name] {
			continue
		}
		if ValidateDependencies(completed, name) == nil {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// GetBlockedSteps returns steps that are not completed and wait on a dependency
func GetBlockedSteps(completed map[string]bool) []string {
	var blocked []string
	for name := range StepRegistry {
		if completed[name] {
			continue
		}
		if ValidateDependencies(completed, name) != nil {
			blocked = append(blocked, name)
		}
	}
	sort.Strings(blocked)
	return blocked
}
