package planner

import (
	"errors"
	"fmt"

	"profiling-bundler/core/models"
)

// ErrEmptyInferencePlan is returned when there is no run to generate inputs for
var ErrEmptyInferencePlan = errors.New("inference plan is empty")

// InvalidPlanEntryError is returned for entries with a non-positive batch or request count
type InvalidPlanEntryError struct {
	Index int
	Entry models.InferencePlanEntry
}

func (e *InvalidPlanEntryError) Error() string {
	return fmt.Sprintf("inference plan entry %d: batch (%d) and nireq (%d) must be positive", e.Index, e.Entry.Batch, e.Entry.Concurrency)
}

// PlanCount returns how many distinct inputs must be generated for the plan.
// The largest run (batch * nireq) is capped at the dataset capacity, but at
// least one input is always generated so the harness gets a non-empty bundle.
func PlanCount(plan []models.InferencePlanEntry, capacity int) (int, error) {
	if len(plan) == 0 {
		return 0, ErrEmptyInferencePlan
	}
	if capacity < 0 {
		return 0, fmt.Errorf("dataset capacity must not be negative, got %d", capacity)
	}

	required := 0
	for i, entry := range plan {
		if entry.Batch <= 0 || entry.Concurrency <= 0 {
			return 0, &InvalidPlanEntryError{Index: i, Entry: entry}
		}
		if r := entry.Requests(); r > required {
			required = r
		}
	}

	return min(required, max(capacity, 1)), nil
}
