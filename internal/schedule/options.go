// Package schedule implements the deadline feasibility check and the greedy
// constrained week allocator. Everything here is pure: callers inject the
// current time, and no function touches the clock, disk, or network.
package schedule

import (
	"fmt"
	"time"

	"github.com/mkurosawa/studyflow/internal/model"
)

// epsilon absorbs floating-point drift in hour arithmetic.
const epsilon = 1e-9

// Options are the immutable knobs for one scheduling run.
type Options struct {
	WeeklyHoursBudget  float64
	MasterDeadline     time.Time
	BufferMultiplier   float64
	MaxConcurrentItems int
	DraftExclusivity   bool
}

// OptionsFromConfig converts the persisted planner config into run options.
func OptionsFromConfig(cfg model.PlannerConfig) (Options, error) {
	opts := Options{
		WeeklyHoursBudget:  cfg.WeeklyHoursBudget,
		BufferMultiplier:   cfg.BufferMultiplier,
		MaxConcurrentItems: cfg.MaxConcurrentItems,
		DraftExclusivity:   cfg.DraftExclusivity,
	}

	if cfg.MasterDeadline == "" {
		return Options{}, fmt.Errorf("planner.master_deadline is not set")
	}
	deadline, err := time.Parse(model.DateLayout, cfg.MasterDeadline)
	if err != nil {
		return Options{}, fmt.Errorf("parse planner.master_deadline %q: %w", cfg.MasterDeadline, err)
	}
	opts.MasterDeadline = deadline

	if opts.WeeklyHoursBudget <= 0 {
		return Options{}, fmt.Errorf("planner.weekly_hours_budget must be greater than 0, got %g", opts.WeeklyHoursBudget)
	}
	if opts.BufferMultiplier <= 0 {
		opts.BufferMultiplier = 1
	}
	if opts.MaxConcurrentItems <= 0 {
		opts.MaxConcurrentItems = 1
	}
	return opts, nil
}
