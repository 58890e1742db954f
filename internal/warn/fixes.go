package warn

import (
	"fmt"
	"time"

	"github.com/mkurosawa/studyflow/internal/model"
)

// Patch is the state change a Fix produces: only non-nil fields change. The
// caller persists the patch and keeps the prior values for undo.
type Patch struct {
	MasterDeadline    *string
	WeeklyHoursBudget *float64
}

// Apply computes a fix's patch. Pure: nothing is mutated, nothing is read
// beyond the fix itself.
func Apply(f Fix) (Patch, error) {
	switch f.Kind {
	case FixExtendDeadline:
		if f.NewDeadline == nil {
			return Patch{}, fmt.Errorf("extend_deadline fix has no new deadline")
		}
		if _, err := time.Parse(model.DateLayout, *f.NewDeadline); err != nil {
			return Patch{}, fmt.Errorf("extend_deadline fix has invalid date %q: %w", *f.NewDeadline, err)
		}
		return Patch{MasterDeadline: f.NewDeadline}, nil

	case FixIncreaseWeeklyBudget:
		if f.NewWeeklyBudget == nil || *f.NewWeeklyBudget <= 0 {
			return Patch{}, fmt.Errorf("increase_weekly_budget fix has no positive budget")
		}
		return Patch{WeeklyHoursBudget: f.NewWeeklyBudget}, nil

	default:
		return Patch{}, fmt.Errorf("unknown fix kind %q", f.Kind)
	}
}

// ApplyToConfig returns the planner config with the patch applied.
func (p Patch) ApplyToConfig(cfg model.PlannerConfig) model.PlannerConfig {
	if p.MasterDeadline != nil {
		cfg.MasterDeadline = *p.MasterDeadline
	}
	if p.WeeklyHoursBudget != nil {
		cfg.WeeklyHoursBudget = *p.WeeklyHoursBudget
	}
	return cfg
}
