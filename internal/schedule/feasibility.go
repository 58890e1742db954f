package schedule

import (
	"math"
	"time"

	"github.com/mkurosawa/studyflow/internal/estimate"
	"github.com/mkurosawa/studyflow/internal/model"
)

// feasibilityMarginWeeks pads the minimum feasible deadline so a plan that
// just barely fits is not immediately at risk again.
const feasibilityMarginWeeks = 2

// FeasibilityReport is the analyzer's complete output. IsFeasible=false is
// the caller's signal to stop before allocating; the report itself never
// carries an error.
type FeasibilityReport struct {
	IsFeasible       bool
	TotalHoursNeeded float64
	AvailableHours   float64
	WeeksNeeded      int
	WeeksAvailable   float64
	MinimumDeadline  time.Time
	Items            []ItemFeasibility
}

type ItemFeasibility struct {
	ItemID      string
	ItemName    string
	HoursNeeded float64
	WeeksNeeded int
}

// Analyzer computes deadline feasibility. Items without tasks fall back to
// the injected estimate strategy.
type Analyzer struct {
	Estimator estimate.Strategy
	Opts      Options
}

// Check sums the buffered hours of every incomplete task (or the estimated
// base hours for items with no tasks yet) and compares against the hours
// available before the master deadline.
func (a *Analyzer) Check(items []model.WorkItem, now time.Time) FeasibilityReport {
	report := FeasibilityReport{
		Items: make([]ItemFeasibility, 0, len(items)),
	}

	for _, item := range items {
		hours := a.itemHours(item)
		weeks := ceilWeeks(hours, a.Opts.WeeklyHoursBudget)
		report.Items = append(report.Items, ItemFeasibility{
			ItemID:      item.ID,
			ItemName:    item.Name,
			HoursNeeded: hours,
			WeeksNeeded: weeks,
		})
		report.TotalHoursNeeded += hours
	}

	days := a.Opts.MasterDeadline.Sub(now).Hours() / 24
	report.WeeksAvailable = math.Max(0, days/7)
	report.AvailableHours = report.WeeksAvailable * a.Opts.WeeklyHoursBudget
	report.WeeksNeeded = ceilWeeks(report.TotalHoursNeeded, a.Opts.WeeklyHoursBudget)
	report.MinimumDeadline = now.AddDate(0, 0, (report.WeeksNeeded+feasibilityMarginWeeks)*7)
	report.IsFeasible = report.TotalHoursNeeded <= report.AvailableHours+epsilon

	return report
}

func (a *Analyzer) itemHours(item model.WorkItem) float64 {
	if len(item.Tasks) == 0 {
		base := 0.0
		if a.Estimator != nil {
			base = a.Estimator.EstimateHours(item)
		}
		m := a.Opts.BufferMultiplier
		if m <= 0 {
			m = 1
		}
		return base * m
	}

	total := 0.0
	for i := range item.Tasks {
		if item.Tasks[i].Completed {
			continue
		}
		total += item.Tasks[i].BufferedHours(a.Opts.BufferMultiplier)
	}
	return total
}

func ceilWeeks(hours, weeklyBudget float64) int {
	if hours <= epsilon {
		return 0
	}
	if weeklyBudget <= 0 {
		return 0
	}
	return int(math.Ceil(hours / weeklyBudget))
}
