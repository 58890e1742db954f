package schedule

import (
	"fmt"
	"time"

	"github.com/mkurosawa/studyflow/internal/estimate"
	"github.com/mkurosawa/studyflow/internal/model"
)

// Result is one allocation run's complete output. On allocator errors the
// partial allocation is still returned for diagnostic display.
type Result struct {
	Success    bool
	Items      []model.WorkItem
	Buckets    []WeekBucket
	Warnings   []string
	Errors     []string
	Violations []Violation
}

// Planner drives the pipeline: feasibility gate, sequencing, allocation,
// post-hoc validation.
type Planner struct {
	Estimator estimate.Strategy
	Clusters  []Cluster
	Opts      Options
}

func NewPlanner(opts Options, estimator estimate.Strategy) *Planner {
	return &Planner{
		Estimator: estimator,
		Clusters:  DefaultClusters,
		Opts:      opts,
	}
}

// CheckFeasibility runs the analyzer without allocating anything.
func (p *Planner) CheckFeasibility(items []model.WorkItem, now time.Time) FeasibilityReport {
	a := &Analyzer{Estimator: p.Estimator, Opts: p.Opts}
	return a.Check(items, now)
}

// BuildSchedule gates on feasibility, then sequences, allocates, and
// validates. The input items are never mutated; the returned items carry the
// newly stamped task dates.
func (p *Planner) BuildSchedule(items []model.WorkItem, now time.Time) Result {
	report := p.CheckFeasibility(items, now)
	if !report.IsFeasible {
		return Result{
			Success: false,
			Items:   cloneItems(items),
			Errors: []string{fmt.Sprintf(
				"plan is not feasible: %.1fh needed but only %.1fh available before %s (earliest feasible deadline: %s)",
				report.TotalHoursNeeded, report.AvailableHours,
				model.FormatDate(p.Opts.MasterDeadline), model.FormatDate(report.MinimumDeadline))},
		}
	}

	sequenced := NewSequencer(p.Clusters).Sequence(cloneItems(items))
	buckets := BuildWeekBuckets(now, p.Opts.MasterDeadline, p.Opts.WeeklyHoursBudget)
	alloc := NewAllocator(p.Opts, buckets)
	for i := range sequenced {
		alloc.Allocate(&sequenced[i])
	}

	violations := Validate(alloc.Buckets(), sequenced, p.Opts)

	return Result{
		Success:    len(alloc.Errors()) == 0 && len(violations) == 0,
		Items:      sequenced,
		Buckets:    alloc.Buckets(),
		Warnings:   alloc.Warnings(),
		Errors:     alloc.Errors(),
		Violations: violations,
	}
}

func cloneItems(items []model.WorkItem) []model.WorkItem {
	out := make([]model.WorkItem, len(items))
	copy(out, items)
	for i := range out {
		tasks := make([]model.Task, len(out[i].Tasks))
		copy(tasks, out[i].Tasks)
		for j := range tasks {
			if tasks[j].StartDate != nil {
				s := *tasks[j].StartDate
				tasks[j].StartDate = &s
			}
			if tasks[j].Deadline != nil {
				d := *tasks[j].Deadline
				tasks[j].Deadline = &d
			}
			if tasks[j].DependsOn != nil {
				deps := make([]string, len(tasks[j].DependsOn))
				copy(deps, tasks[j].DependsOn)
				tasks[j].DependsOn = deps
			}
		}
		out[i].Tasks = tasks
	}
	return out
}
