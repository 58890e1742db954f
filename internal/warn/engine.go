package warn

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mkurosawa/studyflow/internal/estimate"
	"github.com/mkurosawa/studyflow/internal/model"
	"github.com/mkurosawa/studyflow/internal/schedule"
)

const (
	// maxSaneWeeklyHours caps the increase-budget fix; past this the only
	// honest remediation is moving the deadline.
	maxSaneWeeklyHours = 40.0

	// Context-switch cost model: each active item beyond two on the same day
	// burns half an hour.
	maxComfortableItemsPerDay = 2
	dailySwitchLossHours      = 0.5
)

// Engine evaluates the persisted plan. All checks are total over degenerate
// input: empty plans and malformed dates produce empty results, never errors.
type Engine struct {
	Estimator estimate.Strategy
	Opts      schedule.Options
}

func NewEngine(opts schedule.Options, estimator estimate.Strategy) *Engine {
	return &Engine{Estimator: estimator, Opts: opts}
}

// Evaluate runs the four independent checks and unions their results.
func (e *Engine) Evaluate(items []model.WorkItem, now time.Time) []Warning {
	var out []Warning
	if w, ok := e.checkDeadline(items, now); ok {
		out = append(out, w)
	}
	if w, ok := e.checkWeeklyOverload(items); ok {
		out = append(out, w)
	}
	if w, ok := e.checkContextSwitching(items); ok {
		out = append(out, w)
	}
	out = append(out, e.checkDraftOverlap(items)...)
	return out
}

func (e *Engine) checkDeadline(items []model.WorkItem, now time.Time) (Warning, bool) {
	analyzer := &schedule.Analyzer{Estimator: e.Estimator, Opts: e.Opts}
	report := analyzer.Check(items, now)
	if report.IsFeasible {
		return Warning{}, false
	}

	shortfall := report.TotalHoursNeeded - report.AvailableHours
	minDeadline := model.FormatDate(report.MinimumDeadline)

	fixes := []Fix{{
		Kind: FixExtendDeadline,
		Description: fmt.Sprintf("Extend the deadline to %s, the earliest date the remaining %.1fh fit",
			minDeadline, report.TotalHoursNeeded),
		Risk:        RiskLow,
		NewDeadline: &minDeadline,
	}}

	if report.WeeksAvailable > 0 {
		rate := math.Ceil(report.TotalHoursNeeded/report.WeeksAvailable*10) / 10
		if rate <= maxSaneWeeklyHours {
			fixes = append(fixes, Fix{
				Kind: FixIncreaseWeeklyBudget,
				Description: fmt.Sprintf("Raise the weekly budget from %.1fh to %.1fh to fit the current deadline",
					e.Opts.WeeklyHoursBudget, rate),
				Risk:            RiskMedium,
				NewWeeklyBudget: &rate,
			})
		}
	}

	return Warning{
		Kind:     KindDeadlineRisk,
		Severity: SeverityCritical,
		Message: fmt.Sprintf("%.1fh of work remain but only %.1fh are available before %s",
			report.TotalHoursNeeded, report.AvailableHours, model.FormatDate(e.Opts.MasterDeadline)),
		ImpactHours: shortfall,
		ItemIDs:     itemIDs(items),
		Fixes:       fixes,
	}, true
}

// checkWeeklyOverload fans each incomplete task's buffered hours linearly
// across its date span, buckets the hours by ISO week, and flags weeks over
// budget.
func (e *Engine) checkWeeklyOverload(items []model.WorkItem) (Warning, bool) {
	weekHours := make(map[string]float64)
	weekItems := make(map[string]map[string]bool)

	for _, item := range items {
		for _, t := range item.Tasks {
			if t.Completed {
				continue
			}
			start, okS := t.StartTime()
			end, okE := t.DeadlineTime()
			if !okS || !okE || end.Before(start) {
				continue
			}

			days := int(end.Sub(start).Hours()/24) + 1
			perDay := t.BufferedHours(e.Opts.BufferMultiplier) / float64(days)
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				key := isoWeekKey(d)
				weekHours[key] += perDay
				if weekItems[key] == nil {
					weekItems[key] = make(map[string]bool)
				}
				weekItems[key][item.ID] = true
			}
		}
	}

	var overWeeks []string
	totalOver := 0.0
	involved := make(map[string]bool)
	for key, hours := range weekHours {
		if hours > e.Opts.WeeklyHoursBudget+1e-9 {
			overWeeks = append(overWeeks, key)
			totalOver += hours - e.Opts.WeeklyHoursBudget
			for id := range weekItems[key] {
				involved[id] = true
			}
		}
	}
	if len(overWeeks) == 0 {
		return Warning{}, false
	}
	sort.Strings(overWeeks)

	severity := SeverityWarning
	if totalOver > e.Opts.WeeklyHoursBudget {
		severity = SeverityError
	}

	return Warning{
		Kind:     KindWeeklyOverload,
		Severity: severity,
		Message: fmt.Sprintf("%d week(s) exceed the %.1fh budget by %.1fh in total (first: %s)",
			len(overWeeks), e.Opts.WeeklyHoursBudget, totalOver, overWeeks[0]),
		ImpactHours: totalOver,
		ItemIDs:     sortedKeys(involved),
	}, true
}

// checkContextSwitching counts, per calendar day, the distinct items whose
// incomplete tasks span that day.
func (e *Engine) checkContextSwitching(items []model.WorkItem) (Warning, bool) {
	dayItems := make(map[string]map[string]bool)

	for _, item := range items {
		for _, t := range item.Tasks {
			if t.Completed {
				continue
			}
			start, okS := t.StartTime()
			end, okE := t.DeadlineTime()
			if !okS || !okE || end.Before(start) {
				continue
			}
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				key := model.FormatDate(d)
				if dayItems[key] == nil {
					dayItems[key] = make(map[string]bool)
				}
				dayItems[key][item.ID] = true
			}
		}
	}

	lossHours := 0.0
	problematicDays := 0
	involved := make(map[string]bool)
	for _, active := range dayItems {
		if len(active) <= maxComfortableItemsPerDay {
			continue
		}
		problematicDays++
		lossHours += dailySwitchLossHours * float64(len(active)-maxComfortableItemsPerDay)
		for id := range active {
			involved[id] = true
		}
	}
	if problematicDays == 0 {
		return Warning{}, false
	}

	return Warning{
		Kind:     KindContextSwitching,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("%d day(s) have more than %d items active; estimated %.1fh lost to context switching",
			problematicDays, maxComfortableItemsPerDay, lossHours),
		ImpactHours: lossHours,
		ItemIDs:     sortedKeys(involved),
	}, true
}

// checkDraftOverlap intersects the draft date ranges of every item pair.
func (e *Engine) checkDraftOverlap(items []model.WorkItem) []Warning {
	type draftSpan struct {
		id    string
		name  string
		start time.Time
		end   time.Time
	}

	var spans []draftSpan
	for _, item := range items {
		var span draftSpan
		found := false
		for _, t := range item.Tasks {
			if t.Completed || schedule.TaskPhase(t) != model.PhaseDraft {
				continue
			}
			start, okS := t.StartTime()
			end, okE := t.DeadlineTime()
			if !okS || !okE {
				continue
			}
			if !found || start.Before(span.start) {
				span.start = start
			}
			if !found || end.After(span.end) {
				span.end = end
			}
			found = true
		}
		if found {
			span.id = item.ID
			span.name = item.Name
			spans = append(spans, span)
		}
	}

	var out []Warning
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			if a.end.Before(b.start) || b.end.Before(a.start) {
				continue
			}
			overlapDays := overlapDays(a.start, a.end, b.start, b.end)
			out = append(out, Warning{
				Kind:     KindDraftOverlap,
				Severity: SeverityError,
				Message: fmt.Sprintf("draft work for %q and %q overlaps by %d day(s)",
					a.name, b.name, overlapDays),
				ImpactHours: 0,
				ItemIDs:     []string{a.id, b.id},
			})
		}
	}
	return out
}

func overlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func isoWeekKey(d time.Time) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func itemIDs(items []model.WorkItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
