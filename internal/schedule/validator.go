package schedule

import (
	"fmt"
	"time"

	"github.com/mkurosawa/studyflow/internal/model"
)

const (
	ViolationOverBudget     = "over_budget"
	ViolationDraftOverlap   = "draft_overlap"
	ViolationConcurrencyCap = "concurrency_cap"
)

type Violation struct {
	Kind    string
	Message string
}

// Validate re-checks the finished schedule from the outside: it reads only
// bucket entries and task dates, never the allocator's own bookkeeping, so a
// bookkeeping bug cannot hide a violated constraint.
func Validate(buckets []WeekBucket, items []model.WorkItem, opts Options) []Violation {
	var out []Violation

	for i := range buckets {
		b := &buckets[i]

		if b.AllocatedHours > opts.WeeklyHoursBudget+epsilon {
			out = append(out, Violation{
				Kind: ViolationOverBudget,
				Message: fmt.Sprintf("week %d (%s): %.1fh allocated exceeds the %.1fh budget",
					b.Index, model.FormatDate(b.StartDate), b.AllocatedHours, opts.WeeklyHoursBudget),
			})
		}

		distinct := make(map[string]bool)
		for _, e := range b.Entries {
			distinct[e.ItemID] = true
		}
		if len(distinct) > opts.MaxConcurrentItems {
			out = append(out, Violation{
				Kind: ViolationConcurrencyCap,
				Message: fmt.Sprintf("week %d (%s): %d items active, cap is %d",
					b.Index, model.FormatDate(b.StartDate), len(distinct), opts.MaxConcurrentItems),
			})
		}
	}

	if opts.DraftExclusivity {
		out = append(out, draftOverlapViolations(items)...)
	}

	return out
}

type draftRange struct {
	itemID   string
	itemName string
	start    time.Time
	end      time.Time
}

// draftOverlapViolations stamps each item's draft range from its tasks' dates
// and intersects ranges pairwise.
func draftOverlapViolations(items []model.WorkItem) []Violation {
	var ranges []draftRange
	for _, item := range items {
		r, ok := itemDraftRange(item)
		if !ok {
			continue
		}
		ranges = append(ranges, r)
	}

	var out []Violation
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if rangesIntersect(ranges[i].start, ranges[i].end, ranges[j].start, ranges[j].end) {
				out = append(out, Violation{
					Kind: ViolationDraftOverlap,
					Message: fmt.Sprintf("draft weeks of %q and %q overlap",
						ranges[i].itemName, ranges[j].itemName),
				})
			}
		}
	}
	return out
}

func itemDraftRange(item model.WorkItem) (draftRange, bool) {
	r := draftRange{itemID: item.ID, itemName: item.Name}
	found := false
	for _, t := range item.Tasks {
		if t.Completed || TaskPhase(t) != model.PhaseDraft {
			continue
		}
		start, okS := t.StartTime()
		end, okE := t.DeadlineTime()
		if !okS || !okE {
			continue
		}
		if !found || start.Before(r.start) {
			r.start = start
		}
		if !found || end.After(r.end) {
			r.end = end
		}
		found = true
	}
	return r, found
}

func rangesIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
