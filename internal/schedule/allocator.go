package schedule

import (
	"fmt"
	"math"

	"github.com/mkurosawa/studyflow/internal/model"
)

// Allocator greedily packs task hours into week buckets while holding four
// constraints at once: the weekly budget ceiling, draft exclusivity across
// items, the per-week active-item cap, and per-phase minimum session lengths.
//
// The cursor only ever moves forward, both within and across Allocate calls.
// When draft exclusivity is on, an item reaching its draft task is pushed
// past the last week holding any other item's draft hours, so no two items
// ever draft in the same week.
type Allocator struct {
	opts     Options
	buckets  []WeekBucket
	cursor   int
	warnings []string
	errors   []string
}

func NewAllocator(opts Options, buckets []WeekBucket) *Allocator {
	return &Allocator{opts: opts, buckets: buckets}
}

// Allocate packs every incomplete task of item into remaining weekly
// capacity, in the tasks' declared order, writing each task's start date and
// deadline as it goes. Completed tasks keep whatever dates they have.
func (a *Allocator) Allocate(item *model.WorkItem) {
	for i := range item.Tasks {
		if item.Tasks[i].Completed {
			continue
		}
		a.allocateTask(item, &item.Tasks[i])
	}
}

func (a *Allocator) allocateTask(item *model.WorkItem, t *model.Task) {
	phase := TaskPhase(*t)
	minSession := model.MinSessionHours(phase)

	if phase == model.PhaseDraft && a.opts.DraftExclusivity {
		if last := a.lastOtherDraftWeek(item.ID); last >= a.cursor {
			a.cursor = last + 1
			a.warnings = append(a.warnings, fmt.Sprintf(
				"task %s: draft of %q deferred to avoid overlapping the active draft", t.ID, item.Name))
		}
	}

	remaining := t.BufferedHours(a.opts.BufferMultiplier)
	firstWeek, lastWeek := -1, -1

	for remaining > epsilon && a.cursor < len(a.buckets) {
		b := &a.buckets[a.cursor]

		// Concurrency cap: a full week only accepts items already active in it.
		if len(b.ActiveItems) >= a.opts.MaxConcurrentItems && !b.ActiveItems[item.ID] {
			a.cursor++
			continue
		}

		hours := math.Min(remaining, b.RemainingHours)

		// Anti-fragmentation: defer rather than leave a sub-minimum sliver,
		// unless this is the final fragment finishing the task off.
		if hours+epsilon < minSession && remaining+epsilon >= minSession {
			a.cursor++
			continue
		}
		if hours <= epsilon {
			a.cursor++
			continue
		}

		b.AllocatedHours += hours
		b.RemainingHours -= hours
		b.Entries = append(b.Entries, BucketEntry{
			TaskID: t.ID,
			ItemID: item.ID,
			Phase:  phase,
			Hours:  hours,
		})
		b.ActiveItems[item.ID] = true
		remaining -= hours

		if firstWeek < 0 {
			firstWeek = a.cursor
		}
		lastWeek = a.cursor

		if b.RemainingHours <= epsilon {
			a.cursor++
		}
	}

	// Should not happen after a feasible report, but the deferral rules can
	// burn capacity the feasibility arithmetic counted on.
	if remaining > epsilon {
		a.errors = append(a.errors, fmt.Sprintf(
			"task %s (%s): %.1fh could not be placed before the deadline", t.ID, t.Name, remaining))
	}

	if firstWeek >= 0 {
		start := model.FormatDate(a.buckets[firstWeek].StartDate)
		end := model.FormatDate(a.buckets[lastWeek].EndDate)
		t.StartDate = &start
		t.Deadline = &end
	}
}

// lastOtherDraftWeek scans the filled buckets for the latest week holding
// another item's draft hours. Linear, but bucket counts stay small.
func (a *Allocator) lastOtherDraftWeek(itemID string) int {
	last := -1
	for i := range a.buckets {
		for _, e := range a.buckets[i].Entries {
			if e.ItemID != itemID && e.Phase == model.PhaseDraft {
				last = i
			}
		}
	}
	return last
}

// Buckets exposes the bucket sequence after allocation.
func (a *Allocator) Buckets() []WeekBucket {
	return a.buckets
}

// Warnings lists non-fatal conditions (draft deferrals) hit during allocation.
func (a *Allocator) Warnings() []string {
	return a.warnings
}

// Errors lists tasks whose hours could not be fully placed.
func (a *Allocator) Errors() []string {
	return a.errors
}
