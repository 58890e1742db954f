package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkurosawa/studyflow/internal/model"
)

func testOpts(t *testing.T, budget float64) Options {
	t.Helper()
	return Options{
		WeeklyHoursBudget:  budget,
		MasterDeadline:     date(t, "2026-12-01"),
		BufferMultiplier:   1,
		MaxConcurrentItems: 2,
		DraftExclusivity:   true,
	}
}

func testBuckets(t *testing.T, weeks int, budget float64) []WeekBucket {
	t.Helper()
	now := date(t, "2026-03-02")
	return BuildWeekBuckets(now, now.AddDate(0, 0, weeks*7), budget)
}

func allocatedHours(buckets []WeekBucket, taskID string) float64 {
	total := 0.0
	for _, b := range buckets {
		for _, e := range b.Entries {
			if e.TaskID == taskID {
				total += e.Hours
			}
		}
	}
	return total
}

func TestAllocate_ConservationAndBudget(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 4, 6))

	item := model.WorkItem{
		ID:   "item_0000000001_aaaaaaaa",
		Name: "Essay",
		Tasks: []model.Task{
			{ID: "t1", Name: "Research sources", EstimatedHours: 2.5},
			{ID: "t2", Name: "Outline argument", EstimatedHours: 1},
			{ID: "t3", Name: "Draft essay", EstimatedHours: 5},
			{ID: "t4", Name: "Revise essay", EstimatedHours: 2},
			{ID: "t5", Name: "Proofread essay", EstimatedHours: 1},
		},
	}

	alloc.Allocate(&item)
	require.Empty(t, alloc.Errors())

	// Every placed hour equals the task's buffered hours.
	for _, task := range item.Tasks {
		assert.InDelta(t, task.EstimatedHours, allocatedHours(alloc.Buckets(), task.ID), 1e-9,
			"task %s hours", task.ID)
	}

	// No bucket exceeds the weekly budget.
	for _, b := range alloc.Buckets() {
		assert.LessOrEqual(t, b.AllocatedHours, 6.0+1e-9, "week %d", b.Index)
	}

	// Every task got a date range.
	for _, task := range item.Tasks {
		require.NotNil(t, task.StartDate, "task %s start date", task.ID)
		require.NotNil(t, task.Deadline, "task %s deadline", task.ID)
	}

	// The draft split across weeks 0 and 1 spans both.
	assert.Equal(t, "2026-03-02", *item.Tasks[2].StartDate)
	assert.Equal(t, "2026-03-15", *item.Tasks[2].Deadline)
}

func TestAllocate_AntiFragmentation(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 4, 6))

	item := model.WorkItem{
		ID:   "item_0000000001_aaaaaaaa",
		Name: "Essay",
		Tasks: []model.Task{
			{ID: "t1", Name: "Research sources", EstimatedHours: 5.5},
			{ID: "t2", Name: "Draft essay", EstimatedHours: 4},
		},
	}

	alloc.Allocate(&item)
	require.Empty(t, alloc.Errors())

	buckets := alloc.Buckets()
	// The 0.5h left in week 0 is below the 2h draft minimum, so the whole
	// draft moves to week 1 rather than splintering.
	assert.InDelta(t, 5.5, buckets[0].AllocatedHours, 1e-9)
	assert.InDelta(t, 4, buckets[1].AllocatedHours, 1e-9)
	assert.Equal(t, "2026-03-09", *item.Tasks[1].StartDate)
}

func TestAllocate_FinalFragmentAllowed(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 4, 6))

	item := model.WorkItem{
		ID:    "item_0000000001_aaaaaaaa",
		Name:  "Essay",
		Tasks: []model.Task{{ID: "t1", Name: "Draft essay", EstimatedHours: 7.5}},
	}

	alloc.Allocate(&item)
	require.Empty(t, alloc.Errors())

	// 6h fill week 0; the closing 1.5h fragment is below the draft minimum
	// but finishes the task, so it lands in week 1.
	assert.InDelta(t, 6, alloc.Buckets()[0].AllocatedHours, 1e-9)
	assert.InDelta(t, 1.5, alloc.Buckets()[1].AllocatedHours, 1e-9)
}

func TestAllocate_DraftExclusivity(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 6, 6))

	a := model.WorkItem{
		ID:    "item_0000000001_aaaaaaaa",
		Name:  "History essay",
		Tasks: []model.Task{{ID: "t1", Name: "Draft essay", EstimatedHours: 4}},
	}
	b := model.WorkItem{
		ID:    "item_0000000002_bbbbbbbb",
		Name:  "Biology report",
		Tasks: []model.Task{{ID: "t2", Name: "Draft report", EstimatedHours: 3}},
	}

	alloc.Allocate(&a)
	alloc.Allocate(&b)
	require.Empty(t, alloc.Errors())

	// The second draft defers past the first draft's last week.
	require.Len(t, alloc.Warnings(), 1)
	assert.Contains(t, alloc.Warnings()[0], "deferred")
	assert.Equal(t, "2026-03-09", *b.Tasks[0].StartDate)

	// No week holds draft hours from two items.
	for _, bucket := range alloc.Buckets() {
		draftItems := make(map[string]bool)
		for _, e := range bucket.Entries {
			if e.Phase == model.PhaseDraft {
				draftItems[e.ItemID] = true
			}
		}
		assert.LessOrEqual(t, len(draftItems), 1, "week %d", bucket.Index)
	}
}

func TestAllocate_ConcurrencyCap(t *testing.T) {
	opts := testOpts(t, 6)
	opts.MaxConcurrentItems = 1
	alloc := NewAllocator(opts, testBuckets(t, 4, 6))

	a := model.WorkItem{
		ID:    "item_0000000001_aaaaaaaa",
		Tasks: []model.Task{{ID: "t1", Name: "Research sources", EstimatedHours: 2}},
	}
	b := model.WorkItem{
		ID:    "item_0000000002_bbbbbbbb",
		Tasks: []model.Task{{ID: "t2", Name: "Research methods", EstimatedHours: 2}},
	}

	alloc.Allocate(&a)
	alloc.Allocate(&b)
	require.Empty(t, alloc.Errors())

	// Week 0 still has 4h free, but the cap keeps the second item out.
	for _, e := range alloc.Buckets()[0].Entries {
		assert.Equal(t, a.ID, e.ItemID)
	}
	assert.Equal(t, "2026-03-09", *b.Tasks[0].StartDate)
}

func TestAllocate_CompletedTasksSkipped(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 4, 6))

	done := "2026-01-05"
	item := model.WorkItem{
		ID: "item_0000000001_aaaaaaaa",
		Tasks: []model.Task{
			{ID: "t1", Name: "Research sources", EstimatedHours: 3, Completed: true, StartDate: &done, Deadline: &done},
			{ID: "t2", Name: "Outline argument", EstimatedHours: 1},
		},
	}

	alloc.Allocate(&item)

	assert.Zero(t, allocatedHours(alloc.Buckets(), "t1"))
	// Completed tasks keep their historical dates.
	assert.Equal(t, done, *item.Tasks[0].StartDate)
}

func TestAllocate_Unplaceable(t *testing.T) {
	opts := testOpts(t, 6)
	alloc := NewAllocator(opts, testBuckets(t, 2, 6))

	item := model.WorkItem{
		ID:    "item_0000000001_aaaaaaaa",
		Tasks: []model.Task{{ID: "t1", Name: "Research sources", EstimatedHours: 20}},
	}

	alloc.Allocate(&item)

	require.Len(t, alloc.Errors(), 1)
	assert.True(t, strings.Contains(alloc.Errors()[0], "could not be placed"),
		"error = %q", alloc.Errors()[0])
}
