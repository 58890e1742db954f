package schedule

import (
	"testing"
	"time"

	"github.com/mkurosawa/studyflow/internal/model"
)

func TestBuildWeekBuckets(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	deadline := date(t, "2026-09-20")

	buckets := BuildWeekBuckets(now, deadline, 6)

	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	if got := model.FormatDate(buckets[0].StartDate); got != "2026-09-01" {
		t.Errorf("first bucket starts %s, want 2026-09-01 (midnight of now)", got)
	}
	if got := model.FormatDate(buckets[0].EndDate); got != "2026-09-07" {
		t.Errorf("first bucket ends %s, want 2026-09-07", got)
	}
	for i, b := range buckets {
		if b.Index != i {
			t.Errorf("bucket %d has index %d", i, b.Index)
		}
		if b.RemainingHours != 6 {
			t.Errorf("bucket %d remaining = %g, want full budget", i, b.RemainingHours)
		}
		if b.AllocatedHours != 0 || len(b.Entries) != 0 {
			t.Errorf("bucket %d not empty", i)
		}
	}
}

func TestBuildWeekBuckets_DeadlinePassed(t *testing.T) {
	now := date(t, "2026-09-20")
	buckets := BuildWeekBuckets(now, date(t, "2026-09-10"), 6)
	if len(buckets) != 0 {
		t.Errorf("got %d buckets for a past deadline, want 0", len(buckets))
	}
}
