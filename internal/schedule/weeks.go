package schedule

import (
	"time"

	"github.com/mkurosawa/studyflow/internal/model"
)

// WeekBucket is a fixed 7-day capacity container. Buckets are rebuilt from
// scratch for every allocation run and never persisted.
type WeekBucket struct {
	Index          int
	StartDate      time.Time
	EndDate        time.Time // last calendar day of the bucket
	AllocatedHours float64
	RemainingHours float64
	Entries        []BucketEntry
	ActiveItems    map[string]bool
}

// BucketEntry records one task's hours placed in one week.
type BucketEntry struct {
	TaskID string
	ItemID string
	Phase  model.Phase
	Hours  float64
}

// BuildWeekBuckets lays out consecutive 7-day buckets from the start of now's
// day through the master deadline. The trailing partial week still gets a
// full-capacity bucket; the feasibility arithmetic, not bucket capacity,
// accounts for the fraction.
func BuildWeekBuckets(now, deadline time.Time, weeklyBudget float64) []WeekBucket {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var buckets []WeekBucket
	for i := 0; ; i++ {
		weekStart := start.AddDate(0, 0, i*7)
		if !weekStart.Before(deadline) {
			break
		}
		buckets = append(buckets, WeekBucket{
			Index:          i,
			StartDate:      weekStart,
			EndDate:        weekStart.AddDate(0, 0, 6),
			RemainingHours: weeklyBudget,
			ActiveItems:    make(map[string]bool),
		})
	}
	return buckets
}
