package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkurosawa/studyflow/internal/model"
)

func violationKinds(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidate_OverBudget(t *testing.T) {
	opts := testOpts(t, 6)
	buckets := testBuckets(t, 2, 6)
	buckets[0].AllocatedHours = 7

	vs := Validate(buckets, nil, opts)
	assert.Contains(t, violationKinds(vs), ViolationOverBudget)
}

func TestValidate_ConcurrencyCap(t *testing.T) {
	opts := testOpts(t, 6)
	buckets := testBuckets(t, 2, 6)
	buckets[0].Entries = []BucketEntry{
		{TaskID: "t1", ItemID: "a", Hours: 1},
		{TaskID: "t2", ItemID: "b", Hours: 1},
		{TaskID: "t3", ItemID: "c", Hours: 1},
	}

	vs := Validate(buckets, nil, opts)
	assert.Contains(t, violationKinds(vs), ViolationConcurrencyCap)
}

func TestValidate_DraftOverlap(t *testing.T) {
	opts := testOpts(t, 6)

	s1, e1 := "2026-03-02", "2026-03-15"
	s2, e2 := "2026-03-09", "2026-03-22"
	items := []model.WorkItem{
		{
			ID: "a", Name: "History essay",
			Tasks: []model.Task{{ID: "t1", Name: "Draft essay", StartDate: &s1, Deadline: &e1}},
		},
		{
			ID: "b", Name: "Biology report",
			Tasks: []model.Task{{ID: "t2", Name: "Draft report", StartDate: &s2, Deadline: &e2}},
		},
	}

	vs := Validate(testBuckets(t, 4, 6), items, opts)
	require.Len(t, vs, 1)
	assert.Equal(t, ViolationDraftOverlap, vs[0].Kind)
	assert.Contains(t, vs[0].Message, "History essay")
	assert.Contains(t, vs[0].Message, "Biology report")

	// With exclusivity off the same ranges pass.
	opts.DraftExclusivity = false
	assert.Empty(t, Validate(testBuckets(t, 4, 6), items, opts))
}

func TestValidate_AdjacentDraftRangesPass(t *testing.T) {
	opts := testOpts(t, 6)

	s1, e1 := "2026-03-02", "2026-03-08"
	s2, e2 := "2026-03-09", "2026-03-15"
	items := []model.WorkItem{
		{ID: "a", Name: "A", Tasks: []model.Task{{ID: "t1", Name: "Draft essay", StartDate: &s1, Deadline: &e1}}},
		{ID: "b", Name: "B", Tasks: []model.Task{{ID: "t2", Name: "Draft report", StartDate: &s2, Deadline: &e2}}},
	}

	assert.Empty(t, Validate(testBuckets(t, 4, 6), items, opts))
}

func TestValidate_Clean(t *testing.T) {
	opts := testOpts(t, 6)
	buckets := testBuckets(t, 2, 6)
	buckets[0].AllocatedHours = 6
	buckets[0].Entries = []BucketEntry{{TaskID: "t1", ItemID: "a", Hours: 6}}

	assert.Empty(t, Validate(buckets, nil, opts))
}
