// Package warn re-derives human-actionable warnings and remediation options
// from the persisted plan, independently of any allocation run, so the result
// stays fresh as the user edits dates by hand.
package warn

type Kind string

const (
	KindDeadlineRisk     Kind = "deadline_risk"
	KindWeeklyOverload   Kind = "weekly_overload"
	KindContextSwitching Kind = "context_switching"
	KindDraftOverlap     Kind = "draft_overlap"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// Rank orders severities for threshold comparisons. Unknown severities rank
// below info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Warning describes one live problem in the plan. Warnings are transient:
// recomputed on demand, never persisted.
type Warning struct {
	Kind        Kind     `json:"kind"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	ImpactHours float64  `json:"impact_hours"`
	ItemIDs     []string `json:"item_ids,omitempty"`
	Fixes       []Fix    `json:"fixes,omitempty"`
}

type FixKind string

const (
	FixExtendDeadline       FixKind = "extend_deadline"
	FixIncreaseWeeklyBudget FixKind = "increase_weekly_budget"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Fix is a remediation as plain data: a kind tag plus the parameters Apply
// needs. Keeping fixes free of captured state makes them inspectable and
// serializable.
type Fix struct {
	Kind        FixKind `json:"kind"`
	Description string  `json:"description"`
	Risk        Risk    `json:"risk"`

	NewDeadline     *string  `json:"new_deadline,omitempty"`      // extend_deadline
	NewWeeklyBudget *float64 `json:"new_weekly_budget,omitempty"` // increase_weekly_budget
}
