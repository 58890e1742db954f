// Package model defines the data structures for studyflow's plan, phases, and configuration.
package model

import "time"

// DateLayout is the calendar-date format used everywhere a date is persisted.
const DateLayout = "2006-01-02"

type PlanFile struct {
	SchemaVersion int        `yaml:"schema_version"`
	FileType      string     `yaml:"file_type"`
	Items         []WorkItem `yaml:"items"`
	UpdatedAt     *string    `yaml:"updated_at"`
}

type WorkItem struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
	Tasks   []Task `yaml:"tasks"`
}

type Task struct {
	ID               string   `yaml:"id"`
	ItemID           string   `yaml:"item_id"`
	Name             string   `yaml:"name"`
	EstimatedHours   float64  `yaml:"estimated_hours"`
	BufferMultiplier float64  `yaml:"buffer_multiplier,omitempty"`
	Phase            Phase    `yaml:"phase,omitempty"`
	Completed        bool     `yaml:"completed"`
	StartDate        *string  `yaml:"start_date"`
	Deadline         *string  `yaml:"deadline"`
	DependsOn        []string `yaml:"depends_on,omitempty"`
}

// BufferedHours applies the task's own buffer multiplier, falling back to the
// plan-wide multiplier when the task carries none.
func (t *Task) BufferedHours(defaultMultiplier float64) float64 {
	m := t.BufferMultiplier
	if m <= 0 {
		m = defaultMultiplier
	}
	if m <= 0 {
		m = 1
	}
	return t.EstimatedHours * m
}

// StartTime parses the task's start date. ok is false when the field is
// missing or malformed.
func (t *Task) StartTime() (time.Time, bool) {
	return ParseDate(t.StartDate)
}

// DeadlineTime parses the task's deadline date. ok is false when the field is
// missing or malformed.
func (t *Task) DeadlineTime() (time.Time, bool) {
	return ParseDate(t.Deadline)
}

// IncompleteTasks returns the item's tasks that still need scheduling, in
// their declared order.
func (w *WorkItem) IncompleteTasks() []Task {
	var out []Task
	for _, t := range w.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func ParseDate(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, *s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
