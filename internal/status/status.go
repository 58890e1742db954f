// Package status summarizes a plan directory: watcher liveness, per-item
// progress, and plan-wide hour totals.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mkurosawa/studyflow/internal/lock"
	"github.com/mkurosawa/studyflow/internal/model"
	"github.com/mkurosawa/studyflow/internal/schedule"
	"github.com/mkurosawa/studyflow/internal/store"
)

type PlanStatus struct {
	Watcher WatcherStatus `json:"watcher"`
	Items   []ItemStatus  `json:"items,omitempty"`
	Totals  Totals        `json:"totals"`
}

type WatcherStatus struct {
	Running bool   `json:"running"`
	Pid     string `json:"pid,omitempty"`
}

type ItemStatus struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Subject        string  `json:"subject"`
	TasksTotal     int     `json:"tasks_total"`
	TasksDone      int     `json:"tasks_done"`
	RemainingHours float64 `json:"remaining_hours"`
	Deadline       string  `json:"deadline,omitempty"`
}

type Totals struct {
	RemainingHours  float64 `json:"remaining_hours"`
	WeeklyBudget    float64 `json:"weekly_budget"`
	MasterDeadline  string  `json:"master_deadline,omitempty"`
	WeeksToDeadline float64 `json:"weeks_to_deadline,omitempty"`
}

// Run reads the plan directory and prints its status.
func Run(dir string, jsonOutput bool) error {
	st := store.New(dir)

	cfg, err := st.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	plan, err := st.LoadPlan()
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	status := PlanStatus{
		Watcher: checkWatcher(st.WatchLockPath()),
		Items:   itemStatuses(plan.Items, cfg.Planner.BufferMultiplier),
		Totals:  totals(plan.Items, cfg.Planner, time.Now()),
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	printStatus(status)
	return nil
}

func checkWatcher(lockPath string) WatcherStatus {
	held, pid := lock.Probe(lockPath)
	return WatcherStatus{Running: held, Pid: pid}
}

func itemStatuses(items []model.WorkItem, bufferMultiplier float64) []ItemStatus {
	var out []ItemStatus
	for _, item := range items {
		s := ItemStatus{
			ID:         item.ID,
			Name:       item.Name,
			Subject:    item.Subject,
			TasksTotal: len(item.Tasks),
		}
		var deadline time.Time
		for _, t := range item.Tasks {
			if t.Completed {
				s.TasksDone++
				continue
			}
			s.RemainingHours += t.BufferedHours(bufferMultiplier)
			if d, ok := t.DeadlineTime(); ok && d.After(deadline) {
				deadline = d
			}
		}
		if !deadline.IsZero() {
			s.Deadline = model.FormatDate(deadline)
		}
		out = append(out, s)
	}
	return out
}

func totals(items []model.WorkItem, planner model.PlannerConfig, now time.Time) Totals {
	t := Totals{
		WeeklyBudget:   planner.WeeklyHoursBudget,
		MasterDeadline: planner.MasterDeadline,
	}
	for _, item := range items {
		for _, task := range item.Tasks {
			if !task.Completed {
				t.RemainingHours += task.BufferedHours(planner.BufferMultiplier)
			}
		}
	}
	if opts, err := schedule.OptionsFromConfig(planner); err == nil {
		days := opts.MasterDeadline.Sub(now).Hours() / 24
		if days > 0 {
			t.WeeksToDeadline = days / 7
		}
	}
	return t
}

func printStatus(s PlanStatus) {
	// Watcher
	if s.Watcher.Running {
		if s.Watcher.Pid != "" {
			fmt.Printf("Watcher: running (pid %s)\n", s.Watcher.Pid)
		} else {
			fmt.Println("Watcher: running")
		}
	} else {
		fmt.Println("Watcher: stopped")
	}

	// Items
	if len(s.Items) > 0 {
		fmt.Println("\nItems:")
		fmt.Printf("  %-22s  %-16s  %5s  %9s  %s\n", "NAME", "SUBJECT", "DONE", "REMAINING", "DEADLINE")
		for _, i := range s.Items {
			deadline := i.Deadline
			if deadline == "" {
				deadline = "-"
			}
			fmt.Printf("  %-22s  %-16s  %2d/%-2d  %8.1fh  %s\n",
				i.Name, i.Subject, i.TasksDone, i.TasksTotal, i.RemainingHours, deadline)
		}
	} else {
		fmt.Println("\nItems: none")
	}

	// Totals
	fmt.Printf("\nRemaining: %.1fh at %.1fh/week", s.Totals.RemainingHours, s.Totals.WeeklyBudget)
	if s.Totals.MasterDeadline != "" {
		fmt.Printf(" (deadline %s, %.1f weeks away)", s.Totals.MasterDeadline, s.Totals.WeeksToDeadline)
	}
	fmt.Println()
}
