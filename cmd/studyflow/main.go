package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkurosawa/studyflow/internal/estimate"
	"github.com/mkurosawa/studyflow/internal/events"
	"github.com/mkurosawa/studyflow/internal/model"
	"github.com/mkurosawa/studyflow/internal/notify"
	"github.com/mkurosawa/studyflow/internal/schedule"
	"github.com/mkurosawa/studyflow/internal/setup"
	"github.com/mkurosawa/studyflow/internal/status"
	"github.com/mkurosawa/studyflow/internal/store"
	"github.com/mkurosawa/studyflow/internal/warn"
	"github.com/mkurosawa/studyflow/internal/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "schedule":
		runSchedule(os.Args[2:])
	case "sequence":
		runSequence(os.Args[2:])
	case "warnings":
		runWarnings(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "notify":
		runNotify(os.Args[2:])
	case "version":
		fmt.Printf("studyflow %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(args []string) {
	var dir, name string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--name requires a value")
				os.Exit(1)
			}
			i++
			name = args[i]
		default:
			if dir != "" {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: studyflow init <dir> [--name <project>]\n", args[i])
				os.Exit(1)
			}
			dir = args[i]
		}
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "usage: studyflow init <dir> [--name <project>]")
		os.Exit(1)
	}

	if err := setup.Run(dir, name); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	absDir, _ := filepath.Abs(dir)
	fmt.Printf("Initialized studyflow plan in %s\n", absDir)
}

func runCheck(args []string) {
	opts := parseCommonFlags(args, "check")

	_, plan, engineOpts, estimator := loadEnv(opts.dir)
	analyzer := &schedule.Analyzer{Estimator: estimator, Opts: engineOpts}
	report := analyzer.Check(plan.Items, opts.now)

	if opts.jsonOutput {
		printJSON(checkOutput{
			Feasible:         report.IsFeasible,
			TotalHoursNeeded: report.TotalHoursNeeded,
			AvailableHours:   report.AvailableHours,
			WeeksNeeded:      report.WeeksNeeded,
			WeeksAvailable:   report.WeeksAvailable,
			MinimumDeadline:  model.FormatDate(report.MinimumDeadline),
		})
		return
	}

	if report.IsFeasible {
		fmt.Printf("Feasible: %.1fh needed, %.1fh available before %s\n",
			report.TotalHoursNeeded, report.AvailableHours, model.FormatDate(engineOpts.MasterDeadline))
	} else {
		fmt.Printf("NOT feasible: %.1fh needed but only %.1fh available before %s\n",
			report.TotalHoursNeeded, report.AvailableHours, model.FormatDate(engineOpts.MasterDeadline))
		fmt.Printf("Earliest feasible deadline: %s\n", model.FormatDate(report.MinimumDeadline))
	}
	if len(report.Items) > 0 {
		fmt.Println("\nItems:")
		for _, item := range report.Items {
			fmt.Printf("  %-26s  %6.1fh  %d week(s)\n", item.ItemName, item.HoursNeeded, item.WeeksNeeded)
		}
	}
	if !report.IsFeasible {
		os.Exit(1)
	}
}

type checkOutput struct {
	Feasible         bool    `json:"feasible"`
	TotalHoursNeeded float64 `json:"total_hours_needed"`
	AvailableHours   float64 `json:"available_hours"`
	WeeksNeeded      int     `json:"weeks_needed"`
	WeeksAvailable   float64 `json:"weeks_available"`
	MinimumDeadline  string  `json:"minimum_deadline"`
}

func runSchedule(args []string) {
	dryRun := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--dry-run" {
			dryRun = true
			continue
		}
		rest = append(rest, a)
	}
	opts := parseCommonFlags(rest, "schedule")

	st, plan, engineOpts, estimator := loadEnv(opts.dir)
	planner := schedule.NewPlanner(engineOpts, estimator)
	result := planner.BuildSchedule(plan.Items, opts.now)

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}
	for _, v := range result.Violations {
		fmt.Fprintf(os.Stderr, "violation [%s]: %s\n", v.Kind, v.Message)
	}

	if !result.Success {
		os.Exit(1)
	}

	printBuckets(result.Buckets)

	if dryRun {
		fmt.Println("\ndry run: plan file not modified")
		return
	}

	plan.Items = result.Items
	if err := st.SavePlan(plan); err != nil {
		fmt.Fprintf(os.Stderr, "save plan: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nWrote %s with scheduled task dates\n", st.PlanPath())
}

func printBuckets(buckets []schedule.WeekBucket) {
	fmt.Println("Schedule:")
	for _, b := range buckets {
		if len(b.Entries) == 0 {
			continue
		}
		fmt.Printf("  week %2d (%s): %.1fh\n", b.Index+1, model.FormatDate(b.StartDate), b.AllocatedHours)
		for _, e := range b.Entries {
			fmt.Printf("    %-10s  %-8s  %.1fh\n", e.TaskID, e.Phase, e.Hours)
		}
	}
}

func runSequence(args []string) {
	opts := parseCommonFlags(args, "sequence")

	_, plan, _, _ := loadEnv(opts.dir)
	ordered := schedule.NewSequencer(nil).Sequence(plan.Items)

	if opts.jsonOutput {
		type entry struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Subject string `json:"subject"`
		}
		out := make([]entry, 0, len(ordered))
		for _, item := range ordered {
			out = append(out, entry{ID: item.ID, Name: item.Name, Subject: item.Subject})
		}
		printJSON(out)
		return
	}

	fmt.Println("Working order:")
	for i, item := range ordered {
		fmt.Printf("  %2d. %-26s  %s\n", i+1, item.Name, item.Subject)
	}
}

func runWarnings(args []string) {
	opts := parseCommonFlags(args, "warnings")

	_, plan, engineOpts, estimator := loadEnv(opts.dir)
	engine := warn.NewEngine(engineOpts, estimator)
	warnings := engine.Evaluate(plan.Items, opts.now)

	if opts.jsonOutput {
		printJSON(warnings)
		return
	}

	if len(warnings) == 0 {
		fmt.Println("No warnings")
		return
	}
	for _, w := range warnings {
		fmt.Printf("[%s] %s: %s\n", w.Severity, w.Kind, w.Message)
		if w.ImpactHours > 0 {
			fmt.Printf("  impact: %.1fh\n", w.ImpactHours)
		}
		for _, f := range w.Fixes {
			fmt.Printf("  fix (%s risk): %s\n", f.Risk, f.Description)
		}
	}
	os.Exit(1)
}

func runStatus(args []string) {
	opts := parseCommonFlags(args, "status")
	if err := status.Run(opts.dir, opts.jsonOutput); err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
}

func runWatch(args []string) {
	opts := parseCommonFlags(args, "watch")

	st := store.New(opts.dir)
	cfg, err := st.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	engineOpts, err := schedule.OptionsFromConfig(cfg.Planner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	table, err := st.LoadEstimates(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load estimates: %v\n", err)
		os.Exit(1)
	}

	engine := warn.NewEngine(engineOpts, estimate.NewTableStrategy(table))
	bus := events.NewBus(0)
	defer bus.Close()

	w, err := watch.New(st, cfg, engineOpts, engine, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create watcher: %v\n", err)
		os.Exit(1)
	}
	if err := w.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
}

func runNotify(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: studyflow notify <title> <message>")
		os.Exit(1)
	}
	if err := notify.Send(args[0], args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "notify: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	dir        string
	jsonOutput bool
	now        time.Time
}

func parseCommonFlags(args []string, cmd string) commonFlags {
	out := commonFlags{now: time.Now()}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--dir":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--dir requires a value")
				os.Exit(1)
			}
			i++
			out.dir = args[i]
		case "--json":
			out.jsonOutput = true
		case "--now":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--now requires a value")
				os.Exit(1)
			}
			i++
			d, err := time.Parse(model.DateLayout, args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --now value %q (want YYYY-MM-DD)\n", args[i])
				os.Exit(1)
			}
			out.now = d
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: studyflow %s [--dir <path>] [--json] [--now YYYY-MM-DD]\n", args[i], cmd)
			os.Exit(1)
		}
	}

	if out.dir == "" {
		out.dir = findPlanDir()
		if out.dir == "" {
			fmt.Fprintln(os.Stderr, "error: no plan directory found. Run 'studyflow init <dir>' first or pass --dir.")
			os.Exit(1)
		}
	}
	return out
}

func loadEnv(dir string) (*store.Store, model.PlanFile, schedule.Options, estimate.Strategy) {
	st := store.New(dir)

	cfg, err := st.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	opts, err := schedule.OptionsFromConfig(cfg.Planner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	plan, err := st.LoadPlan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load plan: %v\n", err)
		os.Exit(1)
	}
	table, err := st.LoadEstimates(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load estimates: %v\n", err)
		os.Exit(1)
	}

	return st, plan, opts, estimate.NewTableStrategy(table)
}

// findPlanDir searches for a .studyflow/ directory in the current directory
// and ancestors, returning the plan directory that contains it.
func findPlanDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, store.MetaDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode json: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `studyflow %s — Deadline feasibility and study scheduling

Usage: studyflow <command> [options]

Plan:
  init <dir> [--name <project>]   Initialize a plan directory
  check [--now YYYY-MM-DD]        Deadline feasibility check
  schedule [--dry-run]            Build the weekly schedule and stamp task dates
  sequence                        Show the cluster working order
  warnings                        Evaluate plan warnings with suggested fixes
  status [--json]                 Show plan and watcher status

Background:
  watch                           Watch the plan file and recompute warnings

Utilities:
  notify <title> <msg>            macOS notification
  version                         Show version
  help                            Show this help

Common flags: --dir <path> (defaults to the nearest directory containing
.studyflow/), --json, --now YYYY-MM-DD (override today for deterministic runs).

`, version)
}
