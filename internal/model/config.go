package model

type Config struct {
	SchemaVersion int           `yaml:"schema_version"`
	FileType      string        `yaml:"file_type"`
	Project       ProjectConfig `yaml:"project"`
	Planner       PlannerConfig `yaml:"planner"`
	Tables        TablesConfig  `yaml:"tables"`
	Watcher       WatcherConfig `yaml:"watcher"`
	Logging       LoggingConfig `yaml:"logging"`
}

type ProjectConfig struct {
	Name    string `yaml:"name"`
	Created string `yaml:"created"`
	Root    string `yaml:"root"`
}

type PlannerConfig struct {
	WeeklyHoursBudget  float64 `yaml:"weekly_hours_budget"`
	BufferMultiplier   float64 `yaml:"buffer_multiplier"`
	MasterDeadline     string  `yaml:"master_deadline"` // YYYY-MM-DD
	MaxConcurrentItems int     `yaml:"max_concurrent_items"`
	DraftExclusivity   bool    `yaml:"draft_exclusivity"`
}

type TablesConfig struct {
	// Estimates names the per-subject base-hour table file, relative to the
	// plan directory. Empty means the built-in table.
	Estimates string `yaml:"estimates"`
}

type WatcherConfig struct {
	DebounceSec    float64 `yaml:"debounce_sec"`
	NotifySeverity string  `yaml:"notify_severity"` // minimum severity for desktop notifications
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		SchemaVersion: 1,
		FileType:      "config",
		Planner: PlannerConfig{
			WeeklyHoursBudget:  6,
			BufferMultiplier:   1.2,
			MaxConcurrentItems: 2,
			DraftExclusivity:   true,
		},
		Tables: TablesConfig{
			Estimates: "estimates.yaml",
		},
		Watcher: WatcherConfig{
			DebounceSec:    0.5,
			NotifySeverity: "error",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
