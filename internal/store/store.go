// Package store owns on-disk layout of a plan directory: plan.yaml,
// config.yaml, the estimates table, and the .studyflow metadata dir. All
// writes go through the atomic YAML writer; corrupted reads are quarantined
// and recovered.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/mkurosawa/studyflow/internal/estimate"
	"github.com/mkurosawa/studyflow/internal/lock"
	"github.com/mkurosawa/studyflow/internal/model"
	yamlio "github.com/mkurosawa/studyflow/internal/yaml"
)

const (
	PlanFileName      = "plan.yaml"
	ConfigFileName    = "config.yaml"
	EstimatesFileName = "estimates.yaml"

	MetaDirName  = ".studyflow"
	LocksDirName = "locks"

	WatchLockName = "watch.lock"
)

type Store struct {
	dir   string
	locks *lock.MutexMap
}

func New(dir string) *Store {
	return &Store{dir: dir, locks: lock.NewMutexMap()}
}

func (s *Store) Dir() string      { return s.dir }
func (s *Store) PlanPath() string { return filepath.Join(s.dir, PlanFileName) }
func (s *Store) MetaDir() string  { return filepath.Join(s.dir, MetaDirName) }

func (s *Store) ConfigPath() string {
	return filepath.Join(s.dir, ConfigFileName)
}

func (s *Store) WatchLockPath() string {
	return filepath.Join(s.MetaDir(), LocksDirName, WatchLockName)
}

// LoadPlan reads plan.yaml. A missing file yields an empty plan; a corrupted
// file is quarantined, recovered from backup or skeleton, and re-read once.
func (s *Store) LoadPlan() (model.PlanFile, error) {
	s.locks.Lock(PlanFileName)
	defer s.locks.Unlock(PlanFileName)

	path := s.PlanPath()
	plan, err := readPlan(path)
	if err == nil {
		return plan, nil
	}
	if os.IsNotExist(err) {
		return model.PlanFile{SchemaVersion: yamlio.CurrentSchemaVersion, FileType: yamlio.FileTypePlan}, nil
	}

	if rerr := yamlio.RecoverCorruptedFile(s.MetaDir(), path, yamlio.FileTypePlan); rerr != nil {
		return model.PlanFile{}, fmt.Errorf("load plan: %w (recovery also failed: %v)", err, rerr)
	}
	plan, err = readPlan(path)
	if err != nil {
		return model.PlanFile{}, fmt.Errorf("load plan after recovery: %w", err)
	}
	return plan, nil
}

func readPlan(path string) (model.PlanFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.PlanFile{}, err
	}
	if err := yamlio.ValidateSchemaHeaderFromBytes(content, yamlio.FileTypePlan); err != nil {
		return model.PlanFile{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var plan model.PlanFile
	if err := yamlv3.Unmarshal(content, &plan); err != nil {
		return model.PlanFile{}, fmt.Errorf("%s: parse yaml: %w", filepath.Base(path), err)
	}
	return plan, nil
}

// SavePlan stamps the schema header and updated_at, then writes atomically.
func (s *Store) SavePlan(plan model.PlanFile) error {
	s.locks.Lock(PlanFileName)
	defer s.locks.Unlock(PlanFileName)

	plan.SchemaVersion = yamlio.CurrentSchemaVersion
	plan.FileType = yamlio.FileTypePlan
	now := time.Now().UTC().Format(time.RFC3339)
	plan.UpdatedAt = &now

	return yamlio.AtomicWrite(s.PlanPath(), plan)
}

// LoadConfig overlays config.yaml onto the defaults, so a sparse config file
// still yields a complete configuration.
func (s *Store) LoadConfig() (model.Config, error) {
	s.locks.Lock(ConfigFileName)
	defer s.locks.Unlock(ConfigFileName)

	cfg := model.DefaultConfig()
	content, err := os.ReadFile(s.ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return model.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yamlv3.Unmarshal(content, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (s *Store) SaveConfig(cfg model.Config) error {
	s.locks.Lock(ConfigFileName)
	defer s.locks.Unlock(ConfigFileName)

	return yamlio.AtomicWrite(s.ConfigPath(), cfg)
}

// LoadEstimates resolves the configured estimates table, falling back to the
// built-in table when none exists on disk.
func (s *Store) LoadEstimates(cfg model.Config) (estimate.Table, error) {
	name := cfg.Tables.Estimates
	if name == "" {
		return estimate.DefaultTable(), nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, name)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return estimate.DefaultTable(), nil
	}
	return estimate.LoadTable(path)
}
