// Package setup handles studyflow plan directory initialization.
package setup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/mkurosawa/studyflow/internal/model"
	"github.com/mkurosawa/studyflow/internal/store"
	atomicyaml "github.com/mkurosawa/studyflow/internal/yaml"
	"github.com/mkurosawa/studyflow/templates"
)

// Run initializes a plan directory: config.yaml, an empty plan.yaml, the
// default estimates table, and the .studyflow/ metadata tree. projectName
// overrides the auto-detected name (defaults to directory basename if empty).
func Run(projectDir, projectName string) error {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	metaDir := filepath.Join(absDir, store.MetaDirName)
	if _, err := os.Stat(metaDir); err == nil {
		return fmt.Errorf("%s already exists", metaDir)
	}

	// Create directory structure
	dirs := []string{
		store.LocksDirName,
		"logs",
		"quarantine",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(metaDir, d), 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	// Generate and write config.yaml with auto-filled fields
	cfg, err := generateConfig(absDir, projectName)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if err := atomicyaml.AtomicWrite(filepath.Join(absDir, store.ConfigFileName), cfg); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}

	// Create empty plan file
	planContent := "schema_version: 1\nfile_type: \"plan\"\nitems: []\nupdated_at: null\n"
	if err := atomicyaml.AtomicWriteRaw(filepath.Join(absDir, store.PlanFileName), []byte(planContent)); err != nil {
		return fmt.Errorf("write plan.yaml: %w", err)
	}

	// Copy the default estimates table
	if err := copyTemplateFile("estimates.yaml", filepath.Join(absDir, store.EstimatesFileName)); err != nil {
		return err
	}

	// Create watch.lock (empty)
	if err := os.WriteFile(filepath.Join(metaDir, store.LocksDirName, store.WatchLockName), nil, 0600); err != nil {
		return fmt.Errorf("create watch.lock: %w", err)
	}

	return nil
}

func copyTemplateFile(name, dst string) error {
	data, err := fs.ReadFile(templates.FS, name)
	if err != nil {
		return fmt.Errorf("read template %s: %w", name, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func generateConfig(projectDir, projectName string) (*model.Config, error) {
	// Read template config as base
	data, err := fs.ReadFile(templates.FS, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("read config template: %w", err)
	}

	var cfg model.Config
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	// Auto-fill fields
	if projectName != "" {
		cfg.Project.Name = projectName
	} else {
		cfg.Project.Name = filepath.Base(projectDir)
	}
	cfg.Project.Root = projectDir
	cfg.Project.Created = time.Now().Format(time.RFC3339)

	return &cfg, nil
}
