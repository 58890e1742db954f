// Package estimate supplies base-hour estimates for work items that have no
// tasks yet. The scheduling engine stays domain-agnostic by depending only on
// the Strategy interface.
package estimate

import (
	"fmt"
	"os"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/mkurosawa/studyflow/internal/model"
)

// Strategy estimates the total raw hours a work item will take, before any
// buffer multiplier is applied.
type Strategy interface {
	EstimateHours(item model.WorkItem) float64
}

// Table maps subjects to base hours for a typical assignment in that subject.
type Table struct {
	SchemaVersion int                `yaml:"schema_version"`
	FileType      string             `yaml:"file_type"`
	DefaultHours  float64            `yaml:"default_hours"`
	Subjects      map[string]float64 `yaml:"subjects"`
}

// DefaultTable returns the built-in subject table.
func DefaultTable() Table {
	return Table{
		SchemaVersion: 1,
		FileType:      "estimates",
		DefaultHours:  15,
		Subjects: map[string]float64{
			"literature":       18,
			"history":          16,
			"philosophy":       20,
			"psychology":       14,
			"economics":        15,
			"biology":          14,
			"physics":          13,
			"mathematics":      10,
			"computer-science": 12,
		},
	}
}

// LoadTable reads a subject table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read estimates table: %w", err)
	}

	var t Table
	if err := yamlv3.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse estimates table: %w", err)
	}
	if t.FileType != "" && t.FileType != "estimates" {
		return Table{}, fmt.Errorf("file_type mismatch: got %q, expected %q", t.FileType, "estimates")
	}
	if t.DefaultHours <= 0 {
		t.DefaultHours = DefaultTable().DefaultHours
	}
	return t, nil
}

// TableStrategy looks an item's subject up in a Table.
type TableStrategy struct {
	table Table
}

func NewTableStrategy(t Table) *TableStrategy {
	return &TableStrategy{table: t}
}

func (s *TableStrategy) EstimateHours(item model.WorkItem) float64 {
	subject := strings.ToLower(strings.TrimSpace(item.Subject))
	if h, ok := s.table.Subjects[subject]; ok && h > 0 {
		return h
	}
	return s.table.DefaultHours
}
