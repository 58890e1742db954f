package estimate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkurosawa/studyflow/internal/model"
)

func TestTableStrategy_Lookup(t *testing.T) {
	s := NewTableStrategy(DefaultTable())

	tests := []struct {
		name    string
		subject string
		want    float64
	}{
		{"exact match", "philosophy", 20},
		{"case insensitive", "Literature", 18},
		{"surrounding whitespace", "  history  ", 16},
		{"unknown subject", "astrology", 15},
		{"empty subject", "", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.EstimateHours(model.WorkItem{Subject: tt.subject})
			if got != tt.want {
				t.Errorf("EstimateHours(%q) = %g, want %g", tt.subject, got, tt.want)
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "estimates.yaml")
	content := "schema_version: 1\nfile_type: \"estimates\"\ndefault_hours: 9\nsubjects:\n  latin: 25\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable returned error: %v", err)
	}
	if table.DefaultHours != 9 {
		t.Errorf("default_hours = %g, want 9", table.DefaultHours)
	}

	s := NewTableStrategy(table)
	if got := s.EstimateHours(model.WorkItem{Subject: "latin"}); got != 25 {
		t.Errorf("latin = %g, want 25", got)
	}
	if got := s.EstimateHours(model.WorkItem{Subject: "greek"}); got != 9 {
		t.Errorf("greek fallback = %g, want 9", got)
	}
}

func TestLoadTable_WrongFileType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "estimates.yaml")
	if err := os.WriteFile(path, []byte("file_type: \"plan\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("expected file_type mismatch error")
	}
}

func TestLoadTable_Missing(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
