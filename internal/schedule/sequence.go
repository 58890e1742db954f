package schedule

import (
	"strings"

	"github.com/mkurosawa/studyflow/internal/model"
)

// Cluster declares subjects whose items benefit from being worked adjacently:
// reading methods, citation style, and argument structure carry over between
// them. Subject order within a cluster is the preferred working order.
type Cluster struct {
	Name     string
	Subjects []string
}

// DefaultClusters groups subjects by how their working methods transfer.
var DefaultClusters = []Cluster{
	{Name: "source-analysis", Subjects: []string{"history", "literature", "philosophy"}},
	{Name: "empirical", Subjects: []string{"psychology", "biology", "economics"}},
	{Name: "formal", Subjects: []string{"mathematics", "physics", "computer-science"}},
}

// Sequencer orders work items for skill transfer before allocation.
type Sequencer struct {
	Clusters []Cluster
}

func NewSequencer(clusters []Cluster) *Sequencer {
	if clusters == nil {
		clusters = DefaultClusters
	}
	return &Sequencer{Clusters: clusters}
}

// Sequence returns a permutation of items: clusters are walked in declared
// order, placing every still-unplaced member in the cluster's internal order;
// items belonging to no cluster keep their original relative order at the
// tail. Items sharing a cluster come out contiguous.
func (s *Sequencer) Sequence(items []model.WorkItem) []model.WorkItem {
	placed := make(map[string]bool, len(items))
	out := make([]model.WorkItem, 0, len(items))

	for _, c := range s.Clusters {
		for _, subject := range c.Subjects {
			for _, item := range items {
				if placed[item.ID] {
					continue
				}
				if strings.EqualFold(strings.TrimSpace(item.Subject), subject) {
					out = append(out, item)
					placed[item.ID] = true
				}
			}
		}
	}

	for _, item := range items {
		if !placed[item.ID] {
			out = append(out, item)
			placed[item.ID] = true
		}
	}

	return out
}
