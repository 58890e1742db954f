package schedule

import (
	"strings"

	"github.com/mkurosawa/studyflow/internal/model"
)

// phaseKeywords is checked in workflow order; the first matching set wins.
// Keyword choice matters: "rewrite" must land in revision, so the draft set
// avoids the bare substring "write"; likewise "proofread" contains "read", so
// the research set omits it and relies on the research default instead.
var phaseKeywords = []struct {
	phase    model.Phase
	keywords []string
}{
	{model.PhaseResearch, []string{"research", "source", "literature", "gather", "notes", "study"}},
	{model.PhaseOutline, []string{"outline", "structure", "thesis", "organize", "plan"}},
	{model.PhaseDraft, []string{"draft", "compose", "writing"}},
	{model.PhaseRevision, []string{"revis", "rewrite", "rework", "feedback", "edit"}},
	{model.PhasePolish, []string{"polish", "proofread", "format", "citation", "final", "submit"}},
}

// ClassifyPhase maps a free-text task name to a workflow phase. It is total:
// unmatched names (including the empty string) default to research.
func ClassifyPhase(name string) model.Phase {
	lower := strings.ToLower(name)
	for _, set := range phaseKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.phase
			}
		}
	}
	return model.PhaseResearch
}

// TaskPhase returns the task's declared phase, or classifies one from its
// name when the field is absent or unrecognized.
func TaskPhase(t model.Task) model.Phase {
	if t.Phase.IsValid() {
		return t.Phase
	}
	return ClassifyPhase(t.Name)
}
