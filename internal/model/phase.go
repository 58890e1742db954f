package model

type Phase string

const (
	PhaseResearch Phase = "research"
	PhaseOutline  Phase = "outline"
	PhaseDraft    Phase = "draft"
	PhaseRevision Phase = "revision"
	PhasePolish   Phase = "polish"
)

// OrderedPhases is the canonical workflow order. It doubles as the
// classifier's match priority: earlier phases win on ambiguous names.
var OrderedPhases = []Phase{
	PhaseResearch,
	PhaseOutline,
	PhaseDraft,
	PhaseRevision,
	PhasePolish,
}

var validPhases = map[Phase]bool{
	PhaseResearch: true,
	PhaseOutline:  true,
	PhaseDraft:    true,
	PhaseRevision: true,
	PhasePolish:   true,
}

// minSessionHours is the shortest sitting worth scheduling per phase.
// Draft work needs long uninterrupted sessions; outlining and polishing
// tolerate short ones.
var minSessionHours = map[Phase]float64{
	PhaseResearch: 1.0,
	PhaseOutline:  0.5,
	PhaseDraft:    2.0,
	PhaseRevision: 1.0,
	PhasePolish:   0.5,
}

func (p Phase) IsValid() bool {
	return validPhases[p]
}

func (p Phase) String() string {
	return string(p)
}

// MinSessionHours returns the minimum session length for a phase.
// Unknown phases get the research minimum.
func MinSessionHours(p Phase) float64 {
	if h, ok := minSessionHours[p]; ok {
		return h
	}
	return minSessionHours[PhaseResearch]
}
