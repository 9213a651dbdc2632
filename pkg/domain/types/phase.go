package types

// Phase represents a lifecycle stage of a patient's medical journey. The set
// is open: the extraction model may emit stages beyond the recognized ones,
// and they are stored as-is.
type Phase string

const (
	PhasePreDiagnosis Phase = "pre-diagnosis"
	PhaseDiagnosis    Phase = "diagnosis"
	PhasePreSurgery   Phase = "pre-surgery"
	PhaseSurgery      Phase = "surgery"
	PhasePostSurgery  Phase = "post-surgery"
	PhaseFollowUp     Phase = "follow-up"
)

// RecognizedPhases returns the phases the application knows how to render
func RecognizedPhases() []Phase {
	return []Phase{
		PhasePreDiagnosis,
		PhaseDiagnosis,
		PhasePreSurgery,
		PhaseSurgery,
		PhasePostSurgery,
		PhaseFollowUp,
	}
}

// IsRecognized checks if the phase is one of the recognized lifecycle stages
func (p Phase) IsRecognized() bool {
	switch p {
	case PhasePreDiagnosis,
		PhaseDiagnosis,
		PhasePreSurgery,
		PhaseSurgery,
		PhasePostSurgery,
		PhaseFollowUp:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}
