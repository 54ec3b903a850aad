package kiosk

import "strings"

// Step is one stage of the fixed account-opening sequence.
type Step string

const (
	StepGreeting     Step = "greeting"
	StepPersonalInfo Step = "personal_info"
	StepIDScan       Step = "id_scan"
	StepSelfie       Step = "selfie"
	StepLiveness     Step = "liveness"
	StepProducts     Step = "products"
	StepReview       Step = "review"
	StepComplete     Step = "complete"
)

// stepOrder is the only legal progression; transitions never move backward.
var stepOrder = []Step{
	StepGreeting,
	StepPersonalInfo,
	StepIDScan,
	StepSelfie,
	StepLiveness,
	StepProducts,
	StepReview,
	StepComplete,
}

// Index returns the step's position in the sequence, or -1 for an unknown
// step.
func (s Step) Index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the following step, or false at the terminal step.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i == len(stepOrder)-1 {
		return s, false
	}
	return stepOrder[i+1], true
}

// Steps returns the full ordered sequence.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// TriggerTable maps each step to the phrases whose presence in a final
// assistant utterance advances the flow to the next step. Matching is
// case-insensitive substring containment.
type TriggerTable map[Step][]string

// DefaultTriggers returns the stock phrase lists. Step progression is
// inferred from model-generated natural language, so this is a heuristic;
// explicit UI transitions remain the authoritative override.
func DefaultTriggers() TriggerTable {
	return TriggerTable{
		StepGreeting:     {"full name", "your name", "date of birth"},
		StepPersonalInfo: {"identity card", "hold your", "nic", "passport"},
		StepIDScan:       {"selfie", "look at the camera", "photograph"},
		StepSelfie:       {"blink", "liveness", "turn your head"},
		StepLiveness:     {"recommend", "product", "account type"},
		StepProducts:     {"review", "summary", "confirm"},
		StepReview:       {"congratulations", "reference number", "submitted"},
	}
}

// StepDetector advances the kiosk step based on final assistant utterances.
type StepDetector struct {
	triggers TriggerTable
}

// NewStepDetector creates a detector. A nil table uses DefaultTriggers.
func NewStepDetector(triggers TriggerTable) *StepDetector {
	if triggers == nil {
		triggers = DefaultTriggers()
	}
	return &StepDetector{triggers: triggers}
}

// Detect returns the next step when the utterance contains one of the
// current step's trigger phrases, advancing exactly one step forward. It is
// a pure function: no phrase ever moves backward or skips a step, and an
// utterance with no trigger leaves the step unchanged.
func (d *StepDetector) Detect(current Step, utterance string) (Step, bool) {
	next, ok := current.Next()
	if !ok {
		return current, false
	}
	lower := strings.ToLower(utterance)
	for _, phrase := range d.triggers[current] {
		if strings.Contains(lower, phrase) {
			return next, true
		}
	}
	return current, false
}
