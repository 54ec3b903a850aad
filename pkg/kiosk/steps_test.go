package kiosk

import "testing"

func TestStepOrder(t *testing.T) {
	steps := Steps()
	if len(steps) != 8 {
		t.Fatalf("got %d steps", len(steps))
	}
	if steps[0] != StepGreeting || steps[len(steps)-1] != StepComplete {
		t.Errorf("sequence endpoints wrong: %v", steps)
	}
	for i, s := range steps {
		if s.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", s, s.Index(), i)
		}
	}
	if Step("nonsense").Index() != -1 {
		t.Error("unknown step should have index -1")
	}
}

func TestStepNext(t *testing.T) {
	next, ok := StepGreeting.Next()
	if !ok || next != StepPersonalInfo {
		t.Errorf("greeting.Next() = %v, %v", next, ok)
	}
	if _, ok := StepComplete.Next(); ok {
		t.Error("complete is terminal")
	}
}

func TestDetect_TriggersAdvanceOneStep(t *testing.T) {
	d := NewStepDetector(nil)

	cases := []struct {
		current   Step
		utterance string
		want      Step
	}{
		{StepGreeting, "Welcome! May I have your full name please?", StepPersonalInfo},
		{StepGreeting, "Could you tell me your date of birth?", StepPersonalInfo},
		{StepPersonalInfo, "Please hold your NIC up to the camera.", StepIDScan},
		{StepIDScan, "Great, now let's take a selfie.", StepSelfie},
		{StepSelfie, "Please blink twice for the liveness check.", StepLiveness},
		{StepLiveness, "Based on your profile, I recommend these products.", StepProducts},
		{StepProducts, "Here is a summary of your application for review.", StepReview},
		{StepReview, "Congratulations! Your application has been submitted.", StepComplete},
	}
	for _, tc := range cases {
		got, changed := d.Detect(tc.current, tc.utterance)
		if !changed || got != tc.want {
			t.Errorf("Detect(%s, %q) = %s, %v; want %s", tc.current, tc.utterance, got, changed, tc.want)
		}
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	d := NewStepDetector(nil)
	got, changed := d.Detect(StepGreeting, "WHAT IS YOUR FULL NAME?")
	if !changed || got != StepPersonalInfo {
		t.Errorf("Detect = %s, %v", got, changed)
	}
}

func TestDetect_NoTriggerNoChange(t *testing.T) {
	d := NewStepDetector(nil)
	got, changed := d.Detect(StepGreeting, "The weather in Colombo is lovely today.")
	if changed || got != StepGreeting {
		t.Errorf("Detect = %s, %v; want greeting, false", got, changed)
	}
}

// A later step's trigger phrase must not fire early; each step only
// listens for its own phrases.
func TestDetect_NeverSkipsSteps(t *testing.T) {
	d := NewStepDetector(nil)
	got, changed := d.Detect(StepGreeting, "Congratulations, your application was submitted!")
	if changed {
		t.Errorf("greeting advanced to %s on a review-step phrase", got)
	}
}

func TestDetect_TerminalStepStays(t *testing.T) {
	d := NewStepDetector(nil)
	got, changed := d.Detect(StepComplete, "Congratulations! Submitted. Full name. Blink.")
	if changed || got != StepComplete {
		t.Errorf("Detect past terminal = %s, %v", got, changed)
	}
}

// Exhaustive forward-only check: for every step and every phrase in the
// table, the detected step is either unchanged or exactly one ahead.
func TestDetect_ForwardOnlyProperty(t *testing.T) {
	d := NewStepDetector(nil)
	table := DefaultTriggers()
	for _, from := range Steps() {
		for _, phrases := range table {
			for _, phrase := range phrases {
				got, changed := d.Detect(from, "... "+phrase+" ...")
				if got.Index() < from.Index() {
					t.Fatalf("moved backward: %s -> %s on %q", from, got, phrase)
				}
				if changed && got.Index() != from.Index()+1 {
					t.Fatalf("skipped steps: %s -> %s on %q", from, got, phrase)
				}
			}
		}
	}
}

func TestDetect_CustomTriggers(t *testing.T) {
	d := NewStepDetector(TriggerTable{StepGreeting: {"ayubowan"}})
	if _, changed := d.Detect(StepGreeting, "your full name"); changed {
		t.Error("default phrase should not fire with a custom table")
	}
	got, changed := d.Detect(StepGreeting, "Ayubowan! Welcome.")
	if !changed || got != StepPersonalInfo {
		t.Errorf("Detect = %s, %v", got, changed)
	}
}
