package kiosk

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/banki-go/banki/pkg/vision"
)

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession()
	if s.ID() == "" {
		t.Error("missing session id")
	}
	if !strings.HasPrefix(s.CustomerID(), "BANKI-") {
		t.Errorf("customer id = %q", s.CustomerID())
	}
	if s.Step() != StepGreeting {
		t.Errorf("initial step = %s", s.Step())
	}
	if s.Context().Language != "en" {
		t.Errorf("language = %q", s.Context().Language)
	}
}

func TestSetStep_RefusesBackward(t *testing.T) {
	s := NewSession()
	if err := s.SetStep(StepSelfie); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStep(StepGreeting); !errors.Is(err, ErrBackwardStep) {
		t.Errorf("backward transition error = %v", err)
	}
	if s.Step() != StepSelfie {
		t.Errorf("step after refused transition = %s", s.Step())
	}
	// Same step is a no-op, not an error.
	if err := s.SetStep(StepSelfie); err != nil {
		t.Errorf("same-step set: %v", err)
	}
	if err := s.SetStep(Step("bogus")); err == nil {
		t.Error("unknown step accepted")
	}
}

func TestAdvanceFromUtterance(t *testing.T) {
	s := NewSession()
	step, changed := s.AdvanceFromUtterance("May I have your full name?")
	if !changed || step != StepPersonalInfo {
		t.Errorf("advance = %s, %v", step, changed)
	}
	step, changed = s.AdvanceFromUtterance("Nice weather today.")
	if changed || step != StepPersonalInfo {
		t.Errorf("no-trigger advance = %s, %v", step, changed)
	}
}

func TestSetPersonalField(t *testing.T) {
	s := NewSession()
	for field, value := range map[string]string{
		"fullName":      "Nimal Perera",
		"occupation":    "teacher",
		"monthlyIncome": "85000",
	} {
		if err := s.SetPersonalField(field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	if err := s.SetPersonalField("favoriteColor", "blue"); err == nil {
		t.Error("unknown field accepted")
	}
	p := s.Personal()
	if p.FullName != "Nimal Perera" || p.Occupation != "teacher" {
		t.Errorf("personal = %+v", p)
	}
}

func TestApplyExtractedID_AutoFills(t *testing.T) {
	s := NewSession()
	s.SetPersonalField("phone", "0771234567")
	s.ApplyExtractedID(&vision.ExtractedID{
		DocumentType:    "nic_old",
		DocumentNumber:  "901234567V",
		FullName:        "Nimal Perera",
		DateOfBirth:     "1990-05-03",
		Gender:          "male",
		ConfidenceScore: 0.9,
	})

	p := s.Personal()
	if p.FullName != "Nimal Perera" || p.DateOfBirth != "1990-05-03" {
		t.Errorf("auto-fill missed: %+v", p)
	}
	if p.Phone != "0771234567" {
		t.Error("existing field clobbered")
	}

	ctx := s.Context()
	if !ctx.IDVerified || ctx.IDNumber != "901234567V" {
		t.Errorf("context after extraction = %+v", ctx)
	}
}

func TestToggleProduct(t *testing.T) {
	s := NewSession()
	if !s.ToggleProduct("p1") {
		t.Error("first toggle should select")
	}
	s.ToggleProduct("p2")
	if got := s.SelectedProducts(); len(got) != 2 || got[0] != "p1" {
		t.Errorf("selected = %v", got)
	}
	if s.ToggleProduct("p1") {
		t.Error("second toggle should deselect")
	}
	if got := s.SelectedProducts(); len(got) != 1 || got[0] != "p2" {
		t.Errorf("selected after deselect = %v", got)
	}
	if s.Context().SelectedProductCount != 1 {
		t.Errorf("context count = %d", s.Context().SelectedProductCount)
	}
}

func TestTranscript_AppendOnly(t *testing.T) {
	s := NewSession()
	s.AppendTranscript("assistant", "Welcome to the bank!")
	s.AppendTranscript("user", "Hello")
	s.AppendTranscript("user", "") // dropped

	tr := s.Transcript()
	if len(tr) != 2 {
		t.Fatalf("transcript length = %d", len(tr))
	}
	if tr[0].Role != "assistant" || tr[1].Text != "Hello" {
		t.Errorf("transcript = %+v", tr)
	}

	// Mutating the returned slice must not affect the session.
	tr[0].Text = "tampered"
	if s.Transcript()[0].Text != "Welcome to the bank!" {
		t.Error("transcript copy aliased internal state")
	}
}

func TestContext_JSONShape(t *testing.T) {
	s := NewSession()
	s.SetPersonalField("fullName", "Kamala Silva")
	s.SetFaceMatch(0.91)
	s.SetLivenessPass(true)

	b, err := json.Marshal(s.Context())
	if err != nil {
		t.Fatal(err)
	}
	js := string(b)
	for _, key := range []string{
		`"currentStep":"greeting"`,
		`"customerName":"Kamala Silva"`,
		`"collectedData"`,
		`"livenessPass":true`,
		`"faceMatchScore":0.91`,
		`"selectedProductCount":0`,
	} {
		if !strings.Contains(js, key) {
			t.Errorf("context JSON missing %s: %s", key, js)
		}
	}
}

func TestSnapshot_StatusTracksStep(t *testing.T) {
	s := NewSession()
	s.ApplyExtractedID(&vision.ExtractedID{DocumentNumber: "199012345678", DocumentType: "nic_new", ConfidenceScore: 0.8})
	s.ToggleProduct("p1")

	rec := s.Snapshot()
	if rec.Status != "in_progress" {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.IDNumber != "199012345678" || rec.IDDocumentType != "nic_new" {
		t.Errorf("record id fields = %+v", rec)
	}

	if err := s.SetStep(StepComplete); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Status; got != "submitted" {
		t.Errorf("status at complete = %q", got)
	}
}

func TestSubmit(t *testing.T) {
	s := NewSession()
	s.SetStep(StepReview)

	rec := s.Submit()
	if rec.Status != "submitted" {
		t.Errorf("status = %q", rec.Status)
	}
	if s.Step() != StepComplete {
		t.Errorf("step after submit = %s", s.Step())
	}
}

type memStore struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (m *memStore) SaveApplication(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

func TestSaver_FlushesAndFinalSaves(t *testing.T) {
	s := NewSession()
	store := &memStore{}
	sv := NewSaver(s, store, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sv.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.count() < 2 {
		t.Fatal("saver never ticked")
	}

	before := store.count()
	cancel()
	<-done
	if store.count() != before+1 {
		t.Errorf("expected one final save, got %d -> %d", before, store.count())
	}
}

func TestSaver_SwallowsErrors(t *testing.T) {
	s := NewSession()
	store := &memStore{err: errors.New("db down")}
	sv := NewSaver(s, store, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sv.Run(ctx) // returns without panicking despite every save failing
}
