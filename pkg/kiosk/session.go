// Package kiosk holds the state of one account-opening session: the
// guided step sequence, the data collected along the way, and the
// conversation transcript. Sessions are safe for concurrent use; the
// voice event loop and HTTP handlers touch them from different
// goroutines.
package kiosk

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banki-go/banki/pkg/vision"
)

// TranscriptEntry is one line of the conversation.
type TranscriptEntry struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// PersonalInfo is the customer data gathered during the flow, either
// spoken, typed, or auto-filled from the scanned document.
type PersonalInfo struct {
	FullName      string `json:"fullName,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	Occupation    string `json:"occupation,omitempty"`
	MonthlyIncome string `json:"monthlyIncome,omitempty"`
}

// ContextSnapshot is the situational context attached to every customer
// message sent to the assistant. Field names are part of the prompt
// contract; the model is instructed to read this shape.
type ContextSnapshot struct {
	CurrentStep          Step         `json:"currentStep"`
	Language             string       `json:"language"`
	CustomerName         string       `json:"customerName,omitempty"`
	CollectedData        PersonalInfo `json:"collectedData"`
	IDVerified           bool         `json:"idVerified"`
	IDNumber             string       `json:"idNumber,omitempty"`
	LivenessPass         bool         `json:"livenessPass"`
	FaceMatchScore       *float64     `json:"faceMatchScore,omitempty"`
	SelectedProductCount int          `json:"selectedProductCount"`
}

// Record is the persistable snapshot of a session, one row per
// application.
type Record struct {
	ID               string             `json:"id"`
	CustomerID       string             `json:"customerId"`
	Status           string             `json:"status"` // in_progress or submitted
	Step             Step               `json:"step"`
	Language         string             `json:"language"`
	Personal         PersonalInfo       `json:"personal"`
	IDNumber         string             `json:"idNumber,omitempty"`
	IDDocumentType   string             `json:"idDocumentType,omitempty"`
	IDConfidence     float64            `json:"idConfidence,omitempty"`
	LivenessPass     bool               `json:"livenessPass"`
	FaceMatchScore   *float64           `json:"faceMatchScore,omitempty"`
	SelectedProducts []string           `json:"selectedProducts"`
	Transcript       []TranscriptEntry  `json:"transcript"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// ErrBackwardStep is returned when a transition would move the flow to an
// earlier step. The sequence only ever advances.
var ErrBackwardStep = fmt.Errorf("kiosk: step transitions cannot move backward")

// Session is one customer's account-opening flow.
type Session struct {
	mu sync.Mutex

	id         string
	customerID string
	step       Step
	language   string

	personal    PersonalInfo
	extracted   *vision.ExtractedID
	idConfirmed bool

	faceMatchScore *float64
	livenessPass   bool

	recommended []vision.Recommendation
	selected    []string

	transcript []TranscriptEntry

	detector  *StepDetector
	logger    *slog.Logger
	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLanguage sets the conversation language code (default "en").
func WithLanguage(lang string) Option {
	return func(s *Session) { s.language = lang }
}

// WithTriggers overrides the step detection phrases.
func WithTriggers(t TriggerTable) Option {
	return func(s *Session) { s.detector = NewStepDetector(t) }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session at the greeting step with a fresh id and
// customer reference.
func NewSession(opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		id:         uuid.NewString(),
		customerID: NewCustomerID(),
		step:       StepGreeting,
		language:   "en",
		detector:   NewStepDetector(nil),
		logger:     slog.Default(),
		createdAt:  now,
		updatedAt:  now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCustomerID generates a human-readable customer reference of the form
// BANKI-<year>-<5 digits>.
func NewCustomerID() string {
	return fmt.Sprintf("BANKI-%d-%05d", time.Now().Year(), rand.Intn(90000)+10000)
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// CustomerID returns the customer-facing reference number.
func (s *Session) CustomerID() string { return s.customerID }

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// SetStep moves the session to the given step. Forward jumps of any size
// are allowed (the UI may skip ahead when the customer completes a stage
// out of band); backward moves are refused.
func (s *Session) SetStep(step Step) error {
	if step.Index() < 0 {
		return fmt.Errorf("kiosk: unknown step %q", step)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if step.Index() < s.step.Index() {
		return ErrBackwardStep
	}
	if step != s.step {
		s.logger.Info("step changed", "session", s.id, "from", s.step, "to", step)
		s.step = step
		s.touch()
	}
	return nil
}

// AdvanceFromUtterance inspects a final assistant utterance and advances
// one step when it contains a trigger phrase for the current step. It
// returns the (possibly unchanged) step and whether a transition happened.
func (s *Session) AdvanceFromUtterance(text string) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := s.detector.Detect(s.step, text)
	if changed {
		s.logger.Info("step advanced", "session", s.id, "from", s.step, "to", next)
		s.step = next
		s.touch()
	}
	return s.step, changed
}

// SetPersonalField updates one collected field by its context name.
// Unknown field names are rejected rather than silently dropped.
func (s *Session) SetPersonalField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case "fullName":
		s.personal.FullName = value
	case "dateOfBirth":
		s.personal.DateOfBirth = value
	case "gender":
		s.personal.Gender = value
	case "phone":
		s.personal.Phone = value
	case "email":
		s.personal.Email = value
	case "address":
		s.personal.Address = value
	case "occupation":
		s.personal.Occupation = value
	case "monthlyIncome":
		s.personal.MonthlyIncome = value
	default:
		return fmt.Errorf("kiosk: unknown personal field %q", field)
	}
	s.touch()
	return nil
}

// Personal returns a copy of the collected personal data.
func (s *Session) Personal() PersonalInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personal
}

// ApplyExtractedID records the document extraction result and auto-fills
// any personal fields it provides, then marks the ID as confirmed. Fields
// the customer already provided are only overwritten when the document
// carries a value.
func (s *Session) ApplyExtractedID(data *vision.ExtractedID) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted = data
	if data.FullName != "" {
		s.personal.FullName = data.FullName
	}
	if data.DateOfBirth != "" {
		s.personal.DateOfBirth = data.DateOfBirth
	}
	if data.Gender != "" {
		s.personal.Gender = data.Gender
	}
	if data.Address != "" {
		s.personal.Address = data.Address
	}
	s.idConfirmed = true
	s.touch()
}

// ExtractedID returns the last document extraction, or nil.
func (s *Session) ExtractedID() *vision.ExtractedID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extracted
}

// SetFaceMatch records the face comparison score.
func (s *Session) SetFaceMatch(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faceMatchScore = &score
	s.touch()
}

// SetLivenessPass records the liveness check outcome.
func (s *Session) SetLivenessPass(pass bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.livenessPass = pass
	s.touch()
}

// SetRecommendations stores the product recommendations shown to the
// customer.
func (s *Session) SetRecommendations(recs []vision.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommended = recs
	s.touch()
}

// Recommendations returns the stored recommendations.
func (s *Session) Recommendations() []vision.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]vision.Recommendation, len(s.recommended))
	copy(out, s.recommended)
	return out
}

// ToggleProduct adds the product to the selection, or removes it when
// already selected. It returns true when the product is selected after
// the call.
func (s *Session) ToggleProduct(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.selected {
		if id == productID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			s.touch()
			return false
		}
	}
	s.selected = append(s.selected, productID)
	s.touch()
	return true
}

// SelectedProducts returns the selected product ids in selection order.
func (s *Session) SelectedProducts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

// AppendTranscript adds one conversation line. The transcript is
// append-only.
func (s *Session) AppendTranscript(role, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, TranscriptEntry{Role: role, Text: text, At: time.Now()})
	s.touch()
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Context builds the snapshot attached to outgoing customer messages.
func (s *Session) Context() ContextSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := ContextSnapshot{
		CurrentStep:          s.step,
		Language:             s.language,
		CustomerName:         s.personal.FullName,
		CollectedData:        s.personal,
		IDVerified:           s.idConfirmed,
		LivenessPass:         s.livenessPass,
		FaceMatchScore:       s.faceMatchScore,
		SelectedProductCount: len(s.selected),
	}
	if s.extracted != nil {
		snap.IDNumber = s.extracted.DocumentNumber
	}
	return snap
}

// Snapshot renders the session as a persistable record. Status is
// "submitted" once the flow reaches the terminal step, "in_progress"
// before that.
func (s *Session) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		ID:               s.id,
		CustomerID:       s.customerID,
		Status:           "in_progress",
		Step:             s.step,
		Language:         s.language,
		Personal:         s.personal,
		LivenessPass:     s.livenessPass,
		FaceMatchScore:   s.faceMatchScore,
		SelectedProducts: append([]string(nil), s.selected...),
		Transcript:       append([]TranscriptEntry(nil), s.transcript...),
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
	if s.step == StepComplete {
		rec.Status = "submitted"
	}
	if s.extracted != nil {
		rec.IDNumber = s.extracted.DocumentNumber
		rec.IDDocumentType = s.extracted.DocumentType
		rec.IDConfidence = s.extracted.ConfidenceScore
	}
	return rec
}

// Submit moves the flow to the terminal step and returns the final record,
// already marked submitted.
func (s *Session) Submit() Record {
	s.mu.Lock()
	s.step = StepComplete
	s.touch()
	s.mu.Unlock()
	return s.Snapshot()
}

// touch bumps the updated-at timestamp; callers hold s.mu.
func (s *Session) touch() { s.updatedAt = time.Now() }
