package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/banki-go/banki/pkg/gateway/apierror"
	"github.com/banki-go/banki/pkg/kiosk"
)

// ApplicationsHandler serves the admin application endpoints.
type ApplicationsHandler struct {
	Store        ApplicationStore
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// List handles GET /v1/applications with an optional ?status= filter.
func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", "in_progress", "submitted":
	default:
		writeError(w, r, apierror.Invalid("status must be in_progress or submitted", "status"))
		return
	}

	recs, err := h.Store.ListApplications(r.Context(), status)
	if err != nil {
		h.Logger.Error("list applications", "error", err)
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []kiosk.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Get handles GET /v1/applications/{id}.
func (h ApplicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create handles POST /v1/applications. The kiosk calls this once at
// session start; subsequent state arrives through Update.
func (h ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeBody(w, r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	now := time.Now()
	rec := kiosk.Record{
		ID:               uuid.NewString(),
		CustomerID:       kiosk.NewCustomerID(),
		Status:           "in_progress",
		Step:             kiosk.StepGreeting,
		Language:         req.Language,
		SelectedProducts: []string{},
		Transcript:       []kiosk.TranscriptEntry{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.Store.SaveApplication(r.Context(), rec); err != nil {
		h.Logger.Error("create application", "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// applicationPatch carries partial updates; nil fields are left untouched.
type applicationPatch struct {
	Status           *string                  `json:"status"`
	Step             *string                  `json:"step"`
	Language         *string                  `json:"language"`
	Personal         *kiosk.PersonalInfo      `json:"personal"`
	IDNumber         *string                  `json:"idNumber"`
	IDDocumentType   *string                  `json:"idDocumentType"`
	IDConfidence     *float64                 `json:"idConfidence"`
	LivenessPass     *bool                    `json:"livenessPass"`
	FaceMatchScore   *float64                 `json:"faceMatchScore"`
	SelectedProducts *[]string                `json:"selectedProducts"`
	Transcript       *[]kiosk.TranscriptEntry `json:"transcript"`
}

// Update handles PATCH /v1/applications/{id}.
func (h ApplicationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch applicationPatch
	if err := decodeBody(w, r, h.MaxBodyBytes, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.Store.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if patch.Status != nil {
		if *patch.Status != "in_progress" && *patch.Status != "submitted" {
			writeError(w, r, apierror.Invalid("status must be in_progress or submitted", "status"))
			return
		}
		rec.Status = *patch.Status
	}
	if patch.Step != nil {
		step := kiosk.Step(*patch.Step)
		if step.Index() < 0 {
			writeError(w, r, apierror.Invalid("unknown step", "step"))
			return
		}
		rec.Step = step
	}
	if patch.Language != nil {
		rec.Language = *patch.Language
	}
	if patch.Personal != nil {
		rec.Personal = *patch.Personal
	}
	if patch.IDNumber != nil {
		rec.IDNumber = *patch.IDNumber
	}
	if patch.IDDocumentType != nil {
		rec.IDDocumentType = *patch.IDDocumentType
	}
	if patch.IDConfidence != nil {
		rec.IDConfidence = *patch.IDConfidence
	}
	if patch.LivenessPass != nil {
		rec.LivenessPass = *patch.LivenessPass
	}
	if patch.FaceMatchScore != nil {
		rec.FaceMatchScore = patch.FaceMatchScore
	}
	if patch.SelectedProducts != nil {
		rec.SelectedProducts = *patch.SelectedProducts
	}
	if patch.Transcript != nil {
		rec.Transcript = *patch.Transcript
	}
	rec.UpdatedAt = time.Now()

	if err := h.Store.SaveApplication(r.Context(), *rec); err != nil {
		h.Logger.Error("update application", "id", rec.ID, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
