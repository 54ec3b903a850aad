package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/banki-go/banki/pkg/gateway/apierror"
	"github.com/banki-go/banki/pkg/gateway/metrics"
	"github.com/banki-go/banki/pkg/nic"
	"github.com/banki-go/banki/pkg/vision"
)

// VerifyIDHandler serves POST /v1/verify/id: extract the document with the
// vision model, then cross-check the NIC number against the printed date
// of birth and gender.
type VerifyIDHandler struct {
	Extractor    IDExtractor
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	MaxBodyBytes int64
}

type verifyIDResponse struct {
	Extracted  *vision.ExtractedID `json:"extracted"`
	NIC        *nic.Record         `json:"nic,omitempty"`
	Consistent bool                `json:"consistent"`
	Issues     []string            `json:"issues,omitempty"`
}

func (h VerifyIDHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"imageBase64"`
		MimeType    string `json:"mimeType"`
	}
	if err := decodeBody(w, r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, r, apierror.Invalid("imageBase64 is required", "imageBase64"))
		return
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, r, apierror.Invalid("imageBase64 is not valid base64", "imageBase64"))
		return
	}

	extracted, err := h.Extractor.ExtractID(r.Context(), image, req.MimeType)
	if err != nil {
		h.record("error")
		h.Logger.Error("id extraction failed", "error", err)
		writeError(w, r, err)
		return
	}

	resp := crossCheck(extracted)
	if resp.Consistent && extracted.IsLegitimate {
		h.record("pass")
	} else {
		h.record("fail")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h VerifyIDHandler) record(outcome string) {
	if h.Metrics != nil {
		h.Metrics.RecordVerification("id", outcome)
	}
}

// crossCheck validates the extracted document number against the other
// printed fields. Only NIC numbers encode a birth date and gender; other
// document types pass through with the model's own verdict.
func crossCheck(extracted *vision.ExtractedID) verifyIDResponse {
	resp := verifyIDResponse{Extracted: extracted, Consistent: true}
	resp.Issues = append(resp.Issues, extracted.Issues...)

	rec, ok := nic.Parse(extracted.DocumentNumber)
	if !ok {
		if extracted.DocumentType == "nic_old" || extracted.DocumentType == "nic_new" {
			resp.Consistent = false
			resp.Issues = append(resp.Issues, "document number is not a valid NIC")
		}
		return resp
	}
	resp.NIC = &rec

	if !rec.Valid {
		resp.Consistent = false
		resp.Issues = append(resp.Issues, "NIC day-of-year out of range")
		return resp
	}
	if extracted.DateOfBirth != "" && extracted.DateOfBirth != rec.DateOfBirth.Format("2006-01-02") {
		resp.Consistent = false
		resp.Issues = append(resp.Issues, "printed date of birth does not match NIC number")
	}
	if extracted.Gender != "" && !strings.EqualFold(extracted.Gender, string(rec.Gender)) {
		resp.Consistent = false
		resp.Issues = append(resp.Issues, "printed gender does not match NIC number")
	}
	return resp
}

// VerifyFaceHandler serves POST /v1/verify/face.
type VerifyFaceHandler struct {
	Face         FaceMatcher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	MaxBodyBytes int64
}

func (h VerifyFaceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDImage string `json:"id_image"`
		Selfie  string `json:"selfie"`
	}
	if err := decodeBody(w, r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IDImage == "" || req.Selfie == "" {
		writeError(w, r, apierror.Invalid("id_image and selfie are required", ""))
		return
	}

	result, err := h.Face.Match(r.Context(), req.IDImage, req.Selfie)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordVerification("face", "error")
		}
		h.Logger.Warn("face match failed", "error", err)
		// The sidecar being down must not strand the kiosk; report the
		// failure as a non-match the UI can retry or escalate.
		writeJSON(w, http.StatusOK, map[string]any{
			"match": false,
			"score": 0.0,
			"error": "face service unavailable",
		})
		return
	}

	if h.Metrics != nil {
		outcome := "fail"
		if result.Match {
			outcome = "pass"
		}
		h.Metrics.RecordVerification("face", outcome)
	}
	writeJSON(w, http.StatusOK, result)
}
