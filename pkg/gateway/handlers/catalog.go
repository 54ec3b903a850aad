package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/banki-go/banki/pkg/gateway/apierror"
	"github.com/banki-go/banki/pkg/store"
)

// ProductsHandler serves the product catalog.
type ProductsHandler struct {
	Store        ProductStore
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// List handles GET /v1/products. Kiosks pass ?active=true to hide retired
// products; the admin console lists everything.
func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	products, err := h.Store.ListProducts(r.Context(), activeOnly)
	if err != nil {
		h.Logger.Error("list products", "error", err)
		writeError(w, r, err)
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// Upsert handles POST /v1/products.
func (h ProductsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var p store.Product
	if err := decodeBody(w, r, h.MaxBodyBytes, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Name == "" {
		writeError(w, r, apierror.Invalid("name is required", "name"))
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := h.Store.UpsertProduct(r.Context(), p); err != nil {
		h.Logger.Error("upsert product", "id", p.ID, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /v1/products/{id}.
func (h ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// FlowsHandler serves the conversation flow designer endpoints.
type FlowsHandler struct {
	Store        FlowStore
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// List handles GET /v1/flows.
func (h FlowsHandler) List(w http.ResponseWriter, r *http.Request) {
	flows, err := h.Store.ListFlows(r.Context())
	if err != nil {
		h.Logger.Error("list flows", "error", err)
		writeError(w, r, err)
		return
	}
	if flows == nil {
		flows = []store.Flow{}
	}
	writeJSON(w, http.StatusOK, flows)
}

// Upsert handles POST /v1/flows.
func (h FlowsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var f store.Flow
	if err := decodeBody(w, r, h.MaxBodyBytes, &f); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Name == "" {
		writeError(w, r, apierror.Invalid("name is required", "name"))
		return
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Nodes == nil {
		f.Nodes = []byte("[]")
	}
	if f.Edges == nil {
		f.Edges = []byte("[]")
	}
	if err := h.Store.UpsertFlow(r.Context(), f); err != nil {
		h.Logger.Error("upsert flow", "id", f.ID, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Delete handles DELETE /v1/flows/{id}.
func (h FlowsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFlow(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SettingsHandler serves the singleton settings row.
type SettingsHandler struct {
	Store        SettingsStore
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// Get handles GET /v1/settings.
func (h SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.GetSettings(r.Context())
	if err != nil {
		h.Logger.Error("get settings", "error", err)
		writeError(w, r, err)
		return
	}
	// Never expose the stored API key; report only whether one is set.
	resp := map[string]any{
		"id":                 st.ID,
		"bankName":           st.BankName,
		"geminiKeySet":       st.GeminiAPIKey != "",
		"faceMatchThreshold": st.FaceMatchThreshold,
		"primaryColor":       st.PrimaryColor,
		"updatedAt":          st.UpdatedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /v1/settings.
func (h SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		BankName           *string  `json:"bankName"`
		GeminiAPIKey       *string  `json:"geminiApiKey"`
		FaceMatchThreshold *float64 `json:"faceMatchThreshold"`
		PrimaryColor       *string  `json:"primaryColor"`
	}
	if err := decodeBody(w, r, h.MaxBodyBytes, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	st, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if patch.BankName != nil {
		st.BankName = *patch.BankName
	}
	if patch.GeminiAPIKey != nil {
		st.GeminiAPIKey = *patch.GeminiAPIKey
	}
	if patch.FaceMatchThreshold != nil {
		if *patch.FaceMatchThreshold <= 0 || *patch.FaceMatchThreshold > 1 {
			writeError(w, r, apierror.Invalid("faceMatchThreshold must be in (0,1]", "faceMatchThreshold"))
			return
		}
		st.FaceMatchThreshold = *patch.FaceMatchThreshold
	}
	if patch.PrimaryColor != nil {
		st.PrimaryColor = *patch.PrimaryColor
	}

	if err := h.Store.UpdateSettings(r.Context(), *st); err != nil {
		h.Logger.Error("update settings", "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
