package handlers

import (
	"log/slog"
	"net/http"

	"github.com/banki-go/banki/pkg/gateway/apierror"
	"github.com/banki-go/banki/pkg/vision"
)

// RecommendHandler serves POST /v1/recommendations: rank the active
// product catalog for a customer profile.
type RecommendHandler struct {
	Recommender  Recommender
	Products     ProductStore
	Logger       *slog.Logger
	MaxBodyBytes int64
}

func (h RecommendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile map[string]string `json:"profile"`
	}
	if err := decodeBody(w, r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Profile) == 0 {
		writeError(w, r, apierror.Invalid("profile is required", "profile"))
		return
	}

	products, err := h.Products.ListProducts(r.Context(), true)
	if err != nil {
		h.Logger.Error("list products for recommendation", "error", err)
		writeError(w, r, err)
		return
	}

	catalog := make([]vision.CatalogProduct, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, vision.CatalogProduct{
			ID:               p.ID,
			Name:             p.Name,
			Type:             p.Type,
			Description:      p.Description,
			EligibilityRules: string(p.EligibilityRules),
			Features:         string(p.Features),
		})
	}

	recs, err := h.Recommender.RecommendProducts(r.Context(), req.Profile, catalog)
	if err != nil {
		h.Logger.Error("recommendation failed", "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}
