// Package handlers implements the gateway's HTTP and WebSocket endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banki-go/banki/pkg/facematch"
	"github.com/banki-go/banki/pkg/gateway/apierror"
	"github.com/banki-go/banki/pkg/gateway/mw"
	"github.com/banki-go/banki/pkg/kiosk"
	"github.com/banki-go/banki/pkg/store"
	"github.com/banki-go/banki/pkg/vision"
)

// ApplicationStore is the slice of the store the application endpoints
// need.
type ApplicationStore interface {
	SaveApplication(ctx context.Context, rec kiosk.Record) error
	GetApplication(ctx context.Context, id string) (*kiosk.Record, error)
	ListApplications(ctx context.Context, status string) ([]kiosk.Record, error)
}

// ProductStore serves the product catalog endpoints.
type ProductStore interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]store.Product, error)
	UpsertProduct(ctx context.Context, p store.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// FlowStore serves the flow designer endpoints.
type FlowStore interface {
	ListFlows(ctx context.Context) ([]store.Flow, error)
	UpsertFlow(ctx context.Context, f store.Flow) error
	DeleteFlow(ctx context.Context, id string) error
}

// SettingsStore serves the settings endpoints.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*store.Settings, error)
	UpdateSettings(ctx context.Context, st store.Settings) error
}

// IDExtractor analyzes identity document images.
type IDExtractor interface {
	ExtractID(ctx context.Context, image []byte, mimeType string) (*vision.ExtractedID, error)
}

// Recommender ranks catalog products for a customer profile.
type Recommender interface {
	RecommendProducts(ctx context.Context, profile map[string]string, catalog []vision.CatalogProduct) ([]vision.Recommendation, error)
}

// FaceMatcher compares an ID photo against a selfie.
type FaceMatcher interface {
	Match(ctx context.Context, idImageB64, selfieB64 string) (*facematch.Result, error)
	Healthy(ctx context.Context) bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apiErr, status := apierror.FromError(err, reqID)
	apierror.WriteJSON(w, apiErr, status)
}

// decodeBody decodes a JSON request body with a size cap and unknown-field
// rejection.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.Invalid(fmt.Sprintf("invalid request body: %v", err), "")
	}
	return nil
}
