package facematch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatch_AppliesThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/match" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["id_image"] == "" || req["selfie"] == "" {
			t.Errorf("missing images in request: %v", req)
		}
		json.NewEncoder(w).Encode(Result{Match: true, Score: 0.80, Message: "ok"})
	}))
	defer srv.Close()

	// Sidecar said match=true at 0.80, but our threshold is stricter.
	c := New(srv.URL, 0.9)
	res, err := c.Match(context.Background(), "aWQ=", "c2VsZmll")
	if err != nil {
		t.Fatal(err)
	}
	if res.Match {
		t.Error("score 0.80 should not match at threshold 0.9")
	}
	if res.Score != 0.80 {
		t.Errorf("score = %f", res.Score)
	}

	c = New(srv.URL, 0.75)
	res, err = c.Match(context.Background(), "aWQ=", "c2VsZmll")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Match {
		t.Error("score 0.80 should match at threshold 0.75")
	}
}

func TestMatch_ServiceUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", DefaultThreshold)
	if _, err := c.Match(context.Background(), "aWQ=", "c2VsZmll"); err == nil {
		t.Fatal("expected error for unreachable service")
	}
}

func TestMatch_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no face found", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.Match(context.Background(), "aWQ=", "c2VsZmll"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !New(srv.URL, 0).Healthy(context.Background()) {
		t.Error("expected healthy")
	}
	if New("http://127.0.0.1:1", 0).Healthy(context.Background()) {
		t.Error("expected unhealthy for unreachable service")
	}
}
