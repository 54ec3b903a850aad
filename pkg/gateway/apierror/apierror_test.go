package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/banki-go/banki/pkg/store"
	"github.com/banki-go/banki/pkg/vision"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantStatus int
	}{
		{"nil", nil, "", http.StatusOK},
		{"deadline", context.DeadlineExceeded, ErrAPI, http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, ErrAPI, http.StatusRequestTimeout},
		{"not found", fmt.Errorf("load: %w", store.ErrNotFound), ErrNotFound, http.StatusNotFound},
		{"parse", &vision.ParseError{Raw: "oops", Err: errors.New("bad json")}, ErrUpstream, http.StatusBadGateway},
		{"canonical", Invalid("bad image", "id_image"), ErrInvalidRequest, http.StatusBadRequest},
		{"unknown", errors.New("boom"), ErrAPI, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, status := FromError(tc.err, "req_1")
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if tc.err == nil {
				if got != nil {
					t.Fatalf("got = %+v, want nil", got)
				}
				return
			}
			if got.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", got.Type, tc.wantType)
			}
			if got.RequestID != "req_1" {
				t.Fatalf("request id = %q", got.RequestID)
			}
		})
	}
}

func TestFromError_UnknownDoesNotLeak(t *testing.T) {
	got, _ := FromError(errors.New("password=hunter2 leaked"), "req_2")
	if got.Message != "internal error" {
		t.Fatalf("message = %q, internal details leaked", got.Message)
	}
}
