package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/phizone/record-api/internal/services"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"invalid token", services.ErrInvalidToken, http.StatusNotFound, "invalid_token"},
		{"too early", services.ErrSubmittedTooEarly, http.StatusBadRequest, "invalid_data"},
		{"checksum", services.ErrChecksumMismatch, http.StatusBadRequest, "invalid_data"},
		{"signature", services.ErrSignatureMismatch, http.StatusBadRequest, "invalid_data"},
		{"judgment count", services.ErrJudgmentCountMismatch, http.StatusBadRequest, "invalid_data"},
		{"max combo", services.ErrMaxComboOutOfRange, http.StatusBadRequest, "invalid_data"},
		{"missing chart", &services.NotFoundError{Entity: "chart"}, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("loading: %w", &services.NotFoundError{Entity: "player"}), http.StatusNotFound, "not_found"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := mapServiceError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, body["kind"])
			}
		})
	}
}

func TestMapServiceError_InternalDoesNotLeak(t *testing.T) {
	_, body := mapServiceError(errors.New("pq: relation records does not exist"))
	assert.Equal(t, "internal server error", body["error"])
}

func TestSubmit_RejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewRecordHandler(nil)
	router.POST("/records", h.Submit)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"missing token", `{"hmac":"aGVsbG8="}`},
		{"missing hmac", `{"token":"abc"}`},
		{"negative count", `{"token":"abc","hmac":"aGVsbG8=","perfect":-1}`},
		{"hmac not base64", `{"token":"abc","hmac":"not base64!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetRecord_RejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewRecordHandler(nil)
	router.GET("/records/:id", h.GetRecord)

	req := httptest.NewRequest(http.MethodGet, "/records/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
