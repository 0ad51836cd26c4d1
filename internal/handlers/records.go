package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/metrics"
	"github.com/phizone/record-api/internal/middleware"
	"github.com/phizone/record-api/internal/services"
)

// RecordHandler handles play sessions and record submissions
type RecordHandler struct {
	records *services.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// StartPlay issues a play session for the authenticated player
func (h *RecordHandler) StartPlay(c *gin.Context) {
	var req services.StartPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID, err := uuid.Parse(middleware.GetPlayerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	resp, err := h.records.StartPlay(c.Request.Context(), playerID, req)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Submit handles a record submission. The payload authenticates itself via
// the HMAC signature, so no bearer token is required here.
func (h *RecordHandler) Submit(c *gin.Context) {
	var req services.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	resp, err := h.records.Submit(c.Request.Context(), req)
	metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetRecord returns a single record by ID
func (h *RecordHandler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	record, err := h.records.GetRecord(c.Request.Context(), id)
	if err != nil {
		status, body := mapServiceError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, record)
}

// mapServiceError translates service errors to HTTP responses. Validation
// failures are client errors with a distinct kind; missing entities are 404s
// naming what is missing; anything else is a generic server error that does
// not leak persistence detail.
func mapServiceError(err error) (int, gin.H) {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusNotFound, gin.H{"error": err.Error(), "kind": "invalid_token"}
	case errors.Is(err, services.ErrSubmittedTooEarly),
		errors.Is(err, services.ErrChecksumMismatch),
		errors.Is(err, services.ErrSignatureMismatch),
		errors.Is(err, services.ErrJudgmentCountMismatch),
		errors.Is(err, services.ErrMaxComboOutOfRange):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_data"}
	}

	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, gin.H{"error": notFound.Error(), "kind": "not_found", "entity": notFound.Entity}
	}

	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}
