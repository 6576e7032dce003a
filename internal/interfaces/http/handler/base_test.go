package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/interfaces/http/dto"
	"github.com/erp/payables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func handleErrorResponse(t *testing.T, err error) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(middleware.RequestIDKey, "req-42")

	var h BaseHandler
	h.HandleError(c, err)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandleError_ValidationError(t *testing.T) {
	w, resp := handleErrorResponse(t, finance.NewValidationError("count", "count must not be negative"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "count", resp.Error.Details[0].Field)
}

func TestHandleError_PartialFailure(t *testing.T) {
	plan := &finance.GroupPlan{ID: uuid.New(), Kind: finance.PlanCreateRecurrences}
	err := fmt.Errorf("create recurrences: %w", &finance.PartialFailureError{
		Plan:      plan,
		Completed: []finance.GroupStep{{Index: 0}},
		Pending:   []finance.GroupStep{{Index: 1}, {Index: 2}},
		Cause:     errors.New("connection reset"),
	})

	w, resp := handleErrorResponse(t, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodePartialFailure, resp.Error.Code)
	assert.Equal(t, plan.ID.String(), resp.Error.PlanID)
	assert.Equal(t, 1, resp.Error.Completed)
	assert.Equal(t, 2, resp.Error.Pending)
}

func TestHandleError_PreconditionViolation(t *testing.T) {
	paid := uuid.New()
	w, resp := handleErrorResponse(t, &finance.PreconditionViolation{
		Reason:   "paid installments cannot be removed",
		EntryIDs: []uuid.UUID{paid},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodePrecondition, resp.Error.Code)
	assert.Equal(t, "paid installments cannot be removed", resp.Error.Message)
	assert.Equal(t, []string{paid.String()}, resp.Error.EntryIDs)
}

func TestHandleError_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"invalid state", shared.NewDomainError("INVALID_STATE", "cancelled"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"launch not found", shared.NewDomainError("LAUNCH_NOT_FOUND", "gone"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := handleErrorResponse(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var h BaseHandler
	h.HandleError(c, nil)

	assert.Zero(t, w.Body.Len())
}

func TestGetRequestID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(middleware.RequestIDKey, "from-header")
	assert.Equal(t, "from-header", getRequestID(c))

	c.Set(middleware.RequestIDKey, "from-context")
	assert.Equal(t, "from-context", getRequestID(c))
}
