package handler

import (
	"errors"
	"net/http"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/interfaces/http/dto"
	"github.com/erp/payables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDKey)
}

// getTenantID returns the tenant resolved by the tenant middleware
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	tenantID := middleware.GetTenantID(c)
	if tenantID == uuid.Nil {
		return uuid.Nil, errors.New("tenant ID not found in context")
	}
	return tenantID, nil
}

// parseUUIDParam parses a path parameter, writing a 400 response on failure
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// tenant resolves the tenant, writing a 400 response on failure
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "Tenant identification required")
		return uuid.Nil, false
	}
	return tenantID, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindingError sends a 400 response describing a failed bind
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts service errors to HTTP responses.
// Partial failures and precondition violations carry their plan or entry ids.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := getRequestID(c)

	var validationErr *finance.ValidationError
	if errors.As(err, &validationErr) {
		resp := dto.NewValidationErrorResponse(validationErr.Error(), requestID, nil)
		if validationErr.Field != "" {
			resp.Error.Details = []dto.ValidationDetail{{Field: validationErr.Field, Message: validationErr.Message}}
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var partial *finance.PartialFailureError
	if errors.As(err, &partial) {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodePartialFailure, partial.Error(), requestID)
		resp.Error.PlanID = partial.Plan.ID.String()
		resp.Error.Completed = len(partial.Completed)
		resp.Error.Pending = len(partial.Pending)
		c.JSON(dto.GetHTTPStatus(dto.ErrCodePartialFailure), resp)
		return
	}

	var violation *finance.PreconditionViolation
	if errors.As(err, &violation) {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodePrecondition, violation.Reason, requestID)
		resp.Error.EntryIDs = make([]string, len(violation.EntryIDs))
		for i, id := range violation.EntryIDs {
			resp.Error.EntryIDs[i] = id.String()
		}
		c.JSON(dto.GetHTTPStatus(dto.ErrCodePrecondition), resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	// Default to internal error for unknown error types
	h.InternalError(c, "An unexpected error occurred")
}
