// Package http exposes the ledger operations as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"budgetledger/internal/auth"
	"budgetledger/internal/core"
	"budgetledger/internal/log"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ResponseBuilder assembles the {"success", "message", ...} envelope every
// endpoint returns.
type ResponseBuilder struct {
	status int
	fields map[string]any
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		status: http.StatusOK,
		fields: map[string]any{"success": true},
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.status = code
	return b
}

func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	b.fields["message"] = msg
	return b
}

// Field adds a top-level key next to success and message.
func (b *ResponseBuilder) Field(key string, v any) *ResponseBuilder {
	b.fields[key] = v
	return b
}

// Fail marks the response unsuccessful with message.
func (b *ResponseBuilder) Fail(code int, msg string) *ResponseBuilder {
	b.fields["success"] = false
	return b.Status(code).Message(msg)
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	_ = json.NewEncoder(w).Encode(b.fields)
}

// ErrorResponse builds the failure envelope for err and reports whether it
// is a server-side fault.
func ErrorResponse(err error) (resp *ResponseBuilder, internal bool) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return NewResponse().Fail(http.StatusRequestEntityTooLarge, "Request body too large"), false
	case errors.Is(err, errInvalidRequest):
		return NewResponse().Fail(http.StatusBadRequest, "Invalid request data"), false
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken):
		code, msg := auth.Rejection(err)
		return NewResponse().Fail(http.StatusUnauthorized, msg).Field("error", code), false
	case core.IsConflict(err):
		return NewResponse().Fail(http.StatusConflict, err.Error()), false
	case core.IsValidation(err):
		return NewResponse().Fail(http.StatusUnprocessableEntity, err.Error()), false
	case errors.Is(err, core.ErrInvalidPeriod):
		return NewResponse().Fail(http.StatusUnprocessableEntity, "Invalid month"), false
	default:
		return NewResponse().Fail(http.StatusInternalServerError, "Something went wrong. Please try again."), true
	}
}

// writeError logs server faults with the request logger and writes the
// failure envelope.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp, internal := ErrorResponse(err)
	logger := log.FromContext(r.Context())
	if internal {
		errType := log.ErrorTypeInternal
		if core.IsStorage(err) {
			errType = log.ErrorTypeDatabase
		}
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().Operation(op).ErrorType(errType).Err(err)...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.NewFields().Operation(op).Err(err)...)
	}
	resp.Write(w)
}
