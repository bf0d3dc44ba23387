package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"splitledger/internal/core"
	"splitledger/internal/log"
	"splitledger/internal/services"
)

const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Message string `json:"message"`
}

// errBadRequest marks malformed requests: unparsable JSON or path values.
var errBadRequest = errors.New("bad request")

// errUnauthorized marks a missing or malformed caller identity.
var errUnauthorized = errors.New("missing or invalid X-User-ID header")

// validationError carries field-level problems found before a service call.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// statusFor maps an error from the service layer to a status code.
func statusFor(err error) int {
	var verr *validationError
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest), errors.Is(err, services.ErrSelfSettlement):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotMember), errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyMember), errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &verr), errors.Is(err, services.ErrInvalidInput), isDomainValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isDomainValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrInvalidSplitType,
		core.ErrNoParticipants,
		core.ErrDuplicateParticipant,
		core.ErrInvalidShare,
		core.ErrSplitMismatch,
		core.ErrPercentTotal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError logs err and writes it as a JSON message. Internal errors are
// not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	msg := err.Error()
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		msg = "internal server error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldStatusCode, status, log.FieldError, err)
	}
	writeMessage(w, status, msg)
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", errBadRequest)
	}
	return nil
}
