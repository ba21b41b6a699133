// Package response turns façade results into the uniform HTTP envelope.
package response

import (
	"errors"
	"net/http"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

// Envelope is what a handler writes: an HTTP status and a JSON body.
type Envelope struct {
	Status int
	Body   any
}

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Type    string      `json:"type,omitempty"`
	Message string      `json:"message"`
}

// KindInternal marks failures raised inside the service itself, such as recovered panics.
const KindInternal apperr.Kind = "internal"

// Normalize returns the payload as a 200 envelope, or the classified error envelope when err is set.
func Normalize(payload any, err error) Envelope {
	if err != nil {
		return Error(err)
	}
	return OK(payload)
}

func OK(payload any) Envelope {
	return Envelope{Status: http.StatusOK, Body: payload}
}

// Error builds the failure envelope. Engine-reported failures carry the engine's reason,
// everything else the error message.
func Error(err error) Envelope {
	detail := ErrorDetail{Kind: apperr.KindOf(err), Message: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		detail.Type = e.Type
		if e.Message != "" && e.Err == nil {
			detail.Message = e.Message
		}
	}
	return Envelope{Status: Status(err), Body: ErrorBody{Error: detail}}
}

// Internal is the envelope for unexpected failures.
func Internal(message string) Envelope {
	return Envelope{
		Status: http.StatusInternalServerError,
		Body:   ErrorBody{Error: ErrorDetail{Kind: KindInternal, Message: message}},
	}
}

// Status maps an error kind to its HTTP status. Engine failures are 400 unless the engine
// itself failed with a 5xx, which is reported as a bad gateway.
func Status(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnreachable:
		return http.StatusBadGateway
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	}
	var e *apperr.Error
	if errors.As(err, &e) && e.Status >= 500 {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
