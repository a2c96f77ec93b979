package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// errorBody is the JSON shape of every error response this package
// writes: {"kind": "...", "message": "...", "request_id": "..."}.
type errorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes err as a flat errorBody, deriving the HTTP
// status from its apperrors.Kind when err is (or wraps) an
// *apperrors.Error, defaulting to 500 for anything else.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	kind := apperrors.KindInternalError
	message := err.Error()
	if errors.As(err, &appErr) {
		kind = appErr.Kind
		message = appErr.Error()
	}

	_ = WriteJSON(w, statusForKind(kind), errorBody{
		Kind:      string(kind),
		Message:   message,
		RequestID: GetRequestID(r),
	})
}

// statusForKind maps a named error kind (spec §7) to the HTTP status
// this control plane's own HTTP surface should answer with. YXC
// response_code kinds that never surface through this process's HTTP
// API (account/streaming errors, for example) fall through to 502,
// since they mean the device itself rejected an upstream request.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindAlreadyRegistered:
		return http.StatusConflict
	case apperrors.KindArgumentError, apperrors.KindInvalidParameter, apperrors.KindInvalidRequest:
		return http.StatusBadRequest
	case apperrors.KindPreconditionFail, apperrors.KindGuarded:
		return http.StatusPreconditionFailed
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout
	case apperrors.KindTransport, apperrors.KindUpnpError, apperrors.KindInvalidResponse:
		return http.StatusBadGateway
	case apperrors.KindInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
