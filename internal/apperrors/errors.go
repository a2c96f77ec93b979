// Package apperrors defines the named error kinds shared across the
// MusicCast control plane (spec §7), the Error type that carries them,
// and UpnpError for SOAP faults.
package apperrors

import "fmt"

// Kind identifies one of the named error kinds from spec §7.
type Kind string

const (
	KindTransport         Kind = "TRANSPORT"
	KindInvalidResponse   Kind = "INVALID_RESPONSE"
	KindUpnpError         Kind = "UPNP_ERROR"
	KindPreconditionFail  Kind = "PRECONDITION_FAILED"
	KindAlreadyRegistered Kind = "ALREADY_REGISTERED"
	KindNotFound          Kind = "NOT_FOUND"
	KindArgumentError     Kind = "ARGUMENT_ERROR"

	// YXC semantic error kinds (spec §7), keyed 1:1 to response_code.
	KindInitializing          Kind = "INITIALIZING"
	KindInternalError         Kind = "INTERNAL_ERROR"
	KindInvalidRequest        Kind = "INVALID_REQUEST"
	KindInvalidParameter      Kind = "INVALID_PARAMETER"
	KindGuarded               Kind = "GUARDED"
	KindTimeout               Kind = "TIMEOUT"
	KindFirmwareUpdating      Kind = "FIRMWARE_UPDATING"
	KindAccessError           Kind = "ACCESS_ERROR"
	KindStreamingError        Kind = "STREAMING_ERROR"
	KindWrongUsername         Kind = "WRONG_USERNAME"
	KindWrongPassword         Kind = "WRONG_PASSWORD"
	KindAccountExpired        Kind = "ACCOUNT_EXPIRED"
	KindAccountDisconnected   Kind = "ACCOUNT_DISCONNECTED"
	KindAccountLimitReached   Kind = "ACCOUNT_LIMIT_REACHED"
	KindServerMaintenance     Kind = "SERVER_MAINTENANCE"
	KindInvalidAccount        Kind = "INVALID_ACCOUNT"
	KindLicenseError          Kind = "LICENSE_ERROR"
	KindReadOnlyMode          Kind = "READ_ONLY_MODE"
	KindMaxStations           Kind = "MAX_STATIONS"
	KindAccessDenied          Kind = "ACCESS_DENIED"
	KindUnknownError          Kind = "UNKNOWN_ERROR"
)

// responseCodeKinds maps YXC response_code values to their named kind.
// response_code 0 is success and never reaches this table.
var responseCodeKinds = map[int]Kind{
	1:  KindInitializing,
	2:  KindInternalError,
	3:  KindInvalidRequest,
	4:  KindInvalidParameter,
	5:  KindGuarded,
	6:  KindTimeout,
	7:  KindFirmwareUpdating,
	8:  KindAccessError,
	9:  KindStreamingError,
	10: KindWrongUsername,
	11: KindWrongPassword,
	12: KindAccountExpired,
	13: KindAccountDisconnected,
	14: KindAccountLimitReached,
	15: KindServerMaintenance,
	16: KindInvalidAccount,
	17: KindLicenseError,
	18: KindReadOnlyMode,
	19: KindMaxStations,
	20: KindAccessDenied,
}

// KindForResponseCode deterministically maps a non-zero YXC response_code
// to its named error kind, defaulting to KindUnknownError (spec §8:
// "YXC error mapping ... deterministic per the §7 table").
func KindForResponseCode(code int) Kind {
	if kind, ok := responseCodeKinds[code]; ok {
		return kind
	}
	return KindUnknownError
}

// Error is the error type returned by every fallible operation in this
// module. It carries a Kind plus enough detail for logging without
// leaking response_code semantics to callers who only care about Kind.
type Error struct {
	Kind         Kind
	Message      string
	ResponseCode int // 0 unless Kind came from a YXC response_code
	Cause        error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, apperrors.KindX) style comparisons via a
// sentinel kind-only Error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// FromResponseCode builds an error for a non-zero YXC response_code,
// preserving the code for logging (spec §9: "Preserve on error for
// logging").
func FromResponseCode(code int, action string) *Error {
	return &Error{
		Kind:         KindForResponseCode(code),
		Message:      fmt.Sprintf("%s failed with response_code %d", action, code),
		ResponseCode: code,
	}
}

// UpnpError represents a SOAP fault returned by a UPnP device.
type UpnpError struct {
	Code        string
	Description string
}

func (e *UpnpError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("upnp error %s", e.Code)
	}
	return fmt.Sprintf("upnp error %s: %s", e.Code, e.Description)
}

// Sentinel kind-only errors for use with errors.Is.
var (
	ErrAlreadyRegistered  = New(KindAlreadyRegistered, "device already registered")
	ErrNotFound           = New(KindNotFound, "not found")
	ErrArgumentError      = New(KindArgumentError, "invalid argument")
	ErrPreconditionFailed = New(KindPreconditionFail, "precondition failed")
)
