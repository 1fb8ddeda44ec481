package protocol

// Error codes returned in ResponseFrame.Error.Code.
const (
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrUnauthorized      = "UNAUTHORIZED"
	ErrNotFound          = "NOT_FOUND"
	ErrResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrSessionFailed     = "SESSION_FAILED"
	ErrInternal          = "INTERNAL"
)
