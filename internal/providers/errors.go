package providers

import "fmt"

// TransportError means the endpoint call itself failed: a non-success
// HTTP status or a network-level failure. Fatal for the session; never
// retried.
type TransportError struct {
	StatusCode int    // 0 when the request never completed
	Body       string // response body, when available
	Err        error  // underlying network error, when any
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("endpoint call failed: %v", e.Err)
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the endpoint replied with a body we could not
// decode. Fatal for the session.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed endpoint reply: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
