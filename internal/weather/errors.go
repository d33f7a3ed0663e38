package weather

import (
	"fmt"
)

// TransportError is a network-level failure: unreachable host, timeout, open circuit.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a response with a status outside [200,300).
type HTTPStatusError struct {
	Op         string
	StatusCode int
	// Message is the provider's own explanation, when the body carried one.
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: request failed (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: request failed (%d)", e.Op, e.StatusCode)
}

// DecodeError is a response body that does not match the expected schema.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GeocodeError is a failed reverse-geocoding lookup. It never aborts aggregation.
type GeocodeError struct {
	Err error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("reverse geocode: %v", e.Err)
}

func (e *GeocodeError) Unwrap() error { return e.Err }
