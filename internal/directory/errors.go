package directory

import "fmt"

// ResolutionError reports that a profile lookup failed or the response
// lacked the provider id required to address the profile. Downstream code
// treats both cases identically.
type ResolutionError struct {
	Username string
	Reason   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %s", e.Username, e.Reason)
}

// DeliveryError reports a failed message or invite send. StatusCode is zero
// when the request never got a response.
type DeliveryError struct {
	Op         string // "message" or "invite"
	StatusCode int
	Reason     string
}

func (e *DeliveryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("send %s failed (status %d): %s", e.Op, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("send %s failed: %s", e.Op, e.Reason)
}
