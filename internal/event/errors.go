package event

import "errors"

// MalformedEventError reports an inbound notification that does not carry the
// fields the pipeline needs. It indicates a caller contract violation and must
// not be retried.
type MalformedEventError struct {
	Reason string
	Err    error
}

func (e *MalformedEventError) Error() string {
	if e.Err != nil {
		return "malformed event: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed event: " + e.Reason
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

// IsMalformedEvent reports whether err wraps a *MalformedEventError.
func IsMalformedEvent(err error) bool {
	var target *MalformedEventError
	return errors.As(err, &target)
}
