package broker

import (
	"errors"
	"fmt"
)

// PublishError reports that the broker could not be reached or rejected the event.
type PublishError struct {
	Driver     string
	Topic      string
	StatusCode int // HTTP status when the REST endpoint answered, 0 otherwise
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("publish to %q via %s failed with status %d: %v", e.Topic, e.Driver, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("publish to %q via %s failed: %v", e.Topic, e.Driver, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsPublishError reports whether err wraps a *PublishError.
func IsPublishError(err error) bool {
	var target *PublishError
	return errors.As(err, &target)
}
