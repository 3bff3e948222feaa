package vision

import (
	"errors"
	"fmt"
)

// ProviderError wraps any failure of the vision provider call: transport,
// auth, quota, missing object or unsupported image.
type ProviderError struct {
	Bucket string
	Key    string
	Code   string // provider error code, empty when the failure was not an API error
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vision provider error for s3://%s/%s (%s): %v", e.Bucket, e.Key, e.Code, e.Err)
	}
	return fmt.Sprintf("vision provider error for s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}
