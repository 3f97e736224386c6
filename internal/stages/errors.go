package stages

import "fmt"

// DecodingError represents a provider response that could not be decoded into the expected structure
type DecodingError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *DecodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: decoding error: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: decoding error: %s", e.Stage, e.Message)
}

func (e *DecodingError) Unwrap() error {
	return e.Cause
}
