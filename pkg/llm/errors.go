package llm

// ProviderError indicates a transport, auth, or provider-side failure.
// It is recoverable at the caller: session state is never mutated by a
// call that returns one.
type ProviderError struct {
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() (msg string) {
	msg = "provider error: " + e.Cause.Error()
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() (err error) {
	err = e.Cause
	return err
}
