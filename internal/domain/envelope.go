package domain

// ErrorKind is the stable error category reported to callers.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation_error"
	KindUnknownTool        ErrorKind = "unknown_tool"
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	KindRateLimitExceeded  ErrorKind = "rate_limit_exceeded"
	KindTransientFailure   ErrorKind = "transient_failure"
	KindFatalFailure       ErrorKind = "fatal_failure"
	KindInternal           ErrorKind = "internal_error"
)

// CallError is the error half of an Envelope.
type CallError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// Envelope is the only shape the dispatcher ever returns.
// Exactly one of Data and Error is set.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *CallError `json:"error,omitempty"`
}

// OK wraps a normalized payload in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope with the given kind and message.
func Fail(kind ErrorKind, msg string, retryable bool) Envelope {
	return Envelope{Success: false, Error: &CallError{Kind: kind, Message: msg, Retryable: retryable}}
}
