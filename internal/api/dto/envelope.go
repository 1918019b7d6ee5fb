package dto

// DataEnvelope wraps successful responses.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorEnvelope wraps failed responses.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
