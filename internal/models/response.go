package models

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Коды ошибок API
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeUnsupportedMedia = "unsupported_media"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeTooManyRequests  = "too_many_requests"
	ErrCodeInternal         = "internal_error"
)
