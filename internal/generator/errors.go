package generator

import "errors"

var (
	// ErrAIGenerationFailed - ошибка вызова AI API
	ErrAIGenerationFailed = errors.New("ai generation failed")
	// ErrInvalidResponse - ответ модели не является корректной колодой
	ErrInvalidResponse = errors.New("invalid ai response")
	// ErrGenerationDisabled - AI клиент не настроен
	ErrGenerationDisabled = errors.New("ai generation disabled")
)
