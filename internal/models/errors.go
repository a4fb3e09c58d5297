package models

import "errors"

// Ошибки модели слайда
var (
	ErrUnknownField       = errors.New("unknown slide field")
	ErrFieldNotApplicable = errors.New("field is not applicable to slide type")
	ErrIndexOutOfRange    = errors.New("array index out of range")
)
