package deck

import "errors"

var (
	ErrSlideNotFound = errors.New("slide not found")
	ErrNoBackground  = errors.New("background image is not set")
	ErrBusy          = errors.New("another generate or export is in progress")
	ErrEmptyDeck     = errors.New("deck has no slides")
	// ErrEmptyResult - генератор вернул колоду без слайдов, это считается сбоем генерации.
	ErrEmptyResult  = errors.New("generator returned no slides")
	ErrExportFailed = errors.New("export failed")
	ErrNotEditing   = errors.New("region is not being edited")
	ErrNoRegion     = errors.New("field is not rendered as an editable region")
)
