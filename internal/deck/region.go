package deck

import (
	"strings"

	"github.com/meiziya0402-source/PPT/internal/models"
)

// Region - редактируемая область, привязанная к одному полю слайда.
// Чтение и запись идут через аксессоры, сама область значения не хранит.
type Region struct {
	Ref         models.FieldRef
	Multiline   bool
	Placeholder string

	get func() (string, error)
	set func(string) error

	editing bool
	draft   string
}

// NewRegion создает область с заданными аксессорами.
func NewRegion(ref models.FieldRef, multiline bool, placeholder string, get func() (string, error), set func(string) error) *Region {
	return &Region{Ref: ref, Multiline: multiline, Placeholder: placeholder, get: get, set: set}
}

// Display возвращает текст для показа: текущее значение или заглушку, если значение пустое.
func (r *Region) Display() (string, bool) {
	v, err := r.get()
	if err != nil || v == "" {
		return r.Placeholder, true
	}
	return v, false
}

// Begin переводит область в режим редактирования. Черновик начинается с текущего значения.
// Повторный вызов начинает черновик заново.
func (r *Region) Begin() error {
	v, err := r.get()
	if err != nil {
		return err
	}
	r.editing = true
	r.draft = v
	return nil
}

// Input заменяет черновик.
func (r *Region) Input(text string) error {
	if !r.editing {
		return ErrNotEditing
	}
	r.draft = text
	return nil
}

// Blur фиксирует черновик через сеттер и выходит из редактирования.
// Однострочная область заменяет каждый перевод строки пробелом.
func (r *Region) Blur() error {
	if !r.editing {
		return ErrNotEditing
	}
	value := r.draft
	if !r.Multiline {
		value = collapseLineBreaks(value)
	}
	if err := r.set(value); err != nil {
		return err
	}
	r.editing = false
	r.draft = ""
	return nil
}

// Cancel отбрасывает черновик.
func (r *Region) Cancel() {
	r.editing = false
	r.draft = ""
}

func (r *Region) Editing() bool {
	return r.editing
}

func (r *Region) Draft() string {
	return r.draft
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func collapseLineBreaks(s string) string {
	return lineBreaks.Replace(s)
}
