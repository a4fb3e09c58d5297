package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Field - имя редактируемого поля слайда.
type Field string

const (
	FieldTitle      Field = "title"
	FieldSubtitle   Field = "subtitle"
	FieldFooter     Field = "footer"
	FieldThemeColor Field = "themeColor"
	FieldBodyText   Field = "bodyText"
	FieldBigValue   Field = "bigValue"
	FieldBullet     Field = "bulletPoints"
	FieldGridTitle  Field = "gridItems.title"
	FieldGridDesc   Field = "gridItems.desc"
)

// IsArray сообщает, адресует ли поле элемент массива.
func (f Field) IsArray() bool {
	return f == FieldBullet || f == FieldGridTitle || f == FieldGridDesc
}

// FieldRef адресует скалярное поле или один элемент массива.
type FieldRef struct {
	Field Field
	Index int
}

// Scalar - ссылка на скалярное поле.
func Scalar(f Field) FieldRef {
	return FieldRef{Field: f}
}

// Element - ссылка на элемент массива.
func Element(f Field, index int) FieldRef {
	return FieldRef{Field: f, Index: index}
}

// String возвращает каноническую запись: "title", "bulletPoints.2", "gridItems.1.desc".
func (r FieldRef) String() string {
	switch r.Field {
	case FieldBullet:
		return fmt.Sprintf("bulletPoints.%d", r.Index)
	case FieldGridTitle:
		return fmt.Sprintf("gridItems.%d.title", r.Index)
	case FieldGridDesc:
		return fmt.Sprintf("gridItems.%d.desc", r.Index)
	default:
		return string(r.Field)
	}
}

// ParseFieldRef разбирает запись, созданную FieldRef.String.
func ParseFieldRef(s string) (FieldRef, error) {
	parts := strings.Split(s, ".")
	switch {
	case len(parts) == 1:
		f := Field(parts[0])
		switch f {
		case FieldTitle, FieldSubtitle, FieldFooter, FieldThemeColor, FieldBodyText, FieldBigValue:
			return Scalar(f), nil
		}
	case len(parts) == 2 && parts[0] == "bulletPoints":
		idx, err := parseIndex(parts[1])
		if err != nil {
			return FieldRef{}, err
		}
		return Element(FieldBullet, idx), nil
	case len(parts) == 3 && parts[0] == "gridItems":
		idx, err := parseIndex(parts[1])
		if err != nil {
			return FieldRef{}, err
		}
		switch parts[2] {
		case "title":
			return Element(FieldGridTitle, idx), nil
		case "desc":
			return Element(FieldGridDesc, idx), nil
		}
	}
	return FieldRef{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: bad index %q", ErrIndexOutOfRange, s)
	}
	return idx, nil
}

// Get читает значение поля. Для неприменимых полей возвращает ErrFieldNotApplicable.
func (s Slide) Get(ref FieldRef) (string, error) {
	switch ref.Field {
	case FieldTitle:
		return s.Title, nil
	case FieldSubtitle:
		return s.Subtitle, nil
	case FieldFooter:
		return s.Footer, nil
	case FieldThemeColor:
		return s.ThemeColor, nil
	}

	switch c := s.Content.(type) {
	case SplitContent:
		if ref.Field == FieldBodyText {
			return c.BodyText, nil
		}
	case MetricContent:
		if ref.Field == FieldBigValue {
			return c.BigValue, nil
		}
	case ListContent:
		if ref.Field == FieldBullet {
			if ref.Index >= len(c.BulletPoints) {
				return "", fmt.Errorf("%w: %s", ErrIndexOutOfRange, ref)
			}
			return c.BulletPoints[ref.Index], nil
		}
	case GridContent:
		if ref.Field == FieldGridTitle || ref.Field == FieldGridDesc {
			if ref.Index >= len(c.Items) {
				return "", fmt.Errorf("%w: %s", ErrIndexOutOfRange, ref)
			}
			if ref.Field == FieldGridTitle {
				return c.Items[ref.Index].Title, nil
			}
			return c.Items[ref.Index].Desc, nil
		}
	}
	return "", fieldError(s, ref)
}

// WithField возвращает копию слайда, в которой изменено ровно одно поле (или один элемент массива).
// Исходный слайд не меняется.
func WithField(s Slide, ref FieldRef, value string) (Slide, error) {
	out := s.Clone()

	switch ref.Field {
	case FieldTitle:
		out.Title = value
		return out, nil
	case FieldSubtitle:
		out.Subtitle = value
		return out, nil
	case FieldFooter:
		out.Footer = value
		return out, nil
	case FieldThemeColor:
		out.ThemeColor = value
		return out, nil
	}

	switch c := out.Content.(type) {
	case SplitContent:
		if ref.Field == FieldBodyText {
			c.BodyText = value
			out.Content = c
			return out, nil
		}
	case MetricContent:
		if ref.Field == FieldBigValue {
			c.BigValue = value
			out.Content = c
			return out, nil
		}
	case ListContent:
		if ref.Field == FieldBullet {
			if ref.Index >= len(c.BulletPoints) {
				return s, fmt.Errorf("%w: %s", ErrIndexOutOfRange, ref)
			}
			c.BulletPoints[ref.Index] = value
			out.Content = c
			return out, nil
		}
	case GridContent:
		if ref.Field == FieldGridTitle || ref.Field == FieldGridDesc {
			if ref.Index >= len(c.Items) {
				return s, fmt.Errorf("%w: %s", ErrIndexOutOfRange, ref)
			}
			if ref.Field == FieldGridTitle {
				c.Items[ref.Index].Title = value
			} else {
				c.Items[ref.Index].Desc = value
			}
			out.Content = c
			return out, nil
		}
	}
	return s, fieldError(s, ref)
}

func fieldError(s Slide, ref FieldRef) error {
	known := []Field{FieldBodyText, FieldBigValue, FieldBullet, FieldGridTitle, FieldGridDesc}
	if !slices.Contains(known, ref.Field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, ref.Field)
	}
	return fmt.Errorf("%w: %s on %s slide", ErrFieldNotApplicable, ref, s.Type)
}
