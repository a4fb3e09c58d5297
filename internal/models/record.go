package models

import (
	"encoding/json"
	"slices"
)

// SlideRecord - плоская запись слайда, как ее видят клиент API, генератор и резервная колода.
// Поля, не относящиеся к шаблону слайда, при преобразовании в Slide отбрасываются.
type SlideRecord struct {
	ID           string     `json:"id,omitempty" yaml:"id,omitempty"`
	Type         SlideType  `json:"type" yaml:"type" validate:"required"`
	Title        string     `json:"title" yaml:"title"`
	Subtitle     string     `json:"subtitle" yaml:"subtitle"`
	Footer       string     `json:"footer,omitempty" yaml:"footer,omitempty"`
	ThemeColor   string     `json:"themeColor,omitempty" yaml:"themeColor,omitempty"`
	BodyText     *string    `json:"bodyText,omitempty" yaml:"bodyText,omitempty"`
	BulletPoints []string   `json:"bulletPoints,omitempty" yaml:"bulletPoints,omitempty"`
	BigValue     *string    `json:"bigValue,omitempty" yaml:"bigValue,omitempty"`
	GridItems    []GridItem `json:"gridItems,omitempty" yaml:"gridItems,omitempty"`
}

// GeneratedDeck - результат генерации: цвет темы и упорядоченные слайды.
type GeneratedDeck struct {
	ThemeColor string        `json:"themeColor" yaml:"themeColor" validate:"required,hexcolor"`
	Slides     []SlideRecord `json:"slides" yaml:"slides" validate:"required,min=1,dive"`
}

// ToSlide строит слайд с вариантом содержимого, соответствующим типу.
func (r SlideRecord) ToSlide() Slide {
	s := NewSlide(r.ID, r.Type)
	s.Title = r.Title
	s.Subtitle = r.Subtitle
	s.Footer = r.Footer
	s.ThemeColor = r.ThemeColor

	switch s.Layout() {
	case LayoutList:
		s.Content = ListContent{BulletPoints: slices.Clone(r.BulletPoints)}
	case LayoutSplit:
		if r.BodyText != nil {
			s.Content = SplitContent{BodyText: *r.BodyText}
		}
	case LayoutMetric:
		if r.BigValue != nil {
			s.Content = MetricContent{BigValue: *r.BigValue}
		}
	case LayoutGrid:
		s.Content = GridContent{Items: slices.Clone(r.GridItems)}
	}
	return s
}

// Record возвращает плоскую запись слайда. Заполняются только поля его варианта.
func (s Slide) Record() SlideRecord {
	r := SlideRecord{
		ID:         s.ID,
		Type:       s.Type,
		Title:      s.Title,
		Subtitle:   s.Subtitle,
		Footer:     s.Footer,
		ThemeColor: s.ThemeColor,
	}
	switch c := s.Content.(type) {
	case ListContent:
		r.BulletPoints = slices.Clone(c.BulletPoints)
	case SplitContent:
		body := c.BodyText
		r.BodyText = &body
	case MetricContent:
		v := c.BigValue
		r.BigValue = &v
	case GridContent:
		r.GridItems = slices.Clone(c.Items)
	}
	return r
}

// MarshalJSON кодирует слайд плоской записью.
func (s Slide) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}

// UnmarshalJSON декодирует плоскую запись и строит вариант по типу.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var r SlideRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = r.ToSlide()
	return nil
}

// StringPtr - помощник для литералов записей.
func StringPtr(v string) *string {
	return &v
}
