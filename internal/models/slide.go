package models

import (
	"slices"
	"strings"
)

// SlideType - тип слайда, определяет какой шаблон его рисует.
type SlideType string

const (
	SlideCover      SlideType = "COVER"
	SlideAgenda     SlideType = "AGENDA"
	SlideOverview   SlideType = "OVERVIEW"
	SlideMetric     SlideType = "METRIC"
	SlideGrid3      SlideType = "GRID3"
	SlideSplitLeft  SlideType = "SPLIT_LEFT"
	SlideSplitRight SlideType = "SPLIT_RIGHT"
	SlideTeam       SlideType = "TEAM"
	SlideList       SlideType = "LIST"
	SlideThankYou   SlideType = "THANK_YOU"
)

// AllSlideTypes возвращает закрытый набор известных типов в порядке десятислайдовой структуры отчета.
func AllSlideTypes() []SlideType {
	return []SlideType{
		SlideCover, SlideAgenda, SlideOverview, SlideMetric, SlideGrid3,
		SlideSplitLeft, SlideTeam, SlideSplitRight, SlideList, SlideThankYou,
	}
}

// IsKnown сообщает, входит ли тип в закрытый набор.
func (t SlideType) IsKnown() bool {
	return slices.Contains(AllSlideTypes(), t)
}

// ParseSlideType приводит строку к типу слайда. Регистр и пробелы по краям не важны;
// неизвестное значение сохраняется как есть и рисуется шаблоном Centered.
func ParseSlideType(s string) SlideType {
	t := SlideType(strings.ToUpper(strings.TrimSpace(s)))
	if t.IsKnown() {
		return t
	}
	return SlideType(s)
}

// Layout - вид шаблона (renderer kind). Несколько типов слайдов делят один шаблон.
type Layout string

const (
	LayoutCentered Layout = "centered"
	LayoutList     Layout = "list"
	LayoutSplit    Layout = "split"
	LayoutMetric   Layout = "metric"
	LayoutGrid     Layout = "grid"
)

// LayoutOf - тотальная таблица тип -> шаблон. Неизвестный тип рисуется как Centered.
func LayoutOf(t SlideType) Layout {
	switch t {
	case SlideCover, SlideThankYou:
		return LayoutCentered
	case SlideAgenda, SlideList:
		return LayoutList
	case SlideOverview, SlideSplitLeft, SlideSplitRight:
		return LayoutSplit
	case SlideMetric:
		return LayoutMetric
	case SlideGrid3, SlideTeam:
		return LayoutGrid
	default:
		return LayoutCentered
	}
}

// GridItem - карточка сетки.
type GridItem struct {
	Title string `json:"title" yaml:"title"`
	Desc  string `json:"desc" yaml:"desc"`
}

// Content - содержимое слайда, специфичное для его шаблона.
// Каждый вариант несет только те поля, которые читает соответствующий шаблон.
type Content interface {
	Layout() Layout
	clone() Content
}

type CenteredContent struct{}

type ListContent struct {
	BulletPoints []string
}

type SplitContent struct {
	BodyText string
}

type MetricContent struct {
	BigValue string
}

type GridContent struct {
	Items []GridItem
}

func (CenteredContent) Layout() Layout { return LayoutCentered }
func (ListContent) Layout() Layout     { return LayoutList }
func (SplitContent) Layout() Layout    { return LayoutSplit }
func (MetricContent) Layout() Layout   { return LayoutMetric }
func (GridContent) Layout() Layout     { return LayoutGrid }

func (c CenteredContent) clone() Content { return c }
func (c SplitContent) clone() Content    { return c }
func (c MetricContent) clone() Content   { return c }

func (c ListContent) clone() Content {
	return ListContent{BulletPoints: slices.Clone(c.BulletPoints)}
}

func (c GridContent) clone() Content {
	return GridContent{Items: slices.Clone(c.Items)}
}

// EmptyContent возвращает пустой вариант содержимого для шаблона.
func EmptyContent(l Layout) Content {
	switch l {
	case LayoutList:
		return ListContent{}
	case LayoutSplit:
		return SplitContent{}
	case LayoutMetric:
		return MetricContent{}
	case LayoutGrid:
		return GridContent{}
	default:
		return CenteredContent{}
	}
}

// Slide - один экран колоды.
// Фон слайда хранится на уровне колоды, а не в слайде.
type Slide struct {
	ID         string
	Type       SlideType
	Title      string
	Subtitle   string
	Footer     string
	ThemeColor string
	Content    Content
}

// NewSlide создает слайд с пустым содержимым для его шаблона.
func NewSlide(id string, t SlideType) Slide {
	return Slide{
		ID:      id,
		Type:    t,
		Content: EmptyContent(LayoutOf(t)),
	}
}

// Layout возвращает шаблон слайда.
func (s Slide) Layout() Layout {
	return LayoutOf(s.Type)
}

// Clone возвращает глубокую копию: срезы содержимого не разделяются с исходным слайдом.
func (s Slide) Clone() Slide {
	out := s
	if s.Content == nil {
		out.Content = EmptyContent(s.Layout())
	} else {
		out.Content = s.Content.clone()
	}
	return out
}

// BodyText возвращает текст абзаца для Split слайдов.
func (s Slide) BodyText() string {
	if c, ok := s.Content.(SplitContent); ok {
		return c.BodyText
	}
	return ""
}

// BulletPoints возвращает пункты списка, nil если пунктов нет или слайд не списочный.
func (s Slide) BulletPoints() []string {
	if c, ok := s.Content.(ListContent); ok {
		return c.BulletPoints
	}
	return nil
}

// DisplayBodyText - абзац Split слайда в том виде, в каком его показывает холст:
// пустой bodyText заменяется подзаголовком.
func (s Slide) DisplayBodyText() string {
	if body := s.BodyText(); body != "" {
		return body
	}
	return s.Subtitle
}

func (s Slide) BigValue() string {
	if c, ok := s.Content.(MetricContent); ok {
		return c.BigValue
	}
	return ""
}

func (s Slide) GridItems() []GridItem {
	if c, ok := s.Content.(GridContent); ok {
		return c.Items
	}
	return nil
}
