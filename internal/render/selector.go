package render

import "github.com/meiziya0402-source/PPT/internal/models"

// Side - сторона, на которой в Split шаблоне остается открытое фоновое изображение.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// SelectRenderer выбирает шаблон по типу слайда. Неизвестный тип рисуется как Centered.
func SelectRenderer(t models.SlideType) models.Layout {
	return models.LayoutOf(t)
}

// ImageSide определяет сторону изображения для Split шаблона. Не хранится в слайде, выводится из типа.
func ImageSide(t models.SlideType) Side {
	if t == models.SlideSplitLeft {
		return SideLeft
	}
	return SideRight
}
