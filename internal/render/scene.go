package render

import (
	"image"
	"image/color"
	"math"

	"github.com/meiziya0402-source/PPT/internal/models"
)

// Логический размер холста (16:9). Реальный размер = логический * Scale.
const (
	BaseWidth  = 960
	BaseHeight = 540
)

// ExportScale - множитель для снимков, идущих в архив.
const ExportScale = 2.0

// State - что показывает сцена.
type State string

const (
	StateContent     State = "content"
	StatePlaceholder State = "placeholder" // нет фонового изображения
	StateGenerating  State = "generating"
)

// Options - параметры раскладки.
type Options struct {
	Scale         float64
	HasBackground bool
	Generating    bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Rect - прямоугольник в логических координатах.
type Rect struct {
	X, Y, W, H float64
}

// Pixels переводит прямоугольник в пиксели холста с учетом масштаба.
func (r Rect) Pixels(scale float64) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*scale)),
		int(math.Round(r.Y*scale)),
		int(math.Round((r.X+r.W)*scale)),
		int(math.Round((r.Y+r.H)*scale)),
	)
}

type NodeKind int

const (
	NodeFill NodeKind = iota
	NodeGradient
	NodeBorder
	NodeText
	NodeRing
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// GradientDir - направление градиента: цвет From у начала, To у конца.
type GradientDir int

const (
	GradientToRight GradientDir = iota
	GradientToLeft
	GradientToBottom
)

// TextStyle описывает отрисовку текстового узла. Size в логических пикселях.
type TextStyle struct {
	Size       float64
	Bold       bool
	Align      Align
	Color      color.NRGBA
	LineHeight float64
	Multiline  bool
	Top        bool // прижать к верху вместо вертикального центрирования
}

// Binding связывает текстовый узел с полем слайда.
type Binding struct {
	Ref         models.FieldRef
	Multiline   bool
	Placeholder string
}

// Node - элемент визуального дерева.
type Node struct {
	Kind        NodeKind
	Role        string
	Rect        Rect
	Color       color.NRGBA
	To          color.NRGBA
	Dir         GradientDir
	Width       float64 // толщина рамки или кольца
	Text        string
	Style       TextStyle
	Placeholder bool
	Binding     *Binding
}

// Scene - результат раскладки одного слайда.
type Scene struct {
	SlideID string
	Layout  models.Layout
	Side    Side
	State   State
	Scale   float64
	Nodes   []Node
}

// Size возвращает размер холста в пикселях.
func (s *Scene) Size() image.Point {
	return image.Pt(int(math.Round(BaseWidth*s.Scale)), int(math.Round(BaseHeight*s.Scale)))
}

// Count считает узлы с указанной ролью.
func (s *Scene) Count(role string) int {
	n := 0
	for _, node := range s.Nodes {
		if node.Role == role {
			n++
		}
	}
	return n
}

// Region - редактируемая область, как ее видит клиент.
type Region struct {
	Ref           string          `json:"field"`
	Rect          image.Rectangle `json:"-"`
	X             int             `json:"x"`
	Y             int             `json:"y"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	Multiline     bool            `json:"multiline"`
	Placeholder   string          `json:"placeholder"`
	Text          string          `json:"text"`
	IsPlaceholder bool            `json:"isPlaceholder"`
}

// Regions возвращает редактируемые области сцены в пикселях.
// Сцены заглушки и генерации областей не содержат.
func (s *Scene) Regions() []Region {
	var out []Region
	for _, node := range s.Nodes {
		if node.Binding == nil {
			continue
		}
		r := node.Rect.Pixels(s.Scale)
		out = append(out, Region{
			Ref:           node.Binding.Ref.String(),
			Rect:          r,
			X:             r.Min.X,
			Y:             r.Min.Y,
			Width:         r.Dx(),
			Height:        r.Dy(),
			Multiline:     node.Binding.Multiline,
			Placeholder:   node.Binding.Placeholder,
			Text:          node.Text,
			IsPlaceholder: node.Placeholder,
		})
	}
	return out
}
