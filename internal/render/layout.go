package render

import (
	"fmt"
	"image/color"

	"github.com/meiziya0402-source/PPT/internal/models"
)

// MaxGridCards - сетка всегда рисует не больше трех карточек.
const MaxGridCards = 3

// Тексты заглушек
const (
	placeholderNoBackground = "等待背景图片..."
	placeholderGenerating   = "AI 正在撰写文案..."
	placeholderEmptyList    = "暂无列表项"
)

var (
	white      = color.NRGBA{255, 255, 255, 255}
	neutral300 = color.NRGBA{212, 212, 212, 255}
	neutral600 = color.NRGBA{82, 82, 82, 255}
	neutral800 = color.NRGBA{38, 38, 38, 255}
	neutral900 = color.NRGBA{23, 23, 23, 255}
)

func alpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A) * a)
	return c
}

var black = color.NRGBA{0, 0, 0, 255}

// Layout раскладывает слайд в визуальное дерево. Чистая функция: фон и флаг генерации приходят в opts.
func Layout(slide models.Slide, opts Options) *Scene {
	scene := &Scene{
		SlideID: slide.ID,
		Layout:  SelectRenderer(slide.Type),
		Scale:   opts.scale(),
		State:   StateContent,
	}

	b := &builder{scene: scene, slide: slide, theme: ParseHexColor(slide.ThemeColor)}

	switch {
	case !opts.HasBackground:
		scene.State = StatePlaceholder
		b.placeholder()
	case opts.Generating:
		scene.State = StateGenerating
	default:
		switch scene.Layout {
		case models.LayoutList:
			b.list()
		case models.LayoutSplit:
			scene.Side = ImageSide(slide.Type)
			b.split(scene.Side)
		case models.LayoutMetric:
			b.metric()
		case models.LayoutGrid:
			b.grid()
		default:
			b.centered()
		}
	}

	if opts.Generating {
		scene.State = StateGenerating
		b.generatingOverlay()
	}
	return scene
}

type builder struct {
	scene *Scene
	slide models.Slide
	theme color.NRGBA
}

func (b *builder) add(n Node) {
	b.scene.Nodes = append(b.scene.Nodes, n)
}

func (b *builder) fill(role string, r Rect, c color.NRGBA) {
	b.add(Node{Kind: NodeFill, Role: role, Rect: r, Color: c})
}

func (b *builder) gradient(role string, r Rect, from, to color.NRGBA, dir GradientDir) {
	b.add(Node{Kind: NodeGradient, Role: role, Rect: r, Color: from, To: to, Dir: dir})
}

func (b *builder) label(role string, r Rect, text string, style TextStyle) {
	b.add(Node{Kind: NodeText, Role: role, Rect: r, Text: text, Style: style})
}

// field добавляет текстовый узел, привязанный к полю. Пустое значение показывается заглушкой.
func (b *builder) field(role string, r Rect, ref models.FieldRef, value, placeholder string, style TextStyle) {
	n := Node{
		Kind:    NodeText,
		Role:    role,
		Rect:    r,
		Text:    value,
		Style:   style,
		Binding: &Binding{Ref: ref, Multiline: style.Multiline, Placeholder: placeholder},
	}
	if value == "" {
		n.Text = placeholder
		n.Placeholder = true
		n.Style.Color = alpha(white, 0.5)
	}
	b.add(n)
}

func (b *builder) placeholder() {
	b.fill("placeholder", Rect{0, 0, BaseWidth, BaseHeight}, neutral800)
	b.label("placeholder-text", Rect{0, 250, BaseWidth, 40}, placeholderNoBackground,
		TextStyle{Size: 16, Align: AlignCenter, Color: neutral600})
}

func (b *builder) generatingOverlay() {
	b.fill("overlay", Rect{0, 0, BaseWidth, BaseHeight}, alpha(black, 0.6))
	b.add(Node{Kind: NodeRing, Role: "spinner", Rect: Rect{462, 222, 36, 36}, Color: alpha(white, 0.2), To: white, Width: 4})
	b.label("overlay-text", Rect{0, 272, BaseWidth, 24}, placeholderGenerating,
		TextStyle{Size: 12, Align: AlignCenter, Color: white})
}

// centered - обложка и финальный слайд.
func (b *builder) centered() {
	s := b.slide
	b.fill("veil", Rect{0, 0, BaseWidth, BaseHeight}, alpha(black, 0.4))
	b.fill("accent", Rect{444, 150, 72, 3}, b.theme)
	b.field("title", Rect{80, 176, 800, 130}, models.Scalar(models.FieldTitle), s.Title, "标题",
		TextStyle{Size: 54, Bold: true, Align: AlignCenter, Color: white, LineHeight: 1.2})
	b.field("subtitle", Rect{80, 318, 800, 40}, models.Scalar(models.FieldSubtitle), s.Subtitle, "副标题",
		TextStyle{Size: 20, Align: AlignCenter, Color: alpha(white, 0.9)})
	b.field("footer", Rect{80, 476, 800, 24}, models.Scalar(models.FieldFooter), s.Footer, "页脚",
		TextStyle{Size: 12, Align: AlignCenter, Color: alpha(white, 0.6)})
}

// list - оглавление и список: заголовок слева, нумерованные пункты справа.
func (b *builder) list() {
	s := b.slide
	b.gradient("veil", Rect{0, 0, BaseWidth, BaseHeight}, alpha(black, 0.8), alpha(black, 0), GradientToRight)
	b.field("title", Rect{48, 170, 272, 130}, models.Scalar(models.FieldTitle), s.Title, "目录",
		TextStyle{Size: 40, Bold: true, Color: white, LineHeight: 1.2})
	b.field("subtitle", Rect{48, 308, 272, 48}, models.Scalar(models.FieldSubtitle), s.Subtitle, "描述",
		TextStyle{Size: 16, Color: alpha(white, 0.6)})
	b.fill("divider", Rect{336, 48, 1, 444}, alpha(white, 0.2))

	bullets := s.BulletPoints()
	if len(bullets) == 0 {
		b.label("empty-list", Rect{384, 250, 528, 40}, placeholderEmptyList,
			TextStyle{Size: 18, Color: alpha(white, 0.5)})
		return
	}

	const rowHeight = 56.0
	rows := float64(len(bullets))
	top := (BaseHeight - rows*rowHeight) / 2
	if top < 32 {
		top = 32
	}
	for i, item := range bullets {
		y := top + float64(i)*rowHeight
		b.label("numeral", Rect{384, y, 48, rowHeight}, fmt.Sprintf("0%d", i+1),
			TextStyle{Size: 22, Bold: true, Color: alpha(b.theme, 0.5)})
		b.field("bullet", Rect{440, y, 472, rowHeight}, models.Element(models.FieldBullet, i), item, "列表项",
			TextStyle{Size: 24, Color: white})
	}
}

// split - сплошная панель с текстом с одной стороны, открытое изображение с другой.
func (b *builder) split(side Side) {
	s := b.slide
	const panelW = BaseWidth * 5 / 12
	panelX := 0.0
	fadeX, fadeDir := float64(panelW), GradientToRight
	if side == SideLeft {
		panelX = BaseWidth - panelW
		fadeX, fadeDir = panelX-280, GradientToLeft
	}

	b.gradient("fade", Rect{fadeX, 0, 280, BaseHeight}, alpha(neutral900, 0.9), alpha(neutral900, 0), fadeDir)
	b.fill("panel", Rect{panelX, 0, panelW, BaseHeight}, alpha(neutral900, 0.95))

	x := panelX + 42
	w := float64(panelW - 84)
	b.field("footer", Rect{x, 140, w, 18}, models.Scalar(models.FieldFooter), s.Footer, "SECTION",
		TextStyle{Size: 10, Color: alpha(white, 0.4)})
	b.field("title", Rect{x, 168, w, 104}, models.Scalar(models.FieldTitle), s.Title, "标题",
		TextStyle{Size: 36, Color: white, LineHeight: 1.2})
	b.fill("divider", Rect{x, 284, 36, 2}, b.theme)

	b.field("body", Rect{x, 308, w, 190}, models.Scalar(models.FieldBodyText), s.DisplayBodyText(), "在此输入段落内容...",
		TextStyle{Size: 15, Color: neutral300, LineHeight: 1.6, Multiline: true, Top: true})
}

// metric - крупное число по центру.
func (b *builder) metric() {
	s := b.slide
	b.fill("veil", Rect{0, 0, BaseWidth, BaseHeight}, alpha(black, 0.6))
	b.field("title", Rect{80, 110, 800, 30}, models.Scalar(models.FieldTitle), s.Title, "METRIC",
		TextStyle{Size: 18, Align: AlignCenter, Color: alpha(white, 0.8)})

	value := s.BigValue()
	n := Node{
		Kind:    NodeText,
		Role:    "big-value",
		Rect:    Rect{40, 160, 880, 190},
		Text:    value,
		Style:   TextStyle{Size: 140, Bold: true, Align: AlignCenter, Color: white, LineHeight: 1},
		Binding: &Binding{Ref: models.Scalar(models.FieldBigValue), Placeholder: "00"},
	}
	if value == "" {
		// "00" рисуется как обычное значение, а не приглушенной заглушкой
		n.Text = "00"
		n.Placeholder = true
	}
	b.add(n)

	b.field("subtitle", Rect{130, 378, 700, 80}, models.Scalar(models.FieldSubtitle), s.Subtitle, "数据描述",
		TextStyle{Size: 24, Align: AlignCenter, Color: alpha(white, 0.9), LineHeight: 1.3})
}

// grid - заголовок и до трех карточек.
func (b *builder) grid() {
	s := b.slide
	b.gradient("veil", Rect{0, 0, BaseWidth, BaseHeight}, alpha(black, 0.7), alpha(black, 0.4), GradientToBottom)
	b.fill("accent", Rect{48, 48, 4, 66}, b.theme)
	b.field("title", Rect{68, 48, 820, 40}, models.Scalar(models.FieldTitle), s.Title, "标题",
		TextStyle{Size: 30, Color: white})
	b.field("subtitle", Rect{68, 92, 820, 24}, models.Scalar(models.FieldSubtitle), s.Subtitle, "副标题",
		TextStyle{Size: 16, Color: alpha(white, 0.6)})

	items := s.GridItems()
	if len(items) > MaxGridCards {
		items = items[:MaxGridCards]
	}

	const (
		top   = 150.0
		gap   = 24.0
		cardW = (BaseWidth - 96 - 2*gap) / 3
		cardH = 330.0
	)
	for i, item := range items {
		x := 48 + float64(i)*(cardW+gap)
		b.fill("card", Rect{x, top, cardW, cardH}, alpha(white, 0.1))
		b.add(Node{Kind: NodeBorder, Role: "card-border", Rect: Rect{x, top, cardW, cardH}, Color: alpha(white, 0.1), Width: 1})
		b.label("numeral", Rect{x + 24, top + 24, cardW - 48, 36}, fmt.Sprintf("0%d.", i+1),
			TextStyle{Size: 26, Color: b.theme})
		b.field("card-title", Rect{x + 24, top + 70, cardW - 48, 52}, models.Element(models.FieldGridTitle, i), item.Title, "卡片标题",
			TextStyle{Size: 18, Bold: true, Color: white, LineHeight: 1.3})
		b.field("card-desc", Rect{x + 24, top + 130, cardW - 48, 176}, models.Element(models.FieldGridDesc, i), item.Desc, "卡片描述",
			TextStyle{Size: 12, Color: neutral300, LineHeight: 1.6, Top: true})
	}
}
