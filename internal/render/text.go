package render

import (
	"image"
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const defaultLineHeight = 1.25

// token - единица переноса: слово, одиночная CJK руна или пробел.
type token struct {
	text  string
	space bool
}

// tokenize разбивает абзац на токены. CJK текст переносится по любой руне, остальной по словам.
func tokenize(paragraph string) []token {
	var (
		out  []token
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			out = append(out, token{text: word.String()})
			word.Reset()
		}
	}
	for _, r := range paragraph {
		switch {
		case unicode.IsSpace(r):
			flush()
			out = append(out, token{text: " ", space: true})
		case isCJK(r):
			flush()
			out = append(out, token{text: string(r)})
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return out
}

func (fs *faceSet) measure(s string, size float64, bold bool) fixed.Int26_6 {
	var w fixed.Int26_6
	for _, r := range s {
		adv, ok := fs.face(size, bold, fs.useCJK(r)).GlyphAdvance(r)
		if ok {
			w += adv
		}
	}
	return w
}

// wrap раскладывает текст по строкам не шире maxWidth.
// Одиночные строки теряют переводы строк, многострочные сохраняют их как есть.
func (fs *faceSet) wrap(text string, size float64, bold, multiline bool, maxWidth fixed.Int26_6) []string {
	var paragraphs []string
	if multiline {
		paragraphs = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	} else {
		paragraphs = []string{strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)}
	}

	var lines []string
	for _, p := range paragraphs {
		var (
			line  strings.Builder
			width fixed.Int26_6
		)
		emit := func() {
			lines = append(lines, strings.TrimRight(line.String(), " "))
			line.Reset()
			width = 0
		}
		for _, tok := range tokenize(p) {
			tw := fs.measure(tok.text, size, bold)
			if tok.space && line.Len() == 0 {
				continue
			}
			if line.Len() > 0 && width+tw > maxWidth {
				emit()
				if tok.space {
					continue
				}
			}
			if tw > maxWidth && !tok.space {
				// слово длиннее строки режем по рунам
				for _, r := range tok.text {
					rw := fs.measure(string(r), size, bold)
					if line.Len() > 0 && width+rw > maxWidth {
						emit()
					}
					line.WriteRune(r)
					width += rw
				}
				continue
			}
			line.WriteString(tok.text)
			width += tw
		}
		emit()
	}
	return lines
}

// drawText рисует текстовый узел внутри прямоугольника r (в пикселях).
func (fs *faceSet) drawText(dst *image.RGBA, r image.Rectangle, text string, st TextStyle, scale float64) {
	size := st.Size * scale
	lh := st.LineHeight
	if lh <= 0 {
		lh = defaultLineHeight
	}
	lineH := size * lh

	lines := fs.wrap(text, size, st.Bold, st.Multiline, fixed.I(r.Dx()))
	maxLines := int(math.Floor(float64(r.Dy()) / lineH))
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	blockH := float64(len(lines)) * lineH
	top := float64(r.Min.Y)
	if !st.Top && blockH < float64(r.Dy()) {
		top += (float64(r.Dy()) - blockH) / 2
	}

	metrics := fs.face(size, st.Bold, false).Metrics()
	ascent := float64(metrics.Ascent.Round())
	descent := float64(metrics.Descent.Round())
	// базовая линия по центру строки
	pad := (lineH - ascent - descent) / 2

	src := image.NewUniform(st.Color)
	for i, line := range lines {
		x := fixed.I(r.Min.X)
		if st.Align == AlignCenter {
			x += (fixed.I(r.Dx()) - fs.measure(line, size, st.Bold)) / 2
		}
		y := fixed.I(int(math.Round(top + float64(i)*lineH + pad + ascent)))
		fs.drawLine(dst, src, x, y, line, size, st.Bold)
	}
}

// drawLine рисует строку, переключая начертание между латиницей и CJK.
func (fs *faceSet) drawLine(dst *image.RGBA, src image.Image, x, y fixed.Int26_6, line string, size float64, bold bool) {
	d := &font.Drawer{Dst: dst, Src: src, Dot: fixed.Point26_6{X: x, Y: y}}
	var (
		chunk   strings.Builder
		current font.Face
	)
	for _, r := range line {
		face := fs.face(size, bold, fs.useCJK(r))
		if face != current && chunk.Len() > 0 {
			d.Face = current
			d.DrawString(chunk.String())
			chunk.Reset()
		}
		current = face
		chunk.WriteRune(r)
	}
	if chunk.Len() > 0 {
		d.Face = current
		d.DrawString(chunk.String())
	}
}
