package render

import (
	"fmt"
	"os"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Fonts хранит разобранные шрифты. Разобранные шрифты можно делить между горутинами,
// а font.Face нельзя, поэтому начертания создаются на каждую отрисовку (faceSet).
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
	cjk     *opentype.Font
}

// LoadFonts загружает встроенные Go шрифты и, если указан путь, шрифт с CJK глифами
// (.ttf, .otf или коллекцию .ttc; из коллекции берется первый шрифт).
func LoadFonts(cjkPath string) (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse goregular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gobold: %w", err)
	}
	f := &Fonts{regular: regular, bold: bold}

	if cjkPath == "" {
		return f, nil
	}
	data, err := os.ReadFile(cjkPath)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", cjkPath, err)
	}
	f.cjk, err = parseFontData(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", cjkPath, err)
	}
	return f, nil
}

// HasCJK сообщает, загружен ли шрифт для CJK.
func (f *Fonts) HasCJK() bool {
	return f.cjk != nil
}

func parseFontData(data []byte) (*opentype.Font, error) {
	if fnt, err := opentype.Parse(data); err == nil {
		return fnt, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if coll.NumFonts() == 0 {
		return nil, fmt.Errorf("empty font collection")
	}
	return coll.Font(0)
}

type faceKey struct {
	size float64
	bold bool
	cjk  bool
}

// faceSet - начертания одной отрисовки. Не безопасен для конкурентного использования.
type faceSet struct {
	fonts *Fonts
	faces map[faceKey]font.Face
	buf   sfnt.Buffer
}

func newFaceSet(f *Fonts) *faceSet {
	return &faceSet{fonts: f, faces: make(map[faceKey]font.Face)}
}

func (fs *faceSet) face(size float64, bold, cjk bool) font.Face {
	if cjk && fs.fonts.cjk == nil {
		cjk = false
	}
	key := faceKey{size: size, bold: bold && !cjk, cjk: cjk}
	if face, ok := fs.faces[key]; ok {
		return face
	}

	src := fs.fonts.regular
	switch {
	case key.cjk:
		src = fs.fonts.cjk
	case key.bold:
		src = fs.fonts.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		// при сбое рисуем растровым шрифтом
		return basicfont.Face7x13
	}
	fs.faces[key] = face
	return face
}

// useCJK решает, каким шрифтом рисовать руну.
func (fs *faceSet) useCJK(r rune) bool {
	if fs.fonts.cjk == nil {
		return false
	}
	if isCJK(r) {
		return true
	}
	idx, err := fs.fonts.regular.GlyphIndex(&fs.buf, r)
	return err == nil && idx == 0
}

func (fs *faceSet) close() {
	for _, face := range fs.faces {
		face.Close()
	}
}

func isCJK(r rune) bool {
	switch {
	case unicode.Is(unicode.Han, r),
		unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK пунктуация
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // полноширинные формы
		return true
	}
	return false
}
