package render

import (
	"image/color"
	"strconv"
	"strings"
)

// DefaultThemeColor - акцентный цвет по умолчанию.
const DefaultThemeColor = "#60A5FA"

var defaultTheme = color.NRGBA{0x60, 0xA5, 0xFA, 0xFF}

// ParseHexColor разбирает "#RGB" или "#RRGGBB". Некорректное значение дает цвет по умолчанию.
func ParseHexColor(s string) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return defaultTheme
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return defaultTheme
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
