package models

import (
	"encoding/base64"
	"image"
)

// Background - фоновое изображение колоды: исходные байты и декодированная картинка.
// Хранится один раз на колоду, шаблоны читают его по ссылке.
type Background struct {
	Data     []byte
	MimeType string
	Hash     string // sha256 исходных байт, ключ кешей
	Image    image.Image
}

// DataURL возвращает встраиваемую форму изображения (data:<mime>;base64,...).
func (b *Background) DataURL() string {
	return "data:" + b.MimeType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}
