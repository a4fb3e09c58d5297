package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // регистрация декодера
	_ "image/jpeg" // регистрация декодера
	_ "image/png"  // регистрация декодера

	"github.com/meiziya0402-source/PPT/internal/models"

	_ "golang.org/x/image/webp" // регистрация декодера
)

// ErrUnsupportedImage - данные не являются изображением поддерживаемого формата.
var ErrUnsupportedImage = errors.New("unsupported image format")

var mimeByFormat = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// DefaultMaxPixels - предел ширины на высоту для загружаемого фона.
const DefaultMaxPixels = 40_000_000

// DecodeBackground декодирует загруженное изображение (PNG, JPEG, GIF, WebP) с пределом DefaultMaxPixels.
func DecodeBackground(data []byte) (*models.Background, error) {
	return DecodeBackgroundLimit(data, DefaultMaxPixels)
}

// DecodeBackgroundLimit декодирует изображение, не больше maxPixels точек (0 - DefaultMaxPixels).
// Размер читается из заголовка до декодирования, поэтому маленький файл с огромными размерами отклоняется без выделения памяти.
// Исходные байты сохраняются для отправки генератору.
func DecodeBackgroundLimit(data []byte, maxPixels int64) (*models.Background, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnsupportedImage)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	mime, ok := mimeByFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUnsupportedImage)
	}

	sum := sha256.Sum256(data)
	return &models.Background{
		Data:     data,
		MimeType: mime,
		Hash:     hex.EncodeToString(sum[:]),
		Image:    img,
	}, nil
}
