package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// stripFences убирает обертку ```json ... ```, которую модели иногда добавляют вокруг JSON.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// ParseDeck разбирает ответ модели в колоду.
// Некорректный цвет темы заменяется цветом по умолчанию, типы слайдов нормализуются.
func ParseDeck(raw string) (*models.GeneratedDeck, error) {
	var deck models.GeneratedDeck
	if err := json.Unmarshal([]byte(stripFences(raw)), &deck); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	deck.ThemeColor = strings.TrimSpace(deck.ThemeColor)
	if err := validate.Var(deck.ThemeColor, "required,hexcolor"); err != nil {
		deck.ThemeColor = render.DefaultThemeColor
	}
	for i := range deck.Slides {
		deck.Slides[i].Type = models.ParseSlideType(string(deck.Slides[i].Type))
		deck.Slides[i].ID = ""
	}

	if err := validate.Struct(deck); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &deck, nil
}
