package generator

import (
	"encoding/json"

	"github.com/meiziya0402-source/PPT/internal/models"
)

// DeckSchema возвращает JSON schema ответа модели. Перечисление типов берется из models.AllSlideTypes.
func DeckSchema() json.RawMessage {
	types := make([]string, 0, len(models.AllSlideTypes()))
	for _, t := range models.AllSlideTypes() {
		types = append(types, string(t))
	}
	str := func(desc string) map[string]any {
		m := map[string]any{"type": "string"}
		if desc != "" {
			m["description"] = desc
		}
		return m
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"themeColor": str("A hex color code extracted from the image vibe."),
			"slides": map[string]any{
				"type":        "array",
				"description": "Array of 10 slides for a year-end report.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":     map[string]any{"type": "string", "enum": types},
						"title":    str(""),
						"subtitle": str(""),
						"bodyText": str("Paragraph text for Split/Overview slides."),
						"bulletPoints": map[string]any{
							"type":        "array",
							"items":       str(""),
							"description": "List items for Agenda/List slides.",
						},
						"bigValue": str("A large number or metric (e.g., '1.2亿', '+45%') for Metric slides."),
						"gridItems": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"title": str(""),
									"desc":  str(""),
								},
							},
							"description": "3-4 items for Grid/Team slides.",
						},
					},
					"required": []string{"type", "title", "subtitle"},
				},
			},
		},
		"required": []string{"themeColor", "slides"},
	}

	data, err := json.Marshal(schema)
	if err != nil {
		// схема собрана из литералов, ошибка невозможна
		panic(err)
	}
	return data
}
