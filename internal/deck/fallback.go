package deck

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/meiziya0402-source/PPT/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

var (
	fallbackOnce sync.Once
	fallbackDeck models.GeneratedDeck
	fallbackErr  error
)

// FallbackDeck возвращает фиксированную десятислайдовую колоду. Каждый вызов отдает независимую копию.
func FallbackDeck() (*models.GeneratedDeck, error) {
	fallbackOnce.Do(func() {
		if err := yaml.Unmarshal(fallbackYAML, &fallbackDeck); err != nil {
			fallbackErr = fmt.Errorf("parse fallback deck: %w", err)
		}
	})
	if fallbackErr != nil {
		return nil, fallbackErr
	}

	out := &models.GeneratedDeck{ThemeColor: fallbackDeck.ThemeColor}
	for _, r := range fallbackDeck.Slides {
		r.BulletPoints = slices.Clone(r.BulletPoints)
		r.GridItems = slices.Clone(r.GridItems)
		out.Slides = append(out.Slides, r)
	}
	return out, nil
}
