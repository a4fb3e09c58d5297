package generator

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	deckPromptFile   = "deck_prompt.md"
	userPromptMarker = "{{USER_PROMPT}}"
	emptyUserPrompt  = "None"
)

//go:embed prompts/*.md
var embeddedPrompts embed.FS

// PromptTemplate - шаблон промта генерации колоды.
type PromptTemplate struct {
	text string
}

// LoadPromptTemplate читает шаблон из dir, если он там есть, иначе берет встроенный.
func LoadPromptTemplate(dir string, logger *zap.Logger) (*PromptTemplate, error) {
	if dir != "" {
		path := filepath.Join(dir, deckPromptFile)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			logger.Info("Loaded deck prompt override", zap.String("path", path))
			return newPromptTemplate(string(data))
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("Deck prompt override not found, using embedded", zap.String("path", path))
		default:
			return nil, fmt.Errorf("read prompt %s: %w", path, err)
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + deckPromptFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded prompt: %w", err)
	}
	return newPromptTemplate(string(data))
}

func newPromptTemplate(text string) (*PromptTemplate, error) {
	if !strings.Contains(text, userPromptMarker) {
		return nil, fmt.Errorf("prompt template has no %s placeholder", userPromptMarker)
	}
	return &PromptTemplate{text: text}, nil
}

// Render подставляет подсказку пользователя. Пустая подсказка заменяется на "None".
func (p *PromptTemplate) Render(userPrompt string) string {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		userPrompt = emptyUserPrompt
	}
	return strings.ReplaceAll(p.text, userPromptMarker, userPrompt)
}
