package generator

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Кодировка для моделей, которых tiktoken не знает (gemini, локальные модели ollama)
const fallbackEncoding = "cl100k_base"

var encodings sync.Map // model -> *tiktoken.Tiktoken

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	if tke, ok := encodings.Load(model); ok {
		return tke.(*tiktoken.Tiktoken), nil
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	encodings.Store(model, tke)
	return tke, nil
}

// estimateTokens - примерный подсчет токенов, когда API не вернул usage.
// Без доступного токенизатора считает четыре байта на токен.
func estimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	tke, err := encodingFor(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(tke.Encode(text, nil, nil))
}

// estimateUsage заполняет UsageInfo по тексту запроса и ответа.
func estimateUsage(model, prompt, completion string) UsageInfo {
	p := estimateTokens(model, prompt)
	c := estimateTokens(model, completion)
	return UsageInfo{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c, Estimated: true}
}
