package deck

import "github.com/meiziya0402-source/PPT/internal/models"

// Notifier доставляет события колоды подписчикам (websocket хаб).
type Notifier interface {
	Broadcast(messageType, topic string, payload interface{})
}

// Типы событий
const (
	EventBackground   = "deck.background"
	EventSelection    = "deck.selection"
	EventSlideUpdated = "deck.slide_updated"
	EventReplaced     = "deck.replaced"
	EventGenerating   = "deck.generating"
	EventNotice       = "deck.notice"
)

// Уровни уведомлений
const (
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Тексты уведомлений, показываемые пользователю
const (
	NoticeGenerationFallback = "生成失败，已使用默认模板。"
	NoticeExportFailed       = "导出出错"
)

type BackgroundEvent struct {
	MimeType string `json:"mimeType"`
	Hash     string `json:"hash"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type SelectionEvent struct {
	SelectedID string `json:"selectedId"`
}

type SlideUpdatedEvent struct {
	Slide models.Slide `json:"slide"`
	Field string       `json:"field"`
}

type ReplacedEvent struct {
	Slides     []models.Slide `json:"slides"`
	SelectedID string         `json:"selectedId"`
	Fallback   bool           `json:"fallback"`
}

type GeneratingEvent struct {
	Generating bool   `json:"generating"`
	Workflow   string `json:"workflow"`
}

type NoticeEvent struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type noopNotifier struct{}

func (noopNotifier) Broadcast(string, string, interface{}) {}
