package deck

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"strconv"
	"sync"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"go.uber.org/zap"
)

// DefaultFooterFormat - подпись сгенерированных слайдов, %d заменяется номером страницы с 1.
const DefaultFooterFormat = "2024 Year End - Page %d"

// ContentGenerator - внешний генератор содержимого колоды по изображению и подсказке.
type ContentGenerator interface {
	Generate(ctx context.Context, image []byte, mimeType, prompt string) (*models.GeneratedDeck, error)
}

// Presenter выводит слайд на поверхность и сообщает о завершении отрисовки.
type Presenter interface {
	Present(slide models.Slide, bg *models.Background, generating bool) *render.Pending
}

// Exporter собирает снятые кадры в архив.
type Exporter interface {
	Add(position int, slideType models.SlideType, frame image.Image)
	Bundle(ctx context.Context) ([]byte, error)
	Discard()
}

// Workflow - какой из длительных процессов сейчас идет.
type Workflow string

const (
	WorkflowIdle       Workflow = "idle"
	WorkflowGenerating Workflow = "generating"
	WorkflowExporting  Workflow = "exporting"
)

// Options - зависимости и настройки колоды.
type Options struct {
	Topic        string // тема websocket рассылки, обычно id сессии
	FooterFormat string
	Generator    ContentGenerator
	Notifier     Notifier
	Logger       *zap.Logger
}

// Deck - состояние одной редактируемой колоды. Методы безопасны для конкурентного вызова.
type Deck struct {
	mu         sync.Mutex
	slides     []models.Slide
	selectedID string
	background *models.Background
	workflow   Workflow
	prompt     string
	nextID     int

	editMu  sync.Mutex
	regions map[string]*Region

	topic        string
	footerFormat string
	generator    ContentGenerator
	notifier     Notifier
	logger       *zap.Logger
}

// New создает колоду из трех стартовых слайдов, выбран первый.
func New(opts Options) *Deck {
	if opts.FooterFormat == "" {
		opts.FooterFormat = DefaultFooterFormat
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	slides := seedSlides(render.DefaultThemeColor)
	return &Deck{
		slides:       slides,
		selectedID:   slides[0].ID,
		workflow:     WorkflowIdle,
		nextID:       len(slides) + 1,
		regions:      make(map[string]*Region),
		topic:        opts.Topic,
		footerFormat: opts.FooterFormat,
		generator:    opts.Generator,
		notifier:     opts.Notifier,
		logger:       opts.Logger.Named("Deck").With(zap.String("topic", opts.Topic)),
	}
}

func (d *Deck) publish(messageType string, payload interface{}) {
	d.notifier.Broadcast(messageType, d.topic, payload)
}

// SetBackgroundImage сохраняет фон колоды. Все слайды рисуются с ним. nil игнорируется.
func (d *Deck) SetBackgroundImage(bg *models.Background) {
	if bg == nil {
		return
	}
	d.mu.Lock()
	d.background = bg
	d.mu.Unlock()

	ev := BackgroundEvent{MimeType: bg.MimeType, Hash: bg.Hash}
	if bg.Image != nil {
		ev.Width, ev.Height = bg.Image.Bounds().Dx(), bg.Image.Bounds().Dy()
	}
	d.logger.Info("Background image set", zap.String("mime", bg.MimeType), zap.Int("bytes", len(bg.Data)))
	d.publish(EventBackground, ev)
}

// Background возвращает фон колоды или nil.
func (d *Deck) Background() *models.Background {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.background
}

// SlideBackground возвращает фон, с которым рисуется слайд. Он всегда совпадает с фоном колоды.
func (d *Deck) SlideBackground(id string) (*models.Background, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOf(id) < 0 {
		return nil, ErrSlideNotFound
	}
	return d.background, nil
}

func (d *Deck) indexOf(id string) int {
	return slices.IndexFunc(d.slides, func(s models.Slide) bool { return s.ID == id })
}

// SelectSlide выбирает слайд. Неизвестный id состояние не меняет.
func (d *Deck) SelectSlide(id string) error {
	d.mu.Lock()
	if d.indexOf(id) < 0 {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	d.selectedID = id
	d.mu.Unlock()

	d.publish(EventSelection, SelectionEvent{SelectedID: id})
	return nil
}

// Selected возвращает выбранный слайд. Если выбор указывает в пустоту, берется первый слайд.
func (d *Deck) Selected() (models.Slide, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexOf(d.selectedID); i >= 0 {
		return d.slides[i].Clone(), true
	}
	if len(d.slides) > 0 {
		return d.slides[0].Clone(), true
	}
	return models.Slide{}, false
}

// Slide возвращает копию слайда по id.
func (d *Deck) Slide(id string) (models.Slide, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return models.Slide{}, fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	return d.slides[i].Clone(), nil
}

// Slides возвращает копии всех слайдов по порядку.
func (d *Deck) Slides() []models.Slide {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cloneSlides()
}

func (d *Deck) cloneSlides() []models.Slide {
	out := make([]models.Slide, len(d.slides))
	for i, s := range d.slides {
		out[i] = s.Clone()
	}
	return out
}

// UpdateSlideField меняет одно поле одного слайда. Неизвестный id и неприменимое поле
// возвращают ошибку, колода при этом не меняется.
func (d *Deck) UpdateSlideField(id string, ref models.FieldRef, value string) error {
	d.mu.Lock()
	i := d.indexOf(id)
	if i < 0 {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	updated, err := models.WithField(d.slides[i], ref, value)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.slides[i] = updated
	d.mu.Unlock()

	d.publish(EventSlideUpdated, SlideUpdatedEvent{Slide: updated.Clone(), Field: ref.String()})
	return nil
}

// Workflow возвращает текущий длительный процесс.
func (d *Deck) Workflow() Workflow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.workflow
}

// Generating сообщает, показывается ли сейчас оверлей генерации.
func (d *Deck) Generating() bool {
	return d.Workflow() == WorkflowGenerating
}

// acquire занимает флаг длительного процесса. Вызывается под d.mu.
func (d *Deck) acquire(w Workflow) error {
	if d.workflow != WorkflowIdle {
		return fmt.Errorf("%w: %s", ErrBusy, d.workflow)
	}
	d.workflow = w
	return nil
}

func (d *Deck) release(w Workflow) {
	d.mu.Lock()
	d.workflow = WorkflowIdle
	d.mu.Unlock()
	d.publish(EventGenerating, GeneratingEvent{Generating: false, Workflow: string(w)})
}

// GenerateResult - итог генерации.
type GenerateResult struct {
	Fallback bool
	Notice   string
}

// GenerateDeck заменяет колоду результатом генератора.
// Сбой генератора не является ошибкой: подставляется резервная колода и отправляется уведомление.
func (d *Deck) GenerateDeck(ctx context.Context, prompt string) (GenerateResult, error) {
	d.mu.Lock()
	bg := d.background
	if bg == nil {
		d.mu.Unlock()
		return GenerateResult{}, ErrNoBackground
	}
	if err := d.acquire(WorkflowGenerating); err != nil {
		d.mu.Unlock()
		return GenerateResult{}, err
	}
	d.prompt = prompt
	d.mu.Unlock()

	d.publish(EventGenerating, GeneratingEvent{Generating: true, Workflow: string(WorkflowGenerating)})
	defer d.release(WorkflowGenerating)

	log := d.logger.With(zap.String("workflow", string(WorkflowGenerating)))
	log.Info("Generating deck", zap.Int("promptLength", len(prompt)))

	var (
		result *models.GeneratedDeck
		err    = ErrEmptyResult
	)
	if d.generator != nil {
		result, err = d.generator.Generate(ctx, bg.Data, bg.MimeType, prompt)
		if err == nil && (result == nil || len(result.Slides) == 0) {
			err = ErrEmptyResult
		}
	}
	if errors.Is(err, context.Canceled) {
		log.Warn("Generation canceled, deck left untouched")
		return GenerateResult{}, err
	}

	var res GenerateResult
	if err != nil {
		log.Warn("Generation failed, using fallback deck", zap.Error(err))
		result, err = FallbackDeck()
		if err != nil {
			log.Error("Fallback deck is broken", zap.Error(err))
			return GenerateResult{}, err
		}
		res = GenerateResult{Fallback: true, Notice: NoticeGenerationFallback}
	}

	d.mu.Lock()
	d.slides = d.buildSlides(result)
	d.selectedID = d.slides[0].ID
	ev := ReplacedEvent{Slides: d.cloneSlides(), SelectedID: d.selectedID, Fallback: res.Fallback}
	d.mu.Unlock()

	d.resetRegions()
	log.Info("Deck replaced", zap.Int("slides", len(ev.Slides)), zap.Bool("fallback", res.Fallback))
	d.publish(EventReplaced, ev)
	if res.Fallback {
		d.publish(EventNotice, NoticeEvent{Level: NoticeWarning, Message: res.Notice})
	}
	return res, nil
}

// buildSlides строит слайды из результата генерации. Вызывается под d.mu.
// Идентификаторы берутся из счетчика колоды и не переиспользуются.
func (d *Deck) buildSlides(gen *models.GeneratedDeck) []models.Slide {
	theme := gen.ThemeColor
	if theme == "" {
		theme = render.DefaultThemeColor
	}
	out := make([]models.Slide, 0, len(gen.Slides))
	for i, rec := range gen.Slides {
		rec.Type = models.ParseSlideType(string(rec.Type))
		s := rec.ToSlide()
		s.ID = strconv.Itoa(d.nextID)
		d.nextID++
		s.ThemeColor = theme
		s.Footer = fmt.Sprintf(d.footerFormat, i+1)
		out = append(out, s)
	}
	return out
}

// ExportAll по очереди выводит каждый слайд на поверхность, дожидается отрисовки и отдает кадр в архив.
// При любой ошибке кадры отбрасываются. Выбор слайда восстанавливается в любом случае.
func (d *Deck) ExportAll(ctx context.Context, presenter Presenter, exporter Exporter) ([]byte, error) {
	d.mu.Lock()
	if len(d.slides) == 0 {
		d.mu.Unlock()
		return nil, ErrEmptyDeck
	}
	if err := d.acquire(WorkflowExporting); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	original := d.selectedID
	ids := make([]string, len(d.slides))
	for i, s := range d.slides {
		ids[i] = s.ID
	}
	d.mu.Unlock()

	d.publish(EventGenerating, GeneratingEvent{Generating: true, Workflow: string(WorkflowExporting)})
	defer d.release(WorkflowExporting)
	defer d.restoreSelection(original)

	log := d.logger.With(zap.String("workflow", string(WorkflowExporting)))
	log.Info("Exporting deck", zap.Int("slides", len(ids)))

	data, err := d.captureAll(ctx, ids, presenter, exporter)
	if err != nil {
		exporter.Discard()
		log.Error("Export failed", zap.Error(err))
		d.publish(EventNotice, NoticeEvent{Level: NoticeError, Message: NoticeExportFailed})
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	log.Info("Deck exported", zap.Int("bytes", len(data)))
	return data, nil
}

func (d *Deck) captureAll(ctx context.Context, ids []string, presenter Presenter, exporter Exporter) ([]byte, error) {
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.SelectSlide(id); err != nil {
			return nil, err
		}
		slide, err := d.Slide(id)
		if err != nil {
			return nil, err
		}
		frame, err := presenter.Present(slide, d.Background(), false).Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture slide %s: %w", id, err)
		}
		exporter.Add(i+1, slide.Type, frame)
	}
	return exporter.Bundle(ctx)
}

func (d *Deck) restoreSelection(id string) {
	d.mu.Lock()
	if d.indexOf(id) >= 0 {
		d.selectedID = id
	}
	selected := d.selectedID
	d.mu.Unlock()
	d.publish(EventSelection, SelectionEvent{SelectedID: selected})
}

// Snapshot - неизменяемая копия состояния колоды.
type Snapshot struct {
	Slides        []models.Slide `json:"slides"`
	SelectedID    string         `json:"selectedId"`
	HasBackground bool           `json:"hasBackground"`
	Generating    bool           `json:"generating"`
	Workflow      Workflow       `json:"workflow"`
	Prompt        string         `json:"prompt"`
}

func (d *Deck) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Slides:        d.cloneSlides(),
		SelectedID:    d.selectedID,
		HasBackground: d.background != nil,
		Generating:    d.workflow != WorkflowIdle,
		Workflow:      d.workflow,
		Prompt:        d.prompt,
	}
}

// SetPrompt запоминает последнюю подсказку пользователя.
func (d *Deck) SetPrompt(prompt string) {
	d.mu.Lock()
	d.prompt = prompt
	d.mu.Unlock()
}

func (d *Deck) Prompt() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prompt
}
