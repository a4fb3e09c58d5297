package render

import (
	"context"
	"fmt"
	"image"

	"github.com/meiziya0402-source/PPT/internal/models"

	"go.uber.org/zap"
)

// Pending - кадр, который еще рисуется. Done закрывается, когда растеризация завершена.
type Pending struct {
	done  chan struct{}
	frame *image.RGBA
	err   error
}

// NewPending создает незавершенный кадр.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolve завершает кадр. Повторный вызов запрещен.
func (p *Pending) Resolve(frame *image.RGBA, err error) {
	p.frame, p.err = frame, err
	close(p.done)
}

// Done - сигнал завершения отрисовки.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Frame возвращает результат. Вызывать после закрытия Done.
func (p *Pending) Frame() (*image.RGBA, error) {
	select {
	case <-p.done:
		return p.frame, p.err
	default:
		return nil, fmt.Errorf("frame is not rendered yet")
	}
}

// Wait ждет сигнал завершения или отмену контекста.
func (p *Pending) Wait(ctx context.Context) (*image.RGBA, error) {
	select {
	case <-p.done:
		return p.frame, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Surface - поверхность, на которую выводится текущий слайд.
// Кадры рисуются в фоне, результат сообщается через Pending.
type Surface struct {
	renderer *Renderer
	scale    float64
	logger   *zap.Logger
}

// NewSurface создает поверхность с заданным масштабом (ExportScale для архива).
func NewSurface(renderer *Renderer, scale float64, logger *zap.Logger) *Surface {
	if scale <= 0 {
		scale = 1
	}
	return &Surface{renderer: renderer, scale: scale, logger: logger.Named("Surface")}
}

// Present раскладывает и рисует слайд. Вызов не блокируется.
func (s *Surface) Present(slide models.Slide, bg *models.Background, generating bool) *Pending {
	p := NewPending()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic while rendering slide", zap.String("slideID", slide.ID), zap.Any("panic", r))
				p.Resolve(nil, fmt.Errorf("render slide %s: %v", slide.ID, r))
			}
		}()
		scene := Layout(slide, Options{Scale: s.scale, HasBackground: bg != nil, Generating: generating})
		p.Resolve(s.renderer.Rasterize(scene, bg), nil)
	}()
	return p
}

// Scale возвращает масштаб поверхности.
func (s *Surface) Scale() float64 {
	return s.scale
}
