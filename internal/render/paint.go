package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/meiziya0402-source/PPT/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

var (
	rasterizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slide_rasterize_duration_seconds",
		Help:    "Duration of slide rasterization.",
		Buckets: prometheus.DefBuckets,
	}, []string{"layout", "state"})
	backgroundCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slide_background_cache_total",
		Help: "Lookups of scaled backgrounds by result.",
	}, []string{"result"})
)

// Время жизни отмасштабированного фона в кеше
const (
	backgroundCacheTTL     = 10 * time.Minute
	backgroundCacheCleanup = 15 * time.Minute
)

// Renderer растеризует сцены. Безопасен для конкурентного использования.
type Renderer struct {
	fonts  *Fonts
	scaled *gocache.Cache
	logger *zap.Logger
}

// NewRenderer создает растеризатор с кешем отмасштабированных фонов.
func NewRenderer(fonts *Fonts, logger *zap.Logger) *Renderer {
	return &Renderer{
		fonts:  fonts,
		scaled: gocache.New(backgroundCacheTTL, backgroundCacheCleanup),
		logger: logger.Named("Renderer"),
	}
}

// Rasterize рисует сцену поверх фона. bg может быть nil.
func (r *Renderer) Rasterize(scene *Scene, bg *models.Background) *image.RGBA {
	start := time.Now()
	size := scene.Size()
	dst := image.NewRGBA(image.Rectangle{Max: size})

	if bg != nil && bg.Image != nil && scene.State != StatePlaceholder {
		draw.Draw(dst, dst.Bounds(), r.coverBackground(bg, size), image.Point{}, draw.Src)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(neutral900), image.Point{}, draw.Src)
	}

	fs := newFaceSet(r.fonts)
	defer fs.close()

	for _, n := range scene.Nodes {
		rect := n.Rect.Pixels(scene.Scale)
		switch n.Kind {
		case NodeFill:
			fillRect(dst, rect, n.Color)
		case NodeGradient:
			gradientRect(dst, rect, n.Color, n.To, n.Dir)
		case NodeBorder:
			strokeRect(dst, rect, n.Color, int(math.Max(1, math.Round(n.Width*scene.Scale))))
		case NodeRing:
			drawRing(dst, rect, n.Color, n.To, n.Width*scene.Scale)
		case NodeText:
			fs.drawText(dst, rect, n.Text, n.Style, scene.Scale)
		}
	}

	rasterizeDuration.WithLabelValues(string(scene.Layout), string(scene.State)).Observe(time.Since(start).Seconds())
	return dst
}

// coverBackground масштабирует фон до размера холста с обрезкой по центру (object-fit: cover).
func (r *Renderer) coverBackground(bg *models.Background, size image.Point) image.Image {
	key := fmt.Sprintf("%s:%dx%d", bg.Hash, size.X, size.Y)
	if img, ok := r.scaled.Get(key); ok {
		backgroundCacheHits.WithLabelValues("hit").Inc()
		return img.(*image.RGBA)
	}
	backgroundCacheHits.WithLabelValues("miss").Inc()

	out := image.NewRGBA(image.Rectangle{Max: size})
	draw.CatmullRom.Scale(out, out.Bounds(), bg.Image, coverCrop(bg.Image.Bounds(), size), draw.Src, nil)
	r.scaled.Set(key, out, gocache.DefaultExpiration)
	r.logger.Debug("Scaled background cached", zap.String("key", key))
	return out
}

// coverCrop возвращает центральную часть src с пропорциями dst.
func coverCrop(src image.Rectangle, dst image.Point) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	want := float64(dst.X) / float64(dst.Y)
	if sw/sh > want {
		w := sh * want
		x := src.Min.X + int(math.Round((sw-w)/2))
		return image.Rect(x, src.Min.Y, x+int(math.Round(w)), src.Max.Y)
	}
	h := sw / want
	y := src.Min.Y + int(math.Round((sh-h)/2))
	return image.Rect(src.Min.X, y, src.Max.X, y+int(math.Round(h)))
}

func fillRect(dst draw.Image, r image.Rectangle, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func mix(from, to color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: lerp(from.R, to.R, t),
		G: lerp(from.G, to.G, t),
		B: lerp(from.B, to.B, t),
		A: lerp(from.A, to.A, t),
	}
}

// gradientRect рисует линейный градиент полосами по одному пикселю.
func gradientRect(dst draw.Image, r image.Rectangle, from, to color.NRGBA, dir GradientDir) {
	steps := r.Dx()
	if dir == GradientToBottom {
		steps = r.Dy()
	}
	if steps <= 0 {
		return
	}
	for i := 0; i < steps; i++ {
		t := 0.0
		if steps > 1 {
			t = float64(i) / float64(steps-1)
		}
		var strip image.Rectangle
		switch dir {
		case GradientToRight:
			strip = image.Rect(r.Min.X+i, r.Min.Y, r.Min.X+i+1, r.Max.Y)
		case GradientToLeft:
			strip = image.Rect(r.Max.X-i-1, r.Min.Y, r.Max.X-i, r.Max.Y)
		default:
			strip = image.Rect(r.Min.X, r.Min.Y+i, r.Max.X, r.Min.Y+i+1)
		}
		fillRect(dst, strip, mix(from, to, t))
	}
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.NRGBA, w int) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w), c)
	fillRect(dst, image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w), c)
}

// drawRing рисует кольцо индикатора: дорожка цветом track и дуга в четверть окружности цветом arc.
func drawRing(dst draw.Image, r image.Rectangle, track, arc color.NRGBA, width float64) {
	cx := float64(r.Min.X) + float64(r.Dx())/2
	cy := float64(r.Min.Y) + float64(r.Dy())/2
	outer := math.Min(float64(r.Dx()), float64(r.Dy())) / 2
	inner := outer - width

	trackMask := image.NewAlpha(r)
	arcMask := image.NewAlpha(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := math.Hypot(dx, dy)
			if d > outer || d < inner {
				continue
			}
			// дуга сверху по часовой стрелке
			angle := math.Atan2(dx, -dy)
			if angle >= 0 && angle <= math.Pi/2 {
				arcMask.SetAlpha(x, y, color.Alpha{A: 0xFF})
			} else {
				trackMask.SetAlpha(x, y, color.Alpha{A: 0xFF})
			}
		}
	}
	draw.DrawMask(dst, r, image.NewUniform(track), image.Point{}, trackMask, r.Min, draw.Over)
	draw.DrawMask(dst, r, image.NewUniform(arc), image.Point{}, arcMask, r.Min, draw.Over)
}
