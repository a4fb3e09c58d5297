package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"sync"
	"time"

	"github.com/meiziya0402-source/PPT/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ArchiveName - имя архива, который отдается клиенту.
const ArchiveName = "presentation-slides.zip"

// DefaultWorkers - сколько кадров кодируется в PNG одновременно.
const DefaultWorkers = 4

var ErrDiscarded = errors.New("export pipeline was discarded")

var (
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deck_exports_total",
		Help: "Total number of deck exports by status.",
	}, []string{"status"})
	exportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deck_export_bundle_duration_seconds",
		Help:    "Time spent waiting for PNG encodes and writing the archive.",
		Buckets: prometheus.DefBuckets,
	})
)

type entry struct {
	position int
	name     string
	data     []byte
}

// Pipeline кодирует кадры в PNG по мере поступления и собирает их в zip архив.
// Один Pipeline обслуживает один экспорт.
type Pipeline struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu        sync.Mutex
	entries   []entry
	discarded bool
}

// NewPipeline создает конвейер с ограничением на число одновременных кодирований.
func NewPipeline(workers int, logger *zap.Logger) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &Pipeline{group: g, ctx: gctx, cancel: cancel, logger: logger.Named("ExportPipeline")}
}

// EntryName возвращает имя файла слайда внутри архива.
func EntryName(position int, slideType models.SlideType) string {
	return fmt.Sprintf("slide-%d-%s.png", position, slideType)
}

// Add ставит кадр в очередь на кодирование. Блокируется, пока все воркеры заняты.
func (p *Pipeline) Add(position int, slideType models.SlideType, frame image.Image) {
	name := EntryName(position, slideType)
	p.group.Go(func() error {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, frame); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.discarded {
			return ErrDiscarded
		}
		p.entries = append(p.entries, entry{position: position, name: name, data: buf.Bytes()})
		return nil
	})
}

// Bundle дожидается всех кодирований и пишет архив. Ошибка любого кадра проваливает весь архив.
func (p *Pipeline) Bundle(ctx context.Context) ([]byte, error) {
	start := time.Now()
	defer p.cancel()

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		p.Discard()
		exportsTotal.WithLabelValues("canceled").Inc()
		return nil, ctx.Err()
	}
	if err != nil {
		exportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	p.mu.Lock()
	if p.discarded {
		p.mu.Unlock()
		return nil, ErrDiscarded
	}
	entries := p.entries
	p.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].position < entries[j].position })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		// PNG уже сжат, повторное сжатие не нужно
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store, Modified: start})
		if err != nil {
			exportsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("zip entry %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			exportsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("zip write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		exportsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("zip close: %w", err)
	}

	exportDuration.Observe(time.Since(start).Seconds())
	exportsTotal.WithLabelValues("success").Inc()
	p.logger.Debug("Archive written", zap.Int("entries", len(entries)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Discard отбрасывает все накопленные кадры и останавливает незавершенные кодирования.
func (p *Pipeline) Discard() {
	p.mu.Lock()
	p.discarded = true
	p.entries = nil
	p.mu.Unlock()
	p.cancel()
}
