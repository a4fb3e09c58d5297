package render

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/meiziya0402-source/PPT/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/math/fixed"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	return NewRenderer(fonts, zap.NewNop())
}

func TestDecodeBackground(t *testing.T) {
	data := solidPNG(t, 40, 20, color.RGBA{255, 0, 0, 255})
	bg, err := DecodeBackground(data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", bg.MimeType)
	assert.Len(t, bg.Hash, 64)
	assert.Equal(t, 40, bg.Image.Bounds().Dx())
	assert.Contains(t, bg.DataURL(), "data:image/png;base64,")

	_, err = DecodeBackground([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	_, err = DecodeBackground(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// pngHeader возвращает сигнатуру PNG и заголовок IHDR без данных изображения.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 0, 0, 0, 0) // 8 бит, grayscale
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeBackground_RejectsOversizedDimensions(t *testing.T) {
	_, err := DecodeBackground(pngHeader(16000, 16000))
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "16000x16000 exceeds")

	data := solidPNG(t, 40, 20, color.RGBA{0, 0, 255, 255})
	_, err = DecodeBackgroundLimit(data, 799)
	require.ErrorIs(t, err, ErrUnsupportedImage)

	bg, err := DecodeBackgroundLimit(data, 800)
	require.NoError(t, err)
	assert.Equal(t, 20, bg.Image.Bounds().Dy())
}

func TestCoverCrop(t *testing.T) {
	wide := coverCrop(image.Rect(0, 0, 200, 100), image.Pt(960, 540))
	assert.Equal(t, 100, wide.Dy())
	assert.InDelta(t, 178, wide.Dx(), 1)
	assert.InDelta(t, 11, wide.Min.X, 1)

	tall := coverCrop(image.Rect(0, 0, 100, 200), image.Pt(960, 540))
	assert.Equal(t, 100, tall.Dx())
	assert.InDelta(t, 56, tall.Dy(), 1)
}

func TestRasterize_PlaceholderWithoutBackground(t *testing.T) {
	r := newTestRenderer(t)
	scene := Layout(models.NewSlide("1", models.SlideCover), Options{Scale: 1})

	img := r.Rasterize(scene, nil)
	assert.Equal(t, image.Pt(BaseWidth, BaseHeight), img.Bounds().Size())
	assert.Equal(t, color.RGBA{neutral800.R, neutral800.G, neutral800.B, 255}, img.RGBAAt(5, 5))
}

func TestRasterize_BackgroundUnderVeil(t *testing.T) {
	r := newTestRenderer(t)
	bg, err := DecodeBackground(solidPNG(t, 64, 36, color.RGBA{255, 0, 0, 255}))
	require.NoError(t, err)

	scene := Layout(models.NewSlide("1", models.SlideCover), Options{Scale: 0.5, HasBackground: true})
	img := r.Rasterize(scene, bg)
	assert.Equal(t, image.Pt(480, 270), img.Bounds().Size())

	px := img.RGBAAt(2, 2)
	// красный под черной вуалью 40%
	assert.InDelta(t, 153, int(px.R), 12)
	assert.Less(t, px.G, uint8(10))

	// повторная отрисовка берет фон из кеша
	_, cached := r.scaled.Get(bg.Hash + ":480x270")
	assert.True(t, cached)
}

func TestSurface_PresentSignalsDone(t *testing.T) {
	s := NewSurface(newTestRenderer(t), 0.25, zap.NewNop())
	slide := models.NewSlide("4", models.SlideMetric)
	slide.Content = models.MetricContent{BigValue: "+125%"}

	p := s.Present(slide, nil, false)
	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("render did not complete")
	}
	frame, err := p.Frame()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(240, 135), frame.Bounds().Size())
}

func TestWrap_LineBreaks(t *testing.T) {
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	fs := newFaceSet(fonts)
	defer fs.close()

	wide := fixed.I(2000)
	assert.Equal(t, []string{"first second"}, fs.wrap("first\nsecond", 20, false, false, wide))
	assert.Equal(t, []string{"first", "second"}, fs.wrap("first\nsecond", 20, false, true, wide))

	narrow := fs.wrap("alpha beta gamma delta", 20, false, false, fs.measure("gamma delta", 20, false))
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, narrow)
}
