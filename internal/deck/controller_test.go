package deck_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/export"
	"github.com/meiziya0402-source/PPT/internal/mocks"
	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBackground(t *testing.T) *models.Background {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{20, 60, 120, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	bg, err := render.DecodeBackground(buf.Bytes())
	require.NoError(t, err)
	return bg
}

func testSurface(t *testing.T) *render.Surface {
	t.Helper()
	fonts, err := render.LoadFonts("")
	require.NoError(t, err)
	return render.NewSurface(render.NewRenderer(fonts, zap.NewNop()), 0.25, zap.NewNop())
}

func generated(n int) *models.GeneratedDeck {
	out := &models.GeneratedDeck{ThemeColor: "#FF8800"}
	for i := 0; i < n; i++ {
		out.Slides = append(out.Slides, models.SlideRecord{Type: models.SlideOverview, Title: "标题", BodyText: models.StringPtr("正文")})
	}
	return out
}

func TestNew_SeedDeck(t *testing.T) {
	d := deck.New(deck.Options{})
	snap := d.Snapshot()

	require.Len(t, snap.Slides, 3)
	assert.Equal(t, "1", snap.SelectedID)
	assert.False(t, snap.HasBackground)
	assert.False(t, snap.Generating)

	assert.Equal(t, models.SlideCover, snap.Slides[0].Type)
	assert.Equal(t, "阿拉斯加座头鲸", snap.Slides[0].Title)
	assert.Equal(t, "2024 年度回顾", snap.Slides[0].Footer)
	assert.Equal(t, []string{"年度摘要", "关键数据", "项目亮点", "未来展望"}, snap.Slides[1].BulletPoints())
	assert.Equal(t, "+125%", snap.Slides[2].BigValue())
	for _, s := range snap.Slides {
		assert.Equal(t, "#60A5FA", s.ThemeColor)
	}
}

func TestSetBackgroundImage_PropagatesToEverySlide(t *testing.T) {
	notifier := mocks.NewMockNotifier(t)
	d := deck.New(deck.Options{Topic: "s1", Notifier: notifier})
	bg := testBackground(t)

	d.SetBackgroundImage(bg)

	for _, s := range d.Slides() {
		got, err := d.SlideBackground(s.ID)
		require.NoError(t, err)
		assert.Same(t, bg, got)
	}
	assert.True(t, d.Snapshot().HasBackground)
	notifier.AssertCalled(t, "Broadcast", deck.EventBackground, "s1", mock.Anything)
}

func TestSetBackgroundImage_NilIsIgnored(t *testing.T) {
	notifier := mocks.NewMockNotifier(t)
	d := deck.New(deck.Options{Topic: "s1", Notifier: notifier})

	assert.NotPanics(t, func() { d.SetBackgroundImage(nil) })
	assert.False(t, d.Snapshot().HasBackground)
	notifier.AssertNotCalled(t, "Broadcast", deck.EventBackground, "s1", mock.Anything)

	bg := testBackground(t)
	d.SetBackgroundImage(bg)
	d.SetBackgroundImage(nil)
	assert.Same(t, bg, d.Background())
}

func TestSelectSlide_UnknownIDIsNoop(t *testing.T) {
	d := deck.New(deck.Options{})

	require.NoError(t, d.SelectSlide("3"))
	assert.Equal(t, "3", d.Snapshot().SelectedID)

	err := d.SelectSlide("42")
	assert.ErrorIs(t, err, deck.ErrSlideNotFound)
	assert.Equal(t, "3", d.Snapshot().SelectedID)
}

func TestUpdateSlideField_Locality(t *testing.T) {
	d := deck.New(deck.Options{})
	before := d.Slides()

	require.NoError(t, d.UpdateSlideField("2", models.Element(models.FieldBullet, 1), "核心指标"))

	after := d.Slides()
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.Equal(t, []string{"年度摘要", "核心指标", "项目亮点", "未来展望"}, after[1].BulletPoints())
	assert.Equal(t, before[1].Title, after[1].Title)
}

func TestUpdateSlideField_Rejections(t *testing.T) {
	d := deck.New(deck.Options{})
	before := d.Snapshot()

	assert.ErrorIs(t, d.UpdateSlideField("99", models.Scalar(models.FieldTitle), "x"), deck.ErrSlideNotFound)
	assert.ErrorIs(t, d.UpdateSlideField("1", models.Scalar(models.FieldBigValue), "x"), models.ErrFieldNotApplicable)
	assert.ErrorIs(t, d.UpdateSlideField("2", models.Element(models.FieldBullet, 4), "x"), models.ErrIndexOutOfRange)

	assert.Equal(t, before, d.Snapshot())
}

func TestGenerateDeck_RequiresBackground(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen})

	_, err := d.GenerateDeck(context.Background(), "")
	assert.ErrorIs(t, err, deck.ErrNoBackground)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, d.Slides(), 3)
}

func TestGenerateDeck_Success(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen})
	bg := testBackground(t)
	d.SetBackgroundImage(bg)

	gen.On("Generate", mock.Anything, bg.Data, "image/png", "海洋主题").Return(generated(4), nil).Once()

	res, err := d.GenerateDeck(context.Background(), "海洋主题")
	require.NoError(t, err)
	assert.False(t, res.Fallback)

	snap := d.Snapshot()
	require.Len(t, snap.Slides, 4)
	assert.Equal(t, "4", snap.SelectedID)
	assert.Equal(t, "海洋主题", snap.Prompt)
	assert.False(t, snap.Generating)
	for i, s := range snap.Slides {
		assert.Equal(t, "#FF8800", s.ThemeColor)
		assert.Equal(t, fmt.Sprintf("2024 Year End - Page %d", i+1), s.Footer)
		assert.Equal(t, "正文", s.BodyText())
		got, err := d.SlideBackground(s.ID)
		require.NoError(t, err)
		assert.Same(t, bg, got)
	}
	gen.AssertExpectations(t)
}

func TestGenerateDeck_IDsAreNeverReused(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen})
	d.SetBackgroundImage(testBackground(t))
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(generated(2), nil)

	_, err := d.GenerateDeck(context.Background(), "")
	require.NoError(t, err)
	first := d.Slides()
	_, err = d.GenerateDeck(context.Background(), "")
	require.NoError(t, err)
	second := d.Slides()

	assert.Equal(t, []string{"4", "5"}, []string{first[0].ID, first[1].ID})
	assert.Equal(t, []string{"6", "7"}, []string{second[0].ID, second[1].ID})
}

func TestGenerateDeck_FailureUsesFallback(t *testing.T) {
	for name, ret := range map[string]struct {
		deck *models.GeneratedDeck
		err  error
	}{
		"collaborator error": {nil, errors.New("upstream unavailable")},
		"empty result":       {&models.GeneratedDeck{ThemeColor: "#000000"}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			gen := mocks.NewMockContentGenerator(t)
			notifier := mocks.NewMockNotifier(t)
			d := deck.New(deck.Options{Generator: gen, Notifier: notifier, Topic: "s"})
			d.SetBackgroundImage(testBackground(t))
			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ret.deck, ret.err)

			res, err := d.GenerateDeck(context.Background(), "")
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			assert.Equal(t, deck.NoticeGenerationFallback, res.Notice)

			slides := d.Slides()
			require.Len(t, slides, 10)
			assert.Equal(t, models.SlideCover, slides[0].Type)
			assert.Equal(t, "年度汇报", slides[0].Title)
			assert.Equal(t, models.SlideThankYou, slides[9].Type)
			assert.Equal(t, "2024 Year End - Page 10", slides[9].Footer)
			assert.Equal(t, "#60A5FA", slides[4].ThemeColor)
			assert.Len(t, slides[4].GridItems(), 3)
			assert.Equal(t, deck.WorkflowIdle, d.Workflow())

			notifier.AssertCalled(t, "Broadcast", deck.EventNotice, "s",
				deck.NoticeEvent{Level: deck.NoticeWarning, Message: deck.NoticeGenerationFallback})
		})
	}
}

func TestGenerateDeck_FallbackIsDeterministic(t *testing.T) {
	type entry struct {
		Type     models.SlideType
		Title    string
		Subtitle string
	}
	want := []entry{
		{models.SlideCover, "年度汇报", "2024 总结与展望"},
		{models.SlideAgenda, "目录", "本次汇报概览"},
		{models.SlideOverview, "回顾", "稳健前行"},
		{models.SlideMetric, "核心营收", "同比增长显著"},
		{models.SlideGrid3, "主要成就", "里程碑时刻"},
		{models.SlideSplitLeft, "市场洞察", "趋势分析"},
		{models.SlideTeam, "团队建设", "人才梯队"},
		{models.SlideSplitRight, "挑战与对策", "破局之道"},
		{models.SlideList, "未来规划", "2025 战略目标"},
		{models.SlideThankYou, "感谢聆听", "Q & A"},
	}

	build := func() []models.Slide {
		d := deck.New(deck.Options{})
		d.SetBackgroundImage(testBackground(t))
		_, err := d.GenerateDeck(context.Background(), "")
		require.NoError(t, err)
		return d.Slides()
	}
	a, b := build(), build()

	got := make([]entry, 0, len(a))
	for i, s := range a {
		got = append(got, entry{s.Type, s.Title, s.Subtitle})
		assert.Equal(t, fmt.Sprintf(deck.DefaultFooterFormat, i+1), s.Footer)
	}
	assert.Equal(t, want, got)

	assert.Equal(t, []string{"年度经营概况", "核心项目复盘", "市场数据分析", "2025 战略规划"}, a[1].BulletPoints())
	assert.Equal(t, "在过去的一年中，我们克服了多重挑战，实现了核心业务的稳步增长。", a[2].BodyText())
	assert.Equal(t, "¥1.2B", a[3].BigValue())
	assert.Equal(t, []models.GridItem{{Title: "产品发布", Desc: "全新系列上线"}, {Title: "市场扩张", Desc: "新增30+城市"}, {Title: "客户满意", Desc: "NPS达到历史新高"}}, a[4].GridItems())
	assert.Equal(t, []string{"Q1：完成产品迭代", "Q2：拓展海外市场", "Q3：建立生态联盟", "Q4：实现百亿营收"}, a[8].BulletPoints())

	// ids идут из счетчика колоды, поэтому содержимое двух сборок совпадает целиком
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestGenerateDeck_CanceledLeavesDeckUntouched(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen})
	d.SetBackgroundImage(testBackground(t))
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

	_, err := d.GenerateDeck(context.Background(), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, d.Slides(), 3)
	assert.Equal(t, deck.WorkflowIdle, d.Workflow())
}

func TestGuard_GenerateAndExportAreExclusive(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen})
	d.SetBackgroundImage(testBackground(t))

	started := make(chan struct{})
	release := make(chan struct{})
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(generated(2), nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := d.GenerateDeck(context.Background(), "")
		assert.NoError(t, err)
	}()
	<-started

	assert.True(t, d.Generating())
	assert.True(t, d.Snapshot().Generating)

	_, err := d.GenerateDeck(context.Background(), "")
	assert.ErrorIs(t, err, deck.ErrBusy)
	_, err = d.ExportAll(context.Background(), testSurface(t), export.NewPipeline(1, zap.NewNop()))
	assert.ErrorIs(t, err, deck.ErrBusy)

	close(release)
	wg.Wait()

	assert.Equal(t, deck.WorkflowIdle, d.Workflow())
	assert.False(t, d.Snapshot().Generating)
}

type failingPresenter struct {
	surface *render.Surface
	failAt  string
}

func (p *failingPresenter) Present(slide models.Slide, bg *models.Background, generating bool) *render.Pending {
	if slide.ID == p.failAt {
		pending := render.NewPending()
		pending.Resolve(nil, errors.New("capture failed"))
		return pending
	}
	return p.surface.Present(slide, bg, generating)
}

type spyExporter struct {
	added     []string
	discarded bool
	inner     *export.Pipeline
}

func (s *spyExporter) Add(position int, slideType models.SlideType, frame image.Image) {
	s.added = append(s.added, export.EntryName(position, slideType))
	s.inner.Add(position, slideType, frame)
}

func (s *spyExporter) Bundle(ctx context.Context) ([]byte, error) {
	return s.inner.Bundle(ctx)
}

func (s *spyExporter) Discard() {
	s.discarded = true
	s.inner.Discard()
}

func TestExportAll_FailureDiscardsFramesAndRestoresSelection(t *testing.T) {
	notifier := mocks.NewMockNotifier(t)
	d := deck.New(deck.Options{Notifier: notifier, Topic: "s"})
	d.SetBackgroundImage(testBackground(t))
	require.NoError(t, d.SelectSlide("2"))

	exp := &spyExporter{inner: export.NewPipeline(1, zap.NewNop())}
	data, err := d.ExportAll(context.Background(), &failingPresenter{surface: testSurface(t), failAt: "3"}, exp)

	assert.ErrorIs(t, err, deck.ErrExportFailed)
	assert.Nil(t, data)
	assert.True(t, exp.discarded)
	assert.Equal(t, []string{"slide-1-COVER.png", "slide-2-AGENDA.png"}, exp.added)
	assert.Equal(t, "2", d.Snapshot().SelectedID)
	assert.Equal(t, deck.WorkflowIdle, d.Workflow())
	notifier.AssertCalled(t, "Broadcast", deck.EventNotice, "s",
		deck.NoticeEvent{Level: deck.NoticeError, Message: deck.NoticeExportFailed})
}

// Сквозной сценарий: стартовая колода, загрузка фона, правка, генерация со сбоем, экспорт.
func TestEndToEnd_SeedScenario(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	d := deck.New(deck.Options{Generator: gen, Topic: "e2e"})
	bg := testBackground(t)

	d.SetBackgroundImage(bg)
	require.NoError(t, d.SelectSlide("2"))
	_, err := d.BeginEdit("2", models.Scalar(models.FieldTitle))
	require.NoError(t, err)
	_, err = d.InputDraft("2", models.Scalar(models.FieldTitle), "新的\n目录")
	require.NoError(t, err)
	_, err = d.CommitEdit("2", models.Scalar(models.FieldTitle))
	require.NoError(t, err)

	s, err := d.Slide("2")
	require.NoError(t, err)
	assert.Equal(t, "新的 目录", s.Title)

	data, err := d.ExportAll(context.Background(), testSurface(t), export.NewPipeline(2, zap.NewNop()))
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "slide-1-COVER.png", zr.File[0].Name)
	assert.Equal(t, "slide-2-AGENDA.png", zr.File[1].Name)
	assert.Equal(t, "slide-3-METRIC.png", zr.File[2].Name)
	assert.Equal(t, "2", d.Snapshot().SelectedID)

	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded")).Once()
	res, err := d.GenerateDeck(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Len(t, d.Slides(), 10)
	assert.Equal(t, "4", d.Snapshot().SelectedID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	data, err = d.ExportAll(ctx, testSurface(t), export.NewPipeline(4, zap.NewNop()))
	require.NoError(t, err)
	zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 10)
	assert.Equal(t, "slide-10-THANK_YOU.png", zr.File[9].Name)
}
