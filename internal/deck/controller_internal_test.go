package deck

import (
	"context"
	"image"
	"testing"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/stretchr/testify/assert"
)

type nopExporter struct{ added int }

func (e *nopExporter) Add(int, models.SlideType, image.Image)  { e.added++ }
func (e *nopExporter) Bundle(context.Context) ([]byte, error) { return nil, nil }
func (e *nopExporter) Discard()                               {}

type nopPresenter struct{}

func (nopPresenter) Present(models.Slide, *models.Background, bool) *render.Pending {
	p := render.NewPending()
	p.Resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	return p
}

func TestExportAll_EmptyDeckRejected(t *testing.T) {
	d := New(Options{})
	d.slides = nil

	exp := &nopExporter{}
	_, err := d.ExportAll(context.Background(), nopPresenter{}, exp)
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.Zero(t, exp.added)
	assert.Equal(t, WorkflowIdle, d.Workflow())
}

func TestExportAll_BusyWhileExporting(t *testing.T) {
	d := New(Options{})
	d.workflow = WorkflowExporting

	_, err := d.ExportAll(context.Background(), nopPresenter{}, &nopExporter{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, WorkflowExporting, d.Workflow(), "rejected call must not clear someone else's guard")
}

func TestBuildSlides_NormalisesTypeAndFooter(t *testing.T) {
	d := New(Options{FooterFormat: "Page %d"})
	slides := d.buildSlides(&models.GeneratedDeck{Slides: []models.SlideRecord{
		{Type: "metric", Title: "营收", BigValue: models.StringPtr("¥1.2B"), BulletPoints: []string{"ignored"}},
		{Type: "MYSTERY", Title: "?"},
	}})

	assert.Equal(t, models.SlideMetric, slides[0].Type)
	assert.Equal(t, "¥1.2B", slides[0].BigValue())
	assert.Nil(t, slides[0].BulletPoints())
	assert.Equal(t, "Page 1", slides[0].Footer)
	assert.Equal(t, render.DefaultThemeColor, slides[0].ThemeColor)
	assert.Equal(t, models.LayoutCentered, slides[1].Layout())
	assert.Equal(t, "4", slides[0].ID)
	assert.Equal(t, "5", slides[1].ID)
}
