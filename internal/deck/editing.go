package deck

import (
	"fmt"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"
)

// RegionState - состояние редактируемой области для клиента.
type RegionState struct {
	SlideID       string `json:"slideId"`
	Field         string `json:"field"`
	Multiline     bool   `json:"multiline"`
	Placeholder   string `json:"placeholder"`
	Text          string `json:"text"`
	IsPlaceholder bool   `json:"isPlaceholder"`
	Editing       bool   `json:"editing"`
	Draft         string `json:"draft,omitempty"`
}

func regionKey(slideID string, ref models.FieldRef) string {
	return slideID + "/" + ref.String()
}

// Scene раскладывает слайд так, как он сейчас показан на холсте.
func (d *Deck) Scene(slideID string, scale float64) (*render.Scene, error) {
	d.mu.Lock()
	i := d.indexOf(slideID)
	if i < 0 {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSlideNotFound, slideID)
	}
	slide := d.slides[i].Clone()
	opts := render.Options{Scale: scale, HasBackground: d.background != nil, Generating: d.workflow == WorkflowGenerating}
	d.mu.Unlock()
	return render.Layout(slide, opts), nil
}

// EditableRegions возвращает области слайда в пикселях холста заданного масштаба.
func (d *Deck) EditableRegions(slideID string, scale float64) ([]render.Region, error) {
	scene, err := d.Scene(slideID, scale)
	if err != nil {
		return nil, err
	}
	return scene.Regions(), nil
}

// newRegion строит область по привязке из текущей раскладки слайда.
// Поле, которое сейчас не нарисовано (заглушка, оверлей, отрезанная карточка), редактировать нельзя.
func (d *Deck) newRegion(slideID string, ref models.FieldRef) (*Region, error) {
	scene, err := d.Scene(slideID, 1)
	if err != nil {
		return nil, err
	}
	for _, n := range scene.Nodes {
		if n.Binding == nil || n.Binding.Ref != ref {
			continue
		}
		get := func() (string, error) {
			s, err := d.Slide(slideID)
			if err != nil {
				return "", err
			}
			return displayValue(s, ref)
		}
		set := func(v string) error {
			return d.UpdateSlideField(slideID, ref, v)
		}
		return NewRegion(ref, n.Binding.Multiline, n.Binding.Placeholder, get, set), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRegion, ref)
}

// displayValue читает поле так же, как его рисует раскладка: тело Split слайда показывает подзаголовок,
// пока bodyText пуст. Черновик начинается с показанного текста, и фиксация без ввода сохраняет именно его.
func displayValue(s models.Slide, ref models.FieldRef) (string, error) {
	if ref == models.Scalar(models.FieldBodyText) && s.Layout() == models.LayoutSplit {
		return s.DisplayBodyText(), nil
	}
	return s.Get(ref)
}

func (d *Deck) regionState(slideID string, r *Region) RegionState {
	text, placeholder := r.Display()
	return RegionState{
		SlideID:       slideID,
		Field:         r.Ref.String(),
		Multiline:     r.Multiline,
		Placeholder:   r.Placeholder,
		Text:          text,
		IsPlaceholder: placeholder,
		Editing:       r.Editing(),
		Draft:         r.Draft(),
	}
}

// BeginEdit начинает редактирование области. Повторный вызов начинает черновик заново.
func (d *Deck) BeginEdit(slideID string, ref models.FieldRef) (RegionState, error) {
	r, err := d.newRegion(slideID, ref)
	if err != nil {
		return RegionState{}, err
	}
	if err := r.Begin(); err != nil {
		return RegionState{}, err
	}

	d.editMu.Lock()
	defer d.editMu.Unlock()
	d.regions[regionKey(slideID, ref)] = r
	return d.regionState(slideID, r), nil
}

func (d *Deck) activeRegion(slideID string, ref models.FieldRef) (*Region, error) {
	r, ok := d.regions[regionKey(slideID, ref)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEditing, ref)
	}
	return r, nil
}

// InputDraft заменяет черновик активной области.
func (d *Deck) InputDraft(slideID string, ref models.FieldRef, text string) (RegionState, error) {
	d.editMu.Lock()
	defer d.editMu.Unlock()
	r, err := d.activeRegion(slideID, ref)
	if err != nil {
		return RegionState{}, err
	}
	if err := r.Input(text); err != nil {
		return RegionState{}, err
	}
	return d.regionState(slideID, r), nil
}

// CommitEdit фиксирует черновик в слайде и завершает редактирование.
func (d *Deck) CommitEdit(slideID string, ref models.FieldRef) (RegionState, error) {
	d.editMu.Lock()
	defer d.editMu.Unlock()
	r, err := d.activeRegion(slideID, ref)
	if err != nil {
		return RegionState{}, err
	}
	if err := r.Blur(); err != nil {
		return RegionState{}, err
	}
	delete(d.regions, regionKey(slideID, ref))
	return d.regionState(slideID, r), nil
}

// CancelEdit отбрасывает черновик. Отмена без активной области ничего не делает.
func (d *Deck) CancelEdit(slideID string, ref models.FieldRef) {
	d.editMu.Lock()
	defer d.editMu.Unlock()
	if r, ok := d.regions[regionKey(slideID, ref)]; ok {
		r.Cancel()
		delete(d.regions, regionKey(slideID, ref))
	}
}

// resetRegions сбрасывает все черновики, например после замены колоды.
func (d *Deck) resetRegions() {
	d.editMu.Lock()
	defer d.editMu.Unlock()
	d.regions = make(map[string]*Region)
}
