package workflow

import (
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

// EditBuffer holds the in-progress present set and auxiliary content for one
// tuple. It is plain value data and is discarded on submit or tuple change.
type EditBuffer struct {
	kind      models.AuxiliaryKind
	present   map[string]struct{}
	selectAll bool

	catalog  map[string]models.ContentItem
	contents []string
	points   []string
}

// NewEditBuffer seeds a buffer from an existing record, or empty when record is nil.
func NewEditBuffer(subjectType models.SubjectType, content []models.ContentItem, record *models.AttendanceRecord) *EditBuffer {
	b := &EditBuffer{
		kind:    models.AuxiliaryKindFor(subjectType),
		present: make(map[string]struct{}),
		catalog: make(map[string]models.ContentItem, len(content)),
	}
	for _, item := range content {
		b.catalog[item.ID] = item
	}

	if record != nil {
		for _, id := range record.PresentStudents() {
			b.present[id] = struct{}{}
		}
		b.contents = append(b.contents, record.Contents...)
		b.points = append(b.points, record.PointsDiscussed...)
	}
	if b.kind == models.AuxiliaryDiscussionPoints && len(b.points) == 0 {
		b.points = []string{""}
	}
	return b
}

// Kind reports which auxiliary variant the buffer collects.
func (b *EditBuffer) Kind() models.AuxiliaryKind {
	return b.kind
}

// TogglePresent flips membership of id and returns the new membership.
func (b *EditBuffer) TogglePresent(id string) bool {
	if _, ok := b.present[id]; ok {
		delete(b.present, id)
		return false
	}
	b.present[id] = struct{}{}
	return true
}

// IsPresent reports whether id is marked present.
func (b *EditBuffer) IsPresent(id string) bool {
	_, ok := b.present[id]
	return ok
}

// SelectAll marks every roster student present.
func (b *EditBuffer) SelectAll(roster []models.Student) {
	b.present = make(map[string]struct{}, len(roster))
	for _, s := range roster {
		b.present[s.ID] = struct{}{}
	}
	b.selectAll = true
}

// ClearAll empties the present set.
func (b *EditBuffer) ClearAll() {
	b.present = make(map[string]struct{})
	b.selectAll = false
}

// ToggleSelectAll alternates between SelectAll and ClearAll and returns the new flag.
func (b *EditBuffer) ToggleSelectAll(roster []models.Student) bool {
	if b.selectAll {
		b.ClearAll()
		return false
	}
	b.SelectAll(roster)
	return true
}

// SelectAllActive reports the select-all toggle state.
func (b *EditBuffer) SelectAllActive() bool {
	return b.selectAll
}

// PresentCount counts present students that are part of roster.
func (b *EditBuffer) PresentCount(roster []models.Student) int {
	n := 0
	for _, s := range roster {
		if b.IsPresent(s.ID) {
			n++
		}
	}
	return n
}

// PresentIDs returns the raw present set, including ids outside the roster.
func (b *EditBuffer) PresentIDs() []string {
	out := make([]string, 0, len(b.present))
	for id := range b.present {
		out = append(out, id)
	}
	return out
}

// ToggleContent flips coverage of a content item. Items already covered
// upstream are locked; toggling them is a no-op that reports false.
func (b *EditBuffer) ToggleContent(id string) (bool, error) {
	if b.kind != models.AuxiliaryContentCoverage {
		return false, appErrors.Clone(appErrors.ErrValidation, "content coverage does not apply to tg subjects")
	}
	item, ok := b.catalog[id]
	if !ok {
		return false, appErrors.Clone(appErrors.ErrNotFound, "content item not found")
	}
	if item.Covered() {
		return false, nil
	}
	for i, selected := range b.contents {
		if selected == id {
			b.contents = append(b.contents[:i], b.contents[i+1:]...)
			return true, nil
		}
	}
	b.contents = append(b.contents, id)
	return true, nil
}

// ContentSelected reports whether id is in the covered set.
func (b *EditBuffer) ContentSelected(id string) bool {
	for _, selected := range b.contents {
		if selected == id {
			return true
		}
	}
	return false
}

// Contents returns the selected content ids in selection order.
func (b *EditBuffer) Contents() []string {
	return append([]string{}, b.contents...)
}

// AddPoint appends an empty discussion point.
func (b *EditBuffer) AddPoint() error {
	if err := b.requirePoints(); err != nil {
		return err
	}
	b.points = append(b.points, "")
	return nil
}

// EditPoint replaces the text at index.
func (b *EditBuffer) EditPoint(index int, text string) error {
	if err := b.requirePoints(); err != nil {
		return err
	}
	if index < 0 || index >= len(b.points) {
		return appErrors.Clone(appErrors.ErrNotFound, "discussion point not found")
	}
	b.points[index] = text
	return nil
}

// RemovePoint deletes the point at index, leaving a single blank entry when
// the last one is removed.
func (b *EditBuffer) RemovePoint(index int) error {
	if err := b.requirePoints(); err != nil {
		return err
	}
	if index < 0 || index >= len(b.points) {
		return appErrors.Clone(appErrors.ErrNotFound, "discussion point not found")
	}
	b.points = append(b.points[:index], b.points[index+1:]...)
	if len(b.points) == 0 {
		b.points = []string{""}
	}
	return nil
}

// Points returns the discussion point rows, blanks included.
func (b *EditBuffer) Points() []string {
	return append([]string{}, b.points...)
}

// Auxiliary returns the tagged auxiliary payload for submission.
func (b *EditBuffer) Auxiliary() models.Auxiliary {
	if b.kind == models.AuxiliaryDiscussionPoints {
		return models.DiscussionPoints(b.points)
	}
	return models.ContentCoverage(b.contents)
}

func (b *EditBuffer) requirePoints() error {
	if b.kind != models.AuxiliaryDiscussionPoints {
		return appErrors.Clone(appErrors.ErrValidation, "discussion points apply to tg subjects only")
	}
	return nil
}
