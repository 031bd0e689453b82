package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

func sampleRoster() []models.Student {
	return []models.Student{
		{ID: "a", RollNumber: "2"},
		{ID: "c", RollNumber: "9"},
		{ID: "b", RollNumber: "10"},
	}
}

func TestEditBufferSelectAllThenToggleOne(t *testing.T) {
	roster := sampleRoster()
	b := NewEditBuffer(models.SubjectTypeTheory, nil, nil)

	assert.True(t, b.ToggleSelectAll(roster))
	assert.Equal(t, len(roster), b.PresentCount(roster))

	b.TogglePresent("c")
	assert.Equal(t, len(roster)-1, b.PresentCount(roster))

	assert.False(t, b.ToggleSelectAll(roster))
	assert.Equal(t, 0, b.PresentCount(roster))
}

func TestEditBufferSelectAllTwiceEmpties(t *testing.T) {
	roster := sampleRoster()
	b := NewEditBuffer(models.SubjectTypePractical, nil, nil)

	b.ToggleSelectAll(roster)
	b.ToggleSelectAll(roster)

	assert.Empty(t, b.PresentIDs())
	assert.False(t, b.SelectAllActive())
}

func TestEditBufferSeedsFromRecord(t *testing.T) {
	record := &models.AttendanceRecord{
		Records: []models.AttendanceEntry{
			{Student: "a", Status: models.AttendanceStatusPresent},
			{Student: "b", Status: models.AttendanceStatusAbsent},
			{Student: "c", Status: models.AttendanceStatusPresent},
		},
		Contents: []string{"u1"},
	}
	b := NewEditBuffer(models.SubjectTypeTheory, nil, record)

	assert.ElementsMatch(t, []string{"a", "c"}, b.PresentIDs())
	assert.Equal(t, []string{"u1"}, b.Contents())
}

func TestEditBufferIgnoresIdsOutsideRoster(t *testing.T) {
	roster := sampleRoster()
	b := NewEditBuffer(models.SubjectTypeTheory, nil, nil)

	b.TogglePresent("ghost")
	b.TogglePresent("a")

	assert.Equal(t, 1, b.PresentCount(roster))
}

func TestEditBufferToggleContentSkipsCovered(t *testing.T) {
	content := []models.ContentItem{
		{ID: "u1", Title: "Intro", Status: models.ContentStatusCovered},
		{ID: "u2", Title: "Graphs", Status: models.ContentStatusUncovered},
	}
	b := NewEditBuffer(models.SubjectTypeTheory, content, nil)

	changed, err := b.ToggleContent("u1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, b.Contents())

	changed, err = b.ToggleContent("u2")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"u2"}, b.Contents())

	_, err = b.ToggleContent("u2")
	require.NoError(t, err)
	assert.Empty(t, b.Contents())

	_, err = b.ToggleContent("missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEditBufferPointsKeepOneEntry(t *testing.T) {
	b := NewEditBuffer(models.SubjectTypeTG, nil, nil)
	assert.Equal(t, []string{""}, b.Points())

	require.NoError(t, b.EditPoint(0, "exam prep"))
	require.NoError(t, b.AddPoint())
	assert.Equal(t, []string{"exam prep", ""}, b.Points())

	require.NoError(t, b.RemovePoint(0))
	require.NoError(t, b.RemovePoint(0))
	assert.Equal(t, []string{""}, b.Points())

	assert.ErrorIs(t, b.EditPoint(3, "x"), appErrors.ErrNotFound)
}

func TestEditBufferAuxiliaryKindGuards(t *testing.T) {
	theory := NewEditBuffer(models.SubjectTypeTheory, nil, nil)
	assert.ErrorIs(t, theory.AddPoint(), appErrors.ErrValidation)

	tg := NewEditBuffer(models.SubjectTypeTG, nil, nil)
	_, err := tg.ToggleContent("u1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
