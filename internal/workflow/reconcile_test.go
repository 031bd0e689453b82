package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

func theoryTuple() models.Tuple {
	return models.Tuple{
		SubjectID:   "CS101",
		SubjectType: models.SubjectTypeTheory,
		BatchID:     "B1",
		Date:        time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Sessions:    models.SessionLabels("1", "2"),
	}
}

func TestReconcileOneEntryPerStudent(t *testing.T) {
	roster := sampleRoster()
	cases := map[string][]string{
		"none":    nil,
		"some":    {"b"},
		"all":     {"a", "b", "c"},
		"foreign": {"a", "zzz"},
	}
	for name, present := range cases {
		t.Run(name, func(t *testing.T) {
			b := NewEditBuffer(models.SubjectTypeTheory, nil, nil)
			for _, id := range present {
				b.TogglePresent(id)
			}
			sub, err := Reconcile(ModeCreate, theoryTuple(), roster, b)
			require.NoError(t, err)
			require.Len(t, sub.Records, len(roster))
			for i, entry := range sub.Records {
				assert.Equal(t, roster[i].ID, entry.Student)
				want := models.AttendanceStatusAbsent
				if b.IsPresent(entry.Student) {
					want = models.AttendanceStatusPresent
				}
				assert.Equal(t, want, entry.Status)
			}
		})
	}
}

func TestReconcileRejectsMissingSubject(t *testing.T) {
	tuple := theoryTuple()
	tuple.SubjectID = models.SubjectPlaceholder

	_, err := Reconcile(ModeCreate, tuple, sampleRoster(), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "please select a subject", err.Error())
}

func TestReconcileRejectsMissingSession(t *testing.T) {
	tuple := theoryTuple()
	tuple.Sessions = nil

	_, err := Reconcile(ModeCreate, tuple, sampleRoster(), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "please select at least one session", err.Error())
}

func TestCreateRequestTheoryOmitsBatchAndCarriesContents(t *testing.T) {
	content := []models.ContentItem{{ID: "u2"}}
	b := NewEditBuffer(models.SubjectTypeTheory, content, nil)
	_, err := b.ToggleContent("u2")
	require.NoError(t, err)

	sub, err := Reconcile(ModeCreate, theoryTuple(), sampleRoster(), b)
	require.NoError(t, err)

	raw, err := json.Marshal(sub.CreateRequest())
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Nil(t, body["batchId"])
	assert.Equal(t, []interface{}{"1", "2"}, body["session"])
	assert.Equal(t, []interface{}{"u2"}, body["contents"])
	assert.NotContains(t, body, "pointsDiscussed")
}

func TestUpdateRequestTGCarriesTrimmedPointsOnly(t *testing.T) {
	tuple := theoryTuple()
	tuple.SubjectType = models.SubjectTypeTG
	tuple.Sessions = models.SessionLabels("3")

	b := NewEditBuffer(models.SubjectTypeTG, nil, nil)
	require.NoError(t, b.EditPoint(0, "  career talk "))
	require.NoError(t, b.AddPoint())
	require.NoError(t, b.AddPoint())
	require.NoError(t, b.EditPoint(2, "   "))

	sub, err := Reconcile(ModeUpdate, tuple, sampleRoster(), b)
	require.NoError(t, err)

	raw, err := json.Marshal(sub.UpdateRequest())
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, []interface{}{"career talk"}, body["pointsDiscussed"])
	assert.NotContains(t, body, "contents")
	assert.Equal(t, "3", body["session"])
	assert.Equal(t, "2026-10-19", body["date"])
	assert.Equal(t, "B1", body["batchId"])
}
