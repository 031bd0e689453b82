package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTupleCompleteTheoryIgnoresBatch(t *testing.T) {
	tuple := Tuple{SubjectID: "DBMS", SubjectType: SubjectTypeTheory, Date: time.Now(), Sessions: []SessionLabel{"1"}}
	assert.True(t, tuple.Complete())
	tuple.BatchID = "A"
	assert.Equal(t, "", tuple.EffectiveBatch())
}

func TestTupleCompletePracticalNeedsBatch(t *testing.T) {
	tuple := Tuple{SubjectID: "DBMS-LAB", SubjectType: SubjectTypePractical, Date: time.Now(), Sessions: []SessionLabel{"1"}}
	assert.False(t, tuple.Complete())
	assert.True(t, tuple.NeedsBatch())
	tuple.BatchID = "B1"
	assert.True(t, tuple.Complete())
	assert.Equal(t, "B1", tuple.EffectiveBatch())
}

func TestTupleIncomplete(t *testing.T) {
	assert.False(t, Tuple{SubjectID: SubjectPlaceholder, Date: time.Now(), Sessions: []SessionLabel{"1"}}.Complete())
	assert.False(t, Tuple{SubjectID: "DBMS", Date: time.Now()}.Complete())
	assert.False(t, Tuple{SubjectID: "DBMS", Sessions: []SessionLabel{"1"}}.Complete())
}

func TestTupleUnknownTypeIsIncomplete(t *testing.T) {
	tuple := Tuple{SubjectID: "DBMS-LAB", Date: time.Now(), Sessions: []SessionLabel{"1"}}
	assert.False(t, tuple.NeedsBatch())
	assert.False(t, tuple.Complete())
	tuple.SubjectType = SubjectTypeTG
	assert.False(t, tuple.Complete())
}

func TestDiscussionPointsTrimsBlanks(t *testing.T) {
	aux := DiscussionPoints([]string{"  career goals ", "", "   ", "attendance"})
	assert.Equal(t, AuxiliaryDiscussionPoints, aux.Kind)
	assert.Equal(t, []string{"career goals", "attendance"}, aux.Points)
	assert.Nil(t, aux.ContentIDs)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(5, 5))
}
