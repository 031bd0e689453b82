package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

type nopSelector struct{}

func (nopSelector) Options(context.Context, *models.SessionContext, string, string, time.Time) (models.SelectorOptions, bool) {
	return models.SelectorOptions{}, false
}

type nopLoader struct{}

func (nopLoader) Load(context.Context, *models.SessionContext, workflow.Mode, models.Tuple) (*models.Roster, error) {
	return &models.Roster{}, nil
}

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, *models.SessionContext, workflow.Submission) error {
	return nil
}

func facultySession(token string) *models.SessionContext {
	return &models.SessionContext{Token: token, User: &models.UserProfile{ID: "F001", Role: models.RoleFaculty, Subjects: []string{"CS101"}}}
}

func newRegistry(metrics workflowMetrics) (*WorkflowService, *time.Time) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc := NewWorkflowService(nopSelector{}, nopLoader{}, nopSubmitter{}, metrics, WorkflowConfig{IdleTTL: time.Hour, SessionSlots: []string{"1", "2"}}, nil)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestWorkflowServiceCreateAndGet(t *testing.T) {
	svc, _ := newRegistry(nil)
	ctx := context.Background()

	wf, err := svc.Create(ctx, facultySession("tok-a"), "update")
	require.NoError(t, err)
	assert.Equal(t, workflow.ModeUpdate, wf.Mode())

	got, err := svc.Get(ctx, facultySession("tok-a"), wf.ID())
	require.NoError(t, err)
	assert.Same(t, wf, got)

	snap := got.Snapshot()
	assert.Equal(t, []string{"CS101"}, snap.SubjectOptions)
	assert.Equal(t, models.SessionLabels("1", "2"), snap.SessionSlots)
	assert.Equal(t, "2026-10-19", snap.Tuple.Date)
}

func TestWorkflowServiceOwnership(t *testing.T) {
	svc, _ := newRegistry(nil)
	ctx := context.Background()
	wf, err := svc.Create(ctx, facultySession("tok-a"), "create")
	require.NoError(t, err)

	_, err = svc.Get(ctx, facultySession("tok-b"), wf.ID())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Get(ctx, facultySession("tok-a"), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, facultySession("tok-b"), wf.ID()), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, facultySession("tok-a"), wf.ID()))
	assert.Zero(t, svc.Len())
}

func TestWorkflowServiceRejectsStudentsAndBadMode(t *testing.T) {
	svc, _ := newRegistry(nil)
	student := &models.SessionContext{Token: "tok", User: &models.UserProfile{ID: "S001", Role: models.RoleStudent}}

	_, err := svc.Create(context.Background(), student, "create")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(context.Background(), facultySession("tok"), "delete")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestWorkflowServiceSweepEvictsIdle(t *testing.T) {
	metrics := NewMetricsService()
	svc, now := newRegistry(metrics)
	ctx := context.Background()

	wf, err := svc.Create(ctx, facultySession("tok-a"), "create")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Snapshot().ActiveWorkflows)

	*now = now.Add(30 * time.Minute)
	assert.Zero(t, svc.Sweep())

	*now = now.Add(2 * time.Hour)
	_, err = svc.Get(ctx, facultySession("tok-a"), wf.ID())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Equal(t, 1, svc.Sweep())
	assert.Zero(t, svc.Len())
	assert.Equal(t, 0, metrics.Snapshot().ActiveWorkflows)
}
