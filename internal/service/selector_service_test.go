package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

type stubSelectorRepo struct {
	subject      *models.Subject
	subjectErr   error
	sessions     []models.SessionLabel
	sessionsErr  error
	sessionCalls []string
}

func (s *stubSelectorRepo) SubjectBatch(ctx context.Context, sess *models.SessionContext, subjectID string) (*models.Subject, error) {
	if s.subjectErr != nil {
		return nil, s.subjectErr
	}
	return s.subject, nil
}

func (s *stubSelectorRepo) AvailableSessions(ctx context.Context, sess *models.SessionContext, subjectID, batchID, date string) ([]models.SessionLabel, error) {
	s.sessionCalls = append(s.sessionCalls, subjectID+"|"+batchID+"|"+date)
	return s.sessions, s.sessionsErr
}

func TestSelectorOptionsPractical(t *testing.T) {
	repo := &stubSelectorRepo{
		subject:  &models.Subject{ID: "CS102", Type: models.SubjectTypePractical, Batches: []string{"B2", "B1"}},
		sessions: models.SessionLabels("1", "3"),
	}
	svc := NewSelectorService(repo, nil)

	opts, ok := svc.Options(context.Background(), nil, "CS102", "B2", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, opts.SessionsKnown)
	assert.Equal(t, []string{"B2", "B1"}, opts.Batches)
	assert.Equal(t, models.SessionLabels("1", "3"), opts.AvailableSessions)
	assert.Equal(t, []string{"CS102|B2|2026-10-19"}, repo.sessionCalls)
}

func TestSelectorOptionsTheoryDropsBatch(t *testing.T) {
	repo := &stubSelectorRepo{subject: &models.Subject{ID: "CS101", Type: models.SubjectTypeTheory}}
	svc := NewSelectorService(repo, nil)

	opts, ok := svc.Options(context.Background(), nil, "CS101", "B9", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Empty(t, opts.Batches)
	assert.NotNil(t, opts.Batches)
	assert.Equal(t, []string{"CS101||2026-10-19"}, repo.sessionCalls)
}

func TestSelectorOptionsFailureIsSwallowed(t *testing.T) {
	svc := NewSelectorService(&stubSelectorRepo{subjectErr: appErrors.Clone(appErrors.ErrNetwork, "")}, nil)

	opts, ok := svc.Options(context.Background(), nil, "CS101", "", time.Now())
	assert.False(t, ok)
	assert.Empty(t, opts.Batches)
	assert.Empty(t, opts.AvailableSessions)

	_, ok = svc.Options(context.Background(), nil, models.SubjectPlaceholder, "", time.Now())
	assert.False(t, ok)
}

func TestSelectorOptionsKeepsSubjectWhenAvailabilityFails(t *testing.T) {
	repo := &stubSelectorRepo{
		subject:     &models.Subject{ID: "TG1", Type: models.SubjectTypeTG, Batches: []string{"B1"}},
		sessionsErr: appErrors.Clone(appErrors.ErrUpstream, ""),
	}
	svc := NewSelectorService(repo, nil)

	opts, ok := svc.Options(context.Background(), nil, "TG1", "B1", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.NotNil(t, opts.Subject)
	assert.Equal(t, models.SubjectTypeTG, opts.Subject.Type)
	assert.Equal(t, []string{"B1"}, opts.Batches)
	assert.False(t, opts.SessionsKnown)
	assert.Empty(t, opts.AvailableSessions)
	assert.NotNil(t, opts.AvailableSessions)
}
