package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/logger"
)

type selectorRepository interface {
	SubjectBatch(ctx context.Context, sess *models.SessionContext, subjectID string) (*models.Subject, error)
	AvailableSessions(ctx context.Context, sess *models.SessionContext, subjectID, batchID, date string) ([]models.SessionLabel, error)
}

// SelectorService resolves subject type, batches and available sessions for
// the parameter pickers.
type SelectorService struct {
	repo   selectorRepository
	logger *zap.Logger
}

// NewSelectorService constructs a SelectorService.
func NewSelectorService(repo selectorRepository, logger *zap.Logger) *SelectorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectorService{repo: repo, logger: logger}
}

// Options looks up the pickers for a partial tuple. ok is false only when the
// subject itself could not be resolved. A failed availability lookup keeps the
// subject and batches and leaves SessionsKnown false. Failures are logged and
// never abort the caller.
func (s *SelectorService) Options(ctx context.Context, sess *models.SessionContext, subjectID, batchID string, date time.Time) (models.SelectorOptions, bool) {
	empty := models.SelectorOptions{Batches: []string{}, AvailableSessions: []models.SessionLabel{}}
	if !models.IsSubjectSelected(subjectID) {
		return empty, false
	}
	log := logger.ForContext(ctx, s.logger).With(zap.String("subject_id", subjectID))

	subject, err := s.repo.SubjectBatch(ctx, sess, subjectID)
	if err == nil && subject == nil {
		err = appErrors.Clone(appErrors.ErrUpstream, "subject details missing from response")
	}
	if err != nil {
		log.Warn("failed to load subject batches", zap.Error(err))
		return empty, false
	}

	opts := models.SelectorOptions{
		Subject:           subject,
		Batches:           subject.Batches,
		AvailableSessions: []models.SessionLabel{},
	}
	if opts.Batches == nil {
		opts.Batches = []string{}
	}

	tuple := models.Tuple{SubjectID: subjectID, SubjectType: subject.Type, BatchID: batchID, Date: date}
	sessions, err := s.repo.AvailableSessions(ctx, sess, subjectID, tuple.EffectiveBatch(), tuple.DateString())
	if err != nil {
		log.Warn("failed to load available sessions", zap.Error(err))
		return opts, true
	}
	if sessions != nil {
		opts.AvailableSessions = sessions
	}
	opts.SessionsKnown = true
	return opts, true
}
