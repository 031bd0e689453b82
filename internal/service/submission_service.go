package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/logger"
)

type submissionRepository interface {
	Create(ctx context.Context, sess *models.SessionContext, req dto.CreateAttendanceRequest) error
	Update(ctx context.Context, sess *models.SessionContext, req dto.UpdateAttendanceRequest) error
}

type submissionRecorder interface {
	RecordSubmission(mode string, err error)
}

// SubmissionService sends reconciled attendance to the backend.
type SubmissionService struct {
	repo    submissionRepository
	metrics submissionRecorder
	logger  *zap.Logger
}

// NewSubmissionService constructs a SubmissionService. metrics may be nil.
func NewSubmissionService(repo submissionRepository, metrics submissionRecorder, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, metrics: metrics, logger: logger}
}

// Submit POSTs a create or PUTs an update. Nothing is retried.
func (s *SubmissionService) Submit(ctx context.Context, sess *models.SessionContext, sub workflow.Submission) error {
	if err := workflow.Validate(sub.Tuple); err != nil {
		return err
	}
	log := logger.ForContext(ctx, s.logger).With(
		zap.String("mode", string(sub.Mode)),
		zap.String("subject_id", sub.Tuple.SubjectID),
	)

	var err error
	switch sub.Mode {
	case workflow.ModeUpdate:
		if len(sub.Tuple.Sessions) != 1 {
			return appErrors.Clone(appErrors.ErrValidation, "only one session can be updated at a time")
		}
		err = s.repo.Update(ctx, sess, sub.UpdateRequest())
	case workflow.ModeCreate:
		err = s.repo.Create(ctx, sess, sub.CreateRequest())
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown workflow mode")
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission(string(sub.Mode), err)
	}
	if err != nil {
		log.Warn("attendance submission rejected", zap.Error(err))
		return err
	}
	log.Info("attendance saved", zap.Int("records", len(sub.Records)), zap.Int("present", sub.PresentCount()))
	return nil
}
