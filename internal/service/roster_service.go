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

type rosterSubjectRepository interface {
	Batches(ctx context.Context, sess *models.SessionContext, subjectID, batchID string) (*dto.BatchesResponse, error)
}

type rosterAttendanceRepository interface {
	Lookup(ctx context.Context, sess *models.SessionContext, tuple models.Tuple) (*dto.UpdateLookupResponse, error)
}

// RosterService loads the students and any saved record for a complete tuple.
type RosterService struct {
	subjects   rosterSubjectRepository
	attendance rosterAttendanceRepository
	logger     *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(subjects rosterSubjectRepository, attendance rosterAttendanceRepository, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{subjects: subjects, attendance: attendance, logger: logger}
}

// Load fetches the roster sorted by roll number. Create mode reads the batch
// listing, update mode reads the saved record for the tuple's session.
func (s *RosterService) Load(ctx context.Context, sess *models.SessionContext, mode workflow.Mode, tuple models.Tuple) (*models.Roster, error) {
	if err := workflow.Validate(tuple); err != nil {
		return nil, err
	}
	if tuple.NeedsBatch() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please select a batch")
	}
	log := logger.ForContext(ctx, s.logger).With(
		zap.String("mode", string(mode)),
		zap.String("subject_id", tuple.SubjectID),
		zap.String("batch_id", tuple.EffectiveBatch()),
	)

	roster := &models.Roster{}
	switch mode {
	case workflow.ModeUpdate:
		resp, err := s.attendance.Lookup(ctx, sess, tuple)
		if err != nil {
			log.Warn("failed to load saved attendance", zap.Error(err))
			return nil, err
		}
		roster.Students = resp.Students
		roster.Record = resp.AttendanceRecord
	default:
		resp, err := s.subjects.Batches(ctx, sess, tuple.SubjectID, tuple.EffectiveBatch())
		if err != nil {
			log.Warn("failed to load roster", zap.Error(err))
			return nil, err
		}
		roster.Subject = resp.Subject
		roster.Batches = resp.Batches
		roster.Students = resp.Students
		roster.Record = resp.AttendanceRecord
	}

	if roster.Students == nil {
		roster.Students = []models.Student{}
	}
	models.SortStudents(roster.Students)
	log.Debug("roster loaded", zap.Int("students", len(roster.Students)), zap.Bool("existing_record", roster.Existing()))
	return roster, nil
}
