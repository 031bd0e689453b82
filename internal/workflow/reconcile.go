package workflow

import (
	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

// Submission is a reconciled, ready-to-send attendance write.
type Submission struct {
	Mode      Mode
	Tuple     models.Tuple
	Records   []models.AttendanceEntry
	Auxiliary models.Auxiliary
}

var (
	errSubjectRequired = appErrors.Clone(appErrors.ErrValidation, "please select a subject")
	errSessionRequired = appErrors.Clone(appErrors.ErrValidation, "please select at least one session")
)

// Validate applies the pre-submit gates. It never performs I/O.
func Validate(tuple models.Tuple) error {
	if !models.IsSubjectSelected(tuple.SubjectID) {
		return errSubjectRequired
	}
	if len(tuple.Sessions) == 0 {
		return errSessionRequired
	}
	return nil
}

// Reconcile turns the roster and buffer into one entry per roster student,
// in roster order.
func Reconcile(mode Mode, tuple models.Tuple, roster []models.Student, buffer *EditBuffer) (Submission, error) {
	if err := Validate(tuple); err != nil {
		return Submission{}, err
	}
	if buffer == nil {
		buffer = NewEditBuffer(tuple.SubjectType, nil, nil)
	}

	seen := make(map[string]struct{}, len(roster))
	records := make([]models.AttendanceEntry, 0, len(roster))
	for _, s := range roster {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		status := models.AttendanceStatusAbsent
		if buffer.IsPresent(s.ID) {
			status = models.AttendanceStatusPresent
		}
		records = append(records, models.AttendanceEntry{Student: s.ID, Status: status})
	}

	return Submission{
		Mode:      mode,
		Tuple:     tuple.Clone(),
		Records:   records,
		Auxiliary: buffer.Auxiliary(),
	}, nil
}

// CreateRequest renders the POST body.
func (s Submission) CreateRequest() dto.CreateAttendanceRequest {
	req := dto.CreateAttendanceRequest{
		Subject:           s.Tuple.SubjectID,
		Session:           append([]models.SessionLabel{}, s.Tuple.Sessions...),
		AttendanceRecords: s.Records,
		BatchID:           s.batch(),
	}
	req.Contents, req.PointsDiscussed = s.auxiliaryFields()
	return req
}

// UpdateRequest renders the PUT body. Update mode carries a single session.
func (s Submission) UpdateRequest() dto.UpdateAttendanceRequest {
	req := dto.UpdateAttendanceRequest{
		Subject:           s.Tuple.SubjectID,
		Date:              s.Tuple.DateString(),
		AttendanceRecords: s.Records,
		BatchID:           s.batch(),
	}
	if len(s.Tuple.Sessions) > 0 {
		req.Session = s.Tuple.Sessions[0]
	}
	req.Contents, req.PointsDiscussed = s.auxiliaryFields()
	return req
}

// PresentCount counts present entries.
func (s Submission) PresentCount() int {
	n := 0
	for _, r := range s.Records {
		if r.Status == models.AttendanceStatusPresent {
			n++
		}
	}
	return n
}

func (s Submission) batch() *string {
	batch := s.Tuple.EffectiveBatch()
	if batch == "" {
		return nil
	}
	return &batch
}

func (s Submission) auxiliaryFields() (contents, points *[]string) {
	switch s.Auxiliary.Kind {
	case models.AuxiliaryDiscussionPoints:
		p := append([]string{}, s.Auxiliary.Points...)
		return nil, &p
	default:
		c := append([]string{}, s.Auxiliary.ContentIDs...)
		return &c, nil
	}
}
