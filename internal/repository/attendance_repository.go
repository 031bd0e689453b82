package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
)

// AttendanceRepository reads and writes attendance records.
type AttendanceRepository struct {
	api apiDoer
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(api apiDoer) *AttendanceRepository {
	return &AttendanceRepository{api: api}
}

// Lookup fetches roster and any saved record for a tuple (update flow). Only
// the first selected session is sent; the update flow edits one session.
func (r *AttendanceRepository) Lookup(ctx context.Context, sess *models.SessionContext, tuple models.Tuple) (*dto.UpdateLookupResponse, error) {
	q := url.Values{
		"subjectId": {tuple.SubjectID},
		"date":      {tuple.DateString()},
	}
	if len(tuple.Sessions) > 0 {
		q.Set("session", tuple.Sessions[0].String())
	}
	setIfNotEmpty(q, "batchId", tuple.EffectiveBatch())

	var resp dto.UpdateLookupResponse
	if err := r.api.Get(ctx, tokenOf(sess), pathUpdateLookup, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create records attendance for the first time.
func (r *AttendanceRepository) Create(ctx context.Context, sess *models.SessionContext, req dto.CreateAttendanceRequest) error {
	return r.api.Post(ctx, tokenOf(sess), pathAttendance, req, nil)
}

// Update revises an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, sess *models.SessionContext, req dto.UpdateAttendanceRequest) error {
	return r.api.Put(ctx, tokenOf(sess), pathAttendance, req, nil)
}
