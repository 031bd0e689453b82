package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
)

// SubjectRepository reads subject metadata and session availability.
type SubjectRepository struct {
	api apiDoer
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(api apiDoer) *SubjectRepository {
	return &SubjectRepository{api: api}
}

// SubjectBatch fetches type, batches and content for a subject.
func (r *SubjectRepository) SubjectBatch(ctx context.Context, sess *models.SessionContext, subjectID string) (*models.Subject, error) {
	var resp dto.SubjectBatchResponse
	if err := r.api.Get(ctx, tokenOf(sess), pathSubjectBatch, url.Values{"subjectId": {subjectID}}, &resp); err != nil {
		return nil, err
	}
	subject := resp.Subject
	if subject.ID == "" {
		subject.ID = subjectID
	}
	return &subject, nil
}

// AvailableSessions lists the sessions still selectable for subject/batch on date.
func (r *SubjectRepository) AvailableSessions(ctx context.Context, sess *models.SessionContext, subjectID, batchID, date string) ([]models.SessionLabel, error) {
	q := url.Values{"subjectId": {subjectID}}
	setIfNotEmpty(q, "batchId", batchID)
	setIfNotEmpty(q, "date", date)
	var resp dto.AvailableSessionsResponse
	if err := r.api.Get(ctx, tokenOf(sess), pathAvailableSessions, q, &resp); err != nil {
		return nil, err
	}
	out := make([]models.SessionLabel, 0, len(resp.AvailableSessions))
	for _, s := range resp.AvailableSessions {
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Batches fetches subject, batches and the batch-scoped roster used by the create flow.
func (r *SubjectRepository) Batches(ctx context.Context, sess *models.SessionContext, subjectID, batchID string) (*dto.BatchesResponse, error) {
	q := url.Values{"_id": {subjectID}, "batchId": {batchID}}
	var resp dto.BatchesResponse
	if err := r.api.Get(ctx, tokenOf(sess), pathBatches, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
