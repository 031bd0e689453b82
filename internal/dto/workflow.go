package dto

import (
	"github.com/noah-isme/attendance-app/internal/models"
)

// CreateWorkflowRequest opens a new attendance workflow.
type CreateWorkflowRequest struct {
	Mode string `json:"mode" binding:"required,oneof=create update"`
}

// SelectSubjectRequest chooses the subject.
type SelectSubjectRequest struct {
	SubjectID string `json:"subjectId" binding:"required"`
}

// SelectBatchRequest chooses (or clears) the batch.
type SelectBatchRequest struct {
	BatchID string `json:"batchId"`
}

// SelectDateRequest chooses the date (YYYY-MM-DD).
type SelectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

// SelectSessionsRequest replaces the session selection.
type SelectSessionsRequest struct {
	Sessions []string `json:"sessions"`
}

// DiscussionPointRequest adds or edits a discussion point.
type DiscussionPointRequest struct {
	Text string `json:"text"`
}

// WorkflowSnapshot is the read model of a workflow returned to the UI shell.
type WorkflowSnapshot struct {
	ID              string                 `json:"id"`
	Mode            string                 `json:"mode"`
	State           string                 `json:"state"`
	Tuple           WorkflowTuple          `json:"tuple"`
	SubjectOptions  []string               `json:"subjectOptions"`
	SessionSlots    []models.SessionLabel  `json:"sessionSlots"`
	Options         models.SelectorOptions `json:"options"`
	Students        []WorkflowStudent      `json:"students"`
	Contents        []WorkflowContent      `json:"contents,omitempty"`
	PointsDiscussed []string               `json:"pointsDiscussed,omitempty"`
	AuxiliaryKind   models.AuxiliaryKind   `json:"auxiliaryKind,omitempty"`
	SelectAll       bool                   `json:"selectAll"`
	PresentCount    int                    `json:"presentCount"`
	ExistingRecord  bool                   `json:"existingRecord"`
	Fetching        bool                   `json:"fetching"`
	Submitting      bool                   `json:"submitting"`
	LastError       string                 `json:"lastError,omitempty"`
}

// WorkflowTuple is the tuple as shown to the UI.
type WorkflowTuple struct {
	SubjectID   string                `json:"subjectId"`
	SubjectType models.SubjectType    `json:"subjectType,omitempty"`
	BatchID     string                `json:"batchId,omitempty"`
	Date        string                `json:"date"`
	Sessions    []models.SessionLabel `json:"sessions"`
}

// WorkflowStudent is a roster row with its present flag.
type WorkflowStudent struct {
	models.Student
	Present bool `json:"present"`
}

// WorkflowContent is a content row with its checked/locked flags.
type WorkflowContent struct {
	models.ContentItem
	Checked bool `json:"checked"`
	Locked  bool `json:"locked"`
}

// SubmitResult is returned after a successful submission.
type SubmitResult struct {
	Mode         string           `json:"mode"`
	SubjectID    string           `json:"subjectId"`
	Records      int              `json:"records"`
	PresentCount int              `json:"presentCount"`
	Workflow     WorkflowSnapshot `json:"workflow"`
}

// ToggleResult reports the outcome of a toggle action.
type ToggleResult struct {
	Value    bool             `json:"value"`
	Workflow WorkflowSnapshot `json:"workflow"`
}
