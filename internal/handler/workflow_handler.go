package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/response"
)

type workflowRegistry interface {
	Create(ctx context.Context, sess *models.SessionContext, mode string) (*workflow.Workflow, error)
	Get(ctx context.Context, sess *models.SessionContext, id string) (*workflow.Workflow, error)
	Delete(ctx context.Context, sess *models.SessionContext, id string) error
}

// WorkflowHandler exposes attendance workflows over HTTP.
type WorkflowHandler struct {
	registry workflowRegistry
}

// NewWorkflowHandler constructs a WorkflowHandler.
func NewWorkflowHandler(registry workflowRegistry) *WorkflowHandler {
	return &WorkflowHandler{registry: registry}
}

// Create godoc
// @Summary Open workflow
// @Description Start taking (create) or revising (update) attendance
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateWorkflowRequest true "Workflow mode"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "mode must be create or update"))
		return
	}
	wf, err := h.registry.Create(c.Request.Context(), sess, req.Mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wf.Snapshot())
}

// Get godoc
// @Summary Workflow snapshot
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	h.with(c, func(_ *models.SessionContext, wf *workflow.Workflow) error { return nil })
}

// Delete godoc
// @Summary Discard workflow
// @Tags Workflows
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workflows/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if err := h.registry.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SelectSubject godoc
// @Summary Choose subject
// @Description Clears the batch and reloads pickers; loads the roster once the tuple is complete
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectSubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /workflows/{id}/subject [put]
func (h *WorkflowHandler) SelectSubject(c *gin.Context) {
	var req dto.SelectSubjectRequest
	if !bindJSON(c, &req, "subjectId is required") {
		return
	}
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.SelectSubject(c.Request.Context(), sess, req.SubjectID)
	})
}

// SelectBatch godoc
// @Summary Choose batch
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectBatchRequest true "Batch"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/batch [put]
func (h *WorkflowHandler) SelectBatch(c *gin.Context) {
	var req dto.SelectBatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.SelectBatch(c.Request.Context(), sess, req.BatchID)
	})
}

// SelectDate godoc
// @Summary Choose date
// @Description Create workflows accept today only
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectDateRequest true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/date [put]
func (h *WorkflowHandler) SelectDate(c *gin.Context) {
	var req dto.SelectDateRequest
	if !bindJSON(c, &req, "date is required") {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.SelectDate(c.Request.Context(), sess, date)
	})
}

// SetSessions godoc
// @Summary Replace session selection
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectSessionsRequest true "Sessions"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/sessions [put]
func (h *WorkflowHandler) SetSessions(c *gin.Context) {
	var req dto.SelectSessionsRequest
	if !bindJSON(c, &req, "invalid sessions payload") {
		return
	}
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.SetSessions(c.Request.Context(), sess, models.SessionLabels(req.Sessions...))
	})
}

// ToggleSession godoc
// @Summary Toggle one session
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param session path string true "Session label"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/sessions/{session}/toggle [post]
func (h *WorkflowHandler) ToggleSession(c *gin.Context) {
	label := models.SessionLabel(c.Param("session"))
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.ToggleSession(c.Request.Context(), sess, label)
	})
}

// Load godoc
// @Summary Reload roster
// @Description Discards unsaved edits and fetches the roster again
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /workflows/{id}/load [post]
func (h *WorkflowHandler) Load(c *gin.Context) {
	h.with(c, func(sess *models.SessionContext, wf *workflow.Workflow) error {
		return wf.Load(c.Request.Context(), sess)
	})
}

// ToggleStudent godoc
// @Summary Toggle a student's presence
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /workflows/{id}/students/{studentId}/toggle [post]
func (h *WorkflowHandler) ToggleStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	h.toggle(c, func(wf *workflow.Workflow) (bool, error) { return wf.TogglePresent(studentID) })
}

// SelectAll godoc
// @Summary Toggle select-all
// @Description First call marks everyone present, the next clears
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/students/select-all [post]
func (h *WorkflowHandler) SelectAll(c *gin.Context) {
	h.toggle(c, func(wf *workflow.Workflow) (bool, error) { return wf.ToggleSelectAll() })
}

// ClearAll godoc
// @Summary Mark everyone absent
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/students/clear [post]
func (h *WorkflowHandler) ClearAll(c *gin.Context) {
	h.with(c, func(_ *models.SessionContext, wf *workflow.Workflow) error { return wf.ClearAll() })
}

// ToggleContent godoc
// @Summary Toggle content coverage
// @Description Content already covered is locked and left unchanged
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param contentId path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/contents/{contentId}/toggle [post]
func (h *WorkflowHandler) ToggleContent(c *gin.Context) {
	contentID := c.Param("contentId")
	h.toggle(c, func(wf *workflow.Workflow) (bool, error) { return wf.ToggleContent(contentID) })
}

// AddPoint godoc
// @Summary Add discussion point
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param payload body dto.DiscussionPointRequest false "Initial text"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/points [post]
func (h *WorkflowHandler) AddPoint(c *gin.Context) {
	var req dto.DiscussionPointRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid discussion point") {
		return
	}
	h.with(c, func(_ *models.SessionContext, wf *workflow.Workflow) error {
		if err := wf.AddPoint(); err != nil {
			return err
		}
		if req.Text == "" {
			return nil
		}
		points := wf.Snapshot().PointsDiscussed
		return wf.EditPoint(len(points)-1, req.Text)
	})
}

// EditPoint godoc
// @Summary Edit discussion point
// @Tags Workflows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param index path int true "Point index"
// @Param payload body dto.DiscussionPointRequest true "Text"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/points/{index} [put]
func (h *WorkflowHandler) EditPoint(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	var req dto.DiscussionPointRequest
	if !bindJSON(c, &req, "invalid discussion point") {
		return
	}
	h.with(c, func(_ *models.SessionContext, wf *workflow.Workflow) error { return wf.EditPoint(index, req.Text) })
}

// RemovePoint godoc
// @Summary Remove discussion point
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Param index path int true "Point index"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/points/{index} [delete]
func (h *WorkflowHandler) RemovePoint(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	h.with(c, func(_ *models.SessionContext, wf *workflow.Workflow) error { return wf.RemovePoint(index) })
}

// Submit godoc
// @Summary Submit attendance
// @Description POSTs (create) or PUTs (update) the reconciled records; the workflow resets on success
// @Tags Workflows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /workflows/{id}/submit [post]
func (h *WorkflowHandler) Submit(c *gin.Context) {
	sess, wf, ok := h.lookup(c)
	if !ok {
		return
	}
	sub, err := wf.Submit(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SubmitResult{
		Mode:         string(sub.Mode),
		SubjectID:    sub.Tuple.SubjectID,
		Records:      len(sub.Records),
		PresentCount: sub.PresentCount(),
		Workflow:     wf.Snapshot(),
	})
}

func (h *WorkflowHandler) lookup(c *gin.Context) (*models.SessionContext, *workflow.Workflow, bool) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return nil, nil, false
	}
	wf, err := h.registry.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}
	return sess, wf, true
}

func (h *WorkflowHandler) with(c *gin.Context, fn func(sess *models.SessionContext, wf *workflow.Workflow) error) {
	sess, wf, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := fn(sess, wf); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wf.Snapshot())
}

func (h *WorkflowHandler) toggle(c *gin.Context, fn func(wf *workflow.Workflow) (bool, error)) {
	_, wf, ok := h.lookup(c)
	if !ok {
		return
	}
	value, err := fn(wf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ToggleResult{Value: value, Workflow: wf.Snapshot()})
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
