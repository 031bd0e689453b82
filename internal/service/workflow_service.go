package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/logger"
)

type workflowMetrics interface {
	workflow.Observer
	SetActiveWorkflows(n int)
}

// WorkflowConfig tunes the workflow registry.
type WorkflowConfig struct {
	IdleTTL      time.Duration
	SessionSlots []string
}

type workflowEntry struct {
	wf    *workflow.Workflow
	owner string
}

// WorkflowService owns the gateway's in-flight workflows, keyed by id and
// scoped to the token that opened them.
type WorkflowService struct {
	selector  workflow.Selector
	loader    workflow.Loader
	submitter workflow.Submitter
	metrics   workflowMetrics
	logger    *zap.Logger
	cfg       WorkflowConfig
	slots     []models.SessionLabel
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*workflowEntry
}

// NewWorkflowService constructs the registry. metrics may be nil.
func NewWorkflowService(selector workflow.Selector, loader workflow.Loader, submitter workflow.Submitter, metrics workflowMetrics, cfg WorkflowConfig, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	return &WorkflowService{
		selector:  selector,
		loader:    loader,
		submitter: submitter,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		slots:     models.SessionLabels(cfg.SessionSlots...),
		now:       time.Now,
		entries:   make(map[string]*workflowEntry),
	}
}

// Create opens a workflow for a faculty session.
func (s *WorkflowService) Create(ctx context.Context, sess *models.SessionContext, rawMode string) (*workflow.Workflow, error) {
	if !sess.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	if sess.Role() != models.RoleFaculty {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty can take attendance")
	}
	mode, ok := workflow.ParseMode(rawMode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be create or update")
	}

	opts := workflow.Options{
		ID:           uuid.NewString(),
		Mode:         mode,
		Subjects:     sess.User.Subjects,
		SessionSlots: s.slots,
		Selector:     s.selector,
		Loader:       s.loader,
		Submitter:    s.submitter,
		Logger:       s.logger,
		Clock:        s.now,
	}
	if s.metrics != nil {
		opts.Observer = s.metrics
	}
	wf := workflow.New(opts)

	s.mu.Lock()
	s.entries[wf.ID()] = &workflowEntry{wf: wf, owner: sess.Token}
	n := len(s.entries)
	s.mu.Unlock()
	s.publish(n)

	logger.ForContext(ctx, s.logger).Info("workflow opened",
		zap.String("workflow_id", wf.ID()),
		zap.String("mode", string(mode)),
		zap.String("user_id", sess.User.ID),
	)
	return wf, nil
}

// Get returns a workflow owned by sess.
func (s *WorkflowService) Get(_ context.Context, sess *models.SessionContext, id string) (*workflow.Workflow, error) {
	if !sess.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()
	if !ok || s.expired(entry.wf) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workflow not found")
	}
	if entry.owner != sess.Token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "workflow belongs to another session")
	}
	return entry.wf, nil
}

// Delete discards a workflow owned by sess.
func (s *WorkflowService) Delete(ctx context.Context, sess *models.SessionContext, id string) error {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, id)
	n := len(s.entries)
	s.mu.Unlock()
	s.publish(n)
	return nil
}

// Sweep evicts idle workflows and returns how many were removed. A workflow
// mid-submission is never evicted.
func (s *WorkflowService) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry.wf) && entry.wf.State() != workflow.StateSubmitting {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.publish(n)
	if removed > 0 {
		s.logger.Info("evicted idle workflows", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps on every interval until ctx is cancelled.
func (s *WorkflowService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len reports how many workflows are held.
func (s *WorkflowService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *WorkflowService) expired(wf *workflow.Workflow) bool {
	return s.now().Sub(wf.LastActivity()) > s.cfg.IdleTTL
}

func (s *WorkflowService) publish(n int) {
	if s.metrics != nil {
		s.metrics.SetActiveWorkflows(n)
	}
}
