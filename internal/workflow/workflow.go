package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

// Selector resolves the parameter options for a partial tuple. A false ok
// means the lookup failed and the options are empty.
type Selector interface {
	Options(ctx context.Context, sess *models.SessionContext, subjectID, batchID string, date time.Time) (models.SelectorOptions, bool)
}

// Loader fetches the roster and any saved record for a complete tuple.
type Loader interface {
	Load(ctx context.Context, sess *models.SessionContext, mode Mode, tuple models.Tuple) (*models.Roster, error)
}

// Submitter sends a reconciled submission to the backend.
type Submitter interface {
	Submit(ctx context.Context, sess *models.SessionContext, sub Submission) error
}

// Observer receives lifecycle notifications. Calls happen under the workflow lock.
type Observer interface {
	ObserveTransition(mode string, from, to string)
	ObserveStaleLoad(mode string)
}

var (
	errBusy          = appErrors.Clone(appErrors.ErrConflict, "a submission is already in progress")
	errNotLoaded     = appErrors.Clone(appErrors.ErrPreconditionFailed, "load the student list first")
	errBatchRequired = appErrors.Clone(appErrors.ErrValidation, "please select a batch")
	errSubjectType   = appErrors.Clone(appErrors.ErrPreconditionFailed, "subject details could not be loaded, try again")
	errSingleSession = appErrors.Clone(appErrors.ErrValidation, "only one session can be updated at a time")
	errCreateToday   = appErrors.Clone(appErrors.ErrValidation, "attendance can only be taken for today")
)

// Options configures a Workflow.
type Options struct {
	ID           string
	Mode         Mode
	Subjects     []string
	SessionSlots []models.SessionLabel
	Selector     Selector
	Loader       Loader
	Submitter    Submitter
	Observer     Observer
	Logger       *zap.Logger
	Clock        func() time.Time
}

// Workflow drives one attendance-taking session from parameter selection to
// submission. It is safe for concurrent use; the lock is not held across
// backend calls, and load results that arrive after a newer parameter change
// are dropped.
type Workflow struct {
	id        string
	mode      Mode
	subjects  []string
	slots     []models.SessionLabel
	selector  Selector
	loader    Loader
	submitter Submitter
	observer  Observer
	logger    *zap.Logger
	clock     func() time.Time

	mu                sync.Mutex
	state             State
	generation        uint64
	fetching          int
	tuple             models.Tuple
	subject           *models.Subject
	options           models.SelectorOptions
	availabilityKnown bool
	roster            []models.Student
	record            *models.AttendanceRecord
	buffer            *EditBuffer
	lastErr           error
	touched           time.Time
}

// New builds an idle workflow dated today.
func New(opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeCreate
	}
	w := &Workflow{
		id:        opts.ID,
		mode:      mode,
		subjects:  append([]string{}, opts.Subjects...),
		slots:     append([]models.SessionLabel{}, opts.SessionSlots...),
		selector:  opts.Selector,
		loader:    opts.Loader,
		submitter: opts.Submitter,
		observer:  opts.Observer,
		logger:    logger.With(zap.String("workflow_id", opts.ID), zap.String("mode", string(mode))),
		clock:     clock,
		state:     StateIdle,
	}
	w.tuple.Date = w.today()
	w.touched = clock()
	return w
}

// ID returns the workflow identifier.
func (w *Workflow) ID() string { return w.id }

// Mode returns the workflow mode.
func (w *Workflow) Mode() Mode { return w.mode }

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Tuple returns a copy of the current tuple.
func (w *Workflow) Tuple() models.Tuple {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tuple.Clone()
}

// LastActivity reports when the workflow last handled an event.
func (w *Workflow) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

// SelectSubject sets the subject and clears the batch, then refreshes the
// selector options and loads the roster if the tuple became complete.
func (w *Workflow) SelectSubject(ctx context.Context, sess *models.SessionContext, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if !models.IsSubjectSelected(subjectID) {
		return errSubjectRequired
	}

	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.tuple.SubjectID = subjectID
	w.tuple.SubjectType = ""
	w.tuple.BatchID = ""
	w.subject = nil
	w.options = models.SelectorOptions{}
	w.availabilityKnown = false
	gen := w.invalidateLocked()
	return w.refreshAndUnlock(ctx, sess, gen)
}

// SelectBatch sets (or clears, with an empty id) the batch.
func (w *Workflow) SelectBatch(ctx context.Context, sess *models.SessionContext, batchID string) error {
	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if !models.IsSubjectSelected(w.tuple.SubjectID) {
		w.mu.Unlock()
		return errSubjectRequired
	}
	w.tuple.BatchID = strings.TrimSpace(batchID)
	gen := w.invalidateLocked()
	return w.refreshAndUnlock(ctx, sess, gen)
}

// SelectDate sets the date. Create mode records today only.
func (w *Workflow) SelectDate(ctx context.Context, sess *models.SessionContext, date time.Time) error {
	if date.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, date.Location())

	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.mode == ModeCreate && date.Format(models.DateLayout) != w.today().Format(models.DateLayout) {
		w.mu.Unlock()
		return errCreateToday
	}
	w.tuple.Date = date
	gen := w.invalidateLocked()
	if !models.IsSubjectSelected(w.tuple.SubjectID) {
		w.mu.Unlock()
		return nil
	}
	return w.refreshAndUnlock(ctx, sess, gen)
}

// SetSessions replaces the session selection.
func (w *Workflow) SetSessions(ctx context.Context, sess *models.SessionContext, labels []models.SessionLabel) error {
	raw := make([]string, 0, len(labels))
	for _, l := range labels {
		raw = append(raw, l.String())
	}
	labels = models.SessionLabels(raw...)

	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := w.checkSessionsLocked(labels); err != nil {
		w.mu.Unlock()
		return err
	}
	w.tuple.Sessions = labels
	gen := w.invalidateLocked()
	w.mu.Unlock()
	return w.loadIfComplete(ctx, sess, gen)
}

// ToggleSession adds or removes one session. In update mode selecting a new
// session replaces the current one.
func (w *Workflow) ToggleSession(ctx context.Context, sess *models.SessionContext, label models.SessionLabel) error {
	w.mu.Lock()
	next := make([]models.SessionLabel, 0, len(w.tuple.Sessions)+1)
	switch {
	case w.tuple.HasSession(label):
		for _, s := range w.tuple.Sessions {
			if s != label {
				next = append(next, s)
			}
		}
	case w.mode == ModeUpdate:
		next = append(next, label)
	default:
		next = append(next, w.tuple.Sessions...)
		next = append(next, label)
	}
	w.mu.Unlock()
	return w.SetSessions(ctx, sess, next)
}

// Load (re)fetches the roster for the current tuple, discarding unsaved edits.
// When an earlier lookup left the subject type unknown it is retried first.
func (w *Workflow) Load(ctx context.Context, sess *models.SessionContext) error {
	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := Validate(w.tuple); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.tuple.NeedsBatch() {
		w.mu.Unlock()
		return errBatchRequired
	}
	gen := w.invalidateLocked()
	if !w.tuple.SubjectType.Valid() {
		if !w.refreshOptionsAndUnlock(ctx, sess, gen) {
			return nil
		}
		w.mu.Lock()
		if gen != w.generation {
			w.mu.Unlock()
			return nil
		}
	}
	if err := w.completeLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()
	return w.load(ctx, sess, gen)
}

// TogglePresent flips one student's present flag.
func (w *Workflow) TogglePresent(studentID string) (bool, error) {
	var present bool
	err := w.withBuffer(func(b *EditBuffer) error {
		present = b.TogglePresent(studentID)
		return nil
	})
	return present, err
}

// ToggleSelectAll alternates between marking everyone present and clearing.
func (w *Workflow) ToggleSelectAll() (bool, error) {
	var all bool
	err := w.withBuffer(func(b *EditBuffer) error {
		all = b.ToggleSelectAll(w.roster)
		return nil
	})
	return all, err
}

// SelectAll marks every roster student present.
func (w *Workflow) SelectAll() error {
	return w.withBuffer(func(b *EditBuffer) error {
		b.SelectAll(w.roster)
		return nil
	})
}

// ClearAll marks everyone absent.
func (w *Workflow) ClearAll() error {
	return w.withBuffer(func(b *EditBuffer) error {
		b.ClearAll()
		return nil
	})
}

// ToggleContent flips a content item. Covered items are left untouched.
func (w *Workflow) ToggleContent(contentID string) (bool, error) {
	var changed bool
	err := w.withBuffer(func(b *EditBuffer) error {
		var err error
		changed, err = b.ToggleContent(contentID)
		return err
	})
	return changed, err
}

// AddPoint appends a blank discussion point.
func (w *Workflow) AddPoint() error {
	return w.withBuffer(func(b *EditBuffer) error { return b.AddPoint() })
}

// EditPoint replaces a discussion point.
func (w *Workflow) EditPoint(index int, text string) error {
	return w.withBuffer(func(b *EditBuffer) error { return b.EditPoint(index, text) })
}

// RemovePoint deletes a discussion point.
func (w *Workflow) RemovePoint(index int) error {
	return w.withBuffer(func(b *EditBuffer) error { return b.RemovePoint(index) })
}

// Submit reconciles the buffer and sends it. On success the workflow returns
// to Idle; on failure the tuple and buffer are kept so the call can be retried.
func (w *Workflow) Submit(ctx context.Context, sess *models.SessionContext) (Submission, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return Submission{}, errBusy
	}
	w.touched = w.clock()
	if err := w.completeLocked(); err != nil {
		w.mu.Unlock()
		return Submission{}, err
	}
	if w.buffer == nil {
		w.mu.Unlock()
		return Submission{}, errNotLoaded
	}
	sub, err := Reconcile(w.mode, w.tuple, w.roster, w.buffer)
	if err != nil {
		w.mu.Unlock()
		return Submission{}, err
	}
	w.lastErr = nil
	w.setStateLocked(StateSubmitting)
	w.mu.Unlock()

	err = w.submitter.Submit(ctx, sess, sub)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.lastErr = err
		w.setStateLocked(StateError)
		w.logger.Debug("submission failed, keeping edits", zap.Error(err))
		return sub, err
	}
	w.logger.Debug("workflow reset after submission", zap.String("subject_id", sub.Tuple.SubjectID))
	w.resetLocked()
	return sub, nil
}

// Reset abandons the current tuple and edits.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return errBusy
	}
	w.resetLocked()
	return nil
}

// Snapshot renders the workflow for display.
func (w *Workflow) Snapshot() dto.WorkflowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := dto.WorkflowSnapshot{
		ID:    w.id,
		Mode:  string(w.mode),
		State: w.state.String(),
		Tuple: dto.WorkflowTuple{
			SubjectID:   w.tuple.SubjectID,
			SubjectType: w.tuple.SubjectType,
			BatchID:     w.tuple.BatchID,
			Date:        w.tuple.DateString(),
			Sessions:    append([]models.SessionLabel{}, w.tuple.Sessions...),
		},
		SubjectOptions: append([]string{}, w.subjects...),
		SessionSlots:   w.allowedSessionsLocked(),
		Options: models.SelectorOptions{
			Subject:           w.subject,
			Batches:           append([]string{}, w.options.Batches...),
			AvailableSessions: append([]models.SessionLabel{}, w.options.AvailableSessions...),
		},
		Students:       make([]dto.WorkflowStudent, 0, len(w.roster)),
		ExistingRecord: w.record != nil,
		Fetching:       w.fetching > 0,
		Submitting:     w.state == StateSubmitting,
	}
	if w.lastErr != nil {
		snap.LastError = w.lastErr.Error()
	}
	for _, s := range w.roster {
		snap.Students = append(snap.Students, dto.WorkflowStudent{
			Student: s,
			Present: w.buffer != nil && w.buffer.IsPresent(s.ID),
		})
	}
	if w.buffer == nil {
		return snap
	}

	snap.SelectAll = w.buffer.SelectAllActive()
	snap.PresentCount = w.buffer.PresentCount(w.roster)
	snap.AuxiliaryKind = w.buffer.Kind()
	if snap.AuxiliaryKind == models.AuxiliaryDiscussionPoints {
		snap.PointsDiscussed = w.buffer.Points()
		return snap
	}
	if w.subject != nil {
		for _, item := range w.subject.Content {
			snap.Contents = append(snap.Contents, dto.WorkflowContent{
				ContentItem: item,
				Checked:     item.Covered() || w.buffer.ContentSelected(item.ID),
				Locked:      item.Covered(),
			})
		}
	}
	return snap
}

func (w *Workflow) refreshAndUnlock(ctx context.Context, sess *models.SessionContext, gen uint64) error {
	if !w.refreshOptionsAndUnlock(ctx, sess, gen) {
		return nil
	}
	return w.loadIfComplete(ctx, sess, gen)
}

// refreshOptionsAndUnlock queries the selector and reports whether gen is
// still current.
func (w *Workflow) refreshOptionsAndUnlock(ctx context.Context, sess *models.SessionContext, gen uint64) bool {
	subjectID, batchID, date := w.tuple.SubjectID, w.tuple.EffectiveBatch(), w.tuple.Date
	w.fetching++
	w.mu.Unlock()

	opts, ok := w.selector.Options(ctx, sess, subjectID, batchID, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.fetching--
	if gen != w.generation {
		return false
	}
	w.applyOptionsLocked(opts, ok)
	return true
}

func (w *Workflow) applyOptionsLocked(opts models.SelectorOptions, ok bool) {
	if !ok {
		w.options = models.SelectorOptions{}
		w.availabilityKnown = false
		return
	}
	w.options = opts
	w.availabilityKnown = opts.SessionsKnown
	if opts.Subject != nil {
		subject := *opts.Subject
		w.subject = &subject
		w.tuple.SubjectType = subject.Type
	}
	if w.mode != ModeCreate || !opts.SessionsKnown {
		return
	}
	kept := w.tuple.Sessions[:0]
	for _, s := range w.tuple.Sessions {
		if containsLabel(opts.AvailableSessions, s) {
			kept = append(kept, s)
		}
	}
	w.tuple.Sessions = kept
}

func (w *Workflow) loadIfComplete(ctx context.Context, sess *models.SessionContext, gen uint64) error {
	w.mu.Lock()
	complete := gen == w.generation && w.tuple.Complete()
	w.mu.Unlock()
	if !complete {
		return nil
	}
	return w.load(ctx, sess, gen)
}

func (w *Workflow) load(ctx context.Context, sess *models.SessionContext, gen uint64) error {
	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return nil
	}
	tuple := w.tuple.Clone()
	w.fetching++
	w.setStateLocked(StateLoading)
	w.mu.Unlock()

	roster, err := w.loader.Load(ctx, sess, w.mode, tuple)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.fetching--
	if gen != w.generation {
		w.logger.Debug("dropping stale roster response", zap.Uint64("generation", gen), zap.Uint64("current", w.generation))
		if w.observer != nil {
			w.observer.ObserveStaleLoad(string(w.mode))
		}
		return nil
	}
	if err != nil {
		w.lastErr = err
		w.setStateLocked(StateError)
		return err
	}
	if roster == nil {
		roster = &models.Roster{}
	}

	if roster.Subject != nil {
		merged := *roster.Subject
		if w.subject != nil {
			if merged.Type == "" {
				merged.Type = w.subject.Type
			}
			if len(merged.Content) == 0 {
				merged.Content = w.subject.Content
			}
		}
		w.subject = &merged
	}
	var content []models.ContentItem
	if w.subject != nil {
		content = w.subject.Content
	}
	w.roster = append([]models.Student{}, roster.Students...)
	w.record = roster.Record
	w.buffer = NewEditBuffer(w.tuple.SubjectType, content, roster.Record)
	w.lastErr = nil
	w.setStateLocked(StateReady)
	return nil
}

func (w *Workflow) withBuffer(fn func(b *EditBuffer) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return errBusy
	}
	if w.buffer == nil {
		return errNotLoaded
	}
	w.touched = w.clock()
	return fn(w.buffer)
}

func (w *Workflow) mutableLocked() error {
	if w.state == StateSubmitting {
		return errBusy
	}
	w.touched = w.clock()
	return nil
}

func (w *Workflow) completeLocked() error {
	if err := Validate(w.tuple); err != nil {
		return err
	}
	if !w.tuple.SubjectType.Valid() {
		return errSubjectType
	}
	if w.tuple.NeedsBatch() {
		return errBatchRequired
	}
	return nil
}

func (w *Workflow) checkSessionsLocked(labels []models.SessionLabel) error {
	if w.mode == ModeUpdate && len(labels) > 1 {
		return errSingleSession
	}
	allowed := w.allowedSessionsLocked()
	if len(allowed) == 0 && !(w.mode == ModeCreate && w.availabilityKnown) {
		return nil
	}
	for _, l := range labels {
		if !containsLabel(allowed, l) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %s is not available", l))
		}
	}
	return nil
}

func (w *Workflow) allowedSessionsLocked() []models.SessionLabel {
	if w.mode == ModeCreate && w.availabilityKnown {
		return append([]models.SessionLabel{}, w.options.AvailableSessions...)
	}
	return append([]models.SessionLabel{}, w.slots...)
}

// invalidateLocked starts a new generation and drops everything tied to the
// previous tuple.
func (w *Workflow) invalidateLocked() uint64 {
	w.generation++
	w.roster = nil
	w.record = nil
	w.buffer = nil
	w.lastErr = nil
	w.setStateLocked(StateSelectingParams)
	return w.generation
}

func (w *Workflow) resetLocked() {
	w.generation++
	w.tuple = models.Tuple{Date: w.today()}
	w.subject = nil
	w.options = models.SelectorOptions{}
	w.availabilityKnown = false
	w.roster = nil
	w.record = nil
	w.buffer = nil
	w.lastErr = nil
	w.setStateLocked(StateIdle)
}

func (w *Workflow) setStateLocked(to State) {
	from := w.state
	if from == to {
		return
	}
	w.state = to
	if w.observer != nil {
		w.observer.ObserveTransition(string(w.mode), from.String(), to.String())
	}
}

func (w *Workflow) today() time.Time {
	now := w.clock()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func containsLabel(labels []models.SessionLabel, l models.SessionLabel) bool {
	for _, candidate := range labels {
		if candidate == l {
			return true
		}
	}
	return false
}
