package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/workflow"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

type takeOptions struct {
	subject  string
	batch    string
	date     string
	sessions []string
	present  []string
	absent   []string
	all      bool
	contents []string
	points   []string
	dryRun   bool
}

func newTakeCmd(get func() *app) *cobra.Command {
	var opts takeOptions
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take today's attendance for a subject",
		Long:  "Loads the roster for the subject, batch and sessions, marks the given students present and submits. Everyone not marked is absent.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflow(cmd.Context(), get(), workflow.ModeCreate, opts)
		},
	}
	bindTakeFlags(cmd, &opts)
	cmd.Flags().StringSliceVar(&opts.sessions, "session", nil, "session labels, repeat or comma separate")
	return cmd
}

func newUpdateCmd(get func() *app) *cobra.Command {
	var opts takeOptions
	var session string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Revise attendance already taken for one session",
		Long:  "Loads the saved record for the subject, date and session. Students keep their saved status unless --present, --absent or --all change it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.sessions = []string{session}
			return runWorkflow(cmd.Context(), get(), workflow.ModeUpdate, opts)
		},
	}
	bindTakeFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.date, "date", "", "date of the record (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&session, "session", "", "session label")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func bindTakeFlags(cmd *cobra.Command, opts *takeOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.subject, "subject", "", "subject id")
	f.StringVar(&opts.batch, "batch", "", "batch id, required for practical and tg subjects")
	f.StringSliceVar(&opts.present, "present", nil, "student ids to mark present")
	f.StringSliceVar(&opts.absent, "absent", nil, "student ids to mark absent")
	f.BoolVar(&opts.all, "all", false, "mark every student present before applying --absent")
	f.StringSliceVar(&opts.contents, "content", nil, "content ids covered in this lecture")
	f.StringArrayVar(&opts.points, "point", nil, "discussion point (tg subjects), repeatable")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the roster without submitting")
	_ = cmd.MarkFlagRequired("subject")
}

func runWorkflow(ctx context.Context, a *app, mode workflow.Mode, opts takeOptions) error {
	sess, err := a.auth.Restore(ctx)
	if err != nil {
		return err
	}
	if sess.Role() != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrForbidden, "only faculty can take attendance")
	}

	wf := workflow.New(workflow.Options{
		ID:           uuid.NewString(),
		Mode:         mode,
		Subjects:     sess.User.Subjects,
		SessionSlots: a.slots,
		Selector:     a.selector,
		Loader:       a.roster,
		Submitter:    a.submission,
		Logger:       a.logger,
	})

	if opts.date != "" {
		date, err := models.ParseDate(opts.date)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		if err := wf.SelectDate(ctx, sess, date); err != nil {
			return err
		}
	}
	if err := wf.SelectSubject(ctx, sess, opts.subject); err != nil {
		return err
	}
	if opts.batch != "" {
		if err := wf.SelectBatch(ctx, sess, opts.batch); err != nil {
			return err
		}
	}
	labels := make([]models.SessionLabel, 0, len(opts.sessions))
	for _, s := range opts.sessions {
		labels = append(labels, models.SessionLabel(s))
	}
	if err := wf.SetSessions(ctx, sess, labels); err != nil {
		return err
	}
	if !wf.Tuple().SubjectType.Valid() {
		if err := wf.Load(ctx, sess); err != nil {
			return err
		}
	}

	snap := wf.Snapshot()
	if wf.State() != workflow.StateReady {
		if snap.Tuple.SubjectType.RequiresBatch() && snap.Tuple.BatchID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "please select a batch")
		}
		if len(snap.Tuple.Sessions) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "please select at least one session")
		}
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "student list could not be loaded")
	}

	if err := applyEdits(wf, opts); err != nil {
		return err
	}

	if opts.dryRun {
		printRoster(a, wf.Snapshot())
		return nil
	}

	sub, err := wf.Submit(ctx, sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s attendance for %s on %s: %d of %d present\n",
		sub.Mode, sub.Tuple.SubjectID, sub.Tuple.DateString(), sub.PresentCount(), len(sub.Records))
	return nil
}

func applyEdits(wf *workflow.Workflow, opts takeOptions) error {
	if opts.all {
		if err := wf.SelectAll(); err != nil {
			return err
		}
	}
	onRoster := make(map[string]bool)
	for _, s := range wf.Snapshot().Students {
		onRoster[s.ID] = true
	}
	for _, id := range opts.present {
		if err := setPresent(wf, onRoster, id, true); err != nil {
			return err
		}
	}
	for _, id := range opts.absent {
		if err := setPresent(wf, onRoster, id, false); err != nil {
			return err
		}
	}
	if len(opts.contents) > 0 {
		checked := make(map[string]bool)
		for _, c := range wf.Snapshot().Contents {
			checked[c.ID] = c.Checked || c.Locked
		}
		for _, id := range opts.contents {
			if checked[id] {
				continue
			}
			if _, err := wf.ToggleContent(id); err != nil {
				return err
			}
		}
	}
	if len(opts.points) > 0 {
		return replacePoints(wf, opts.points)
	}
	return nil
}

func setPresent(wf *workflow.Workflow, onRoster map[string]bool, id string, want bool) error {
	if !onRoster[id] {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not on the roster", id))
	}
	got, err := wf.TogglePresent(id)
	if err != nil {
		return err
	}
	if got != want {
		_, err = wf.TogglePresent(id)
	}
	return err
}

func replacePoints(wf *workflow.Workflow, points []string) error {
	for n := len(wf.Snapshot().PointsDiscussed); n > 1; n-- {
		if err := wf.RemovePoint(n - 1); err != nil {
			return err
		}
	}
	for i, p := range points {
		if i > 0 {
			if err := wf.AddPoint(); err != nil {
				return err
			}
		}
		if err := wf.EditPoint(i, p); err != nil {
			return err
		}
	}
	return nil
}

func printRoster(a *app, snap dto.WorkflowSnapshot) {
	fmt.Fprintf(a.out, "%s %s sessions %v\n", snap.Tuple.SubjectID, snap.Tuple.Date, snap.Tuple.Sessions)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLL\tID\tNAME\tSTATUS")
	for _, s := range snap.Students {
		status := models.AttendanceStatusAbsent
		if s.Present {
			status = models.AttendanceStatusPresent
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.RollNumber, s.ID, s.Name, status)
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "%d of %d present\n", snap.PresentCount, len(snap.Students))
}
