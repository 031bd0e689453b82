package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

func newRootCmd(preset *app) *cobra.Command {
	a := preset
	root := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Take and review attendance from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a == nil {
				loaded, err := loadApp()
				if err != nil {
					return err
				}
				a = loaded
			}
			a.out = cmd.OutOrStdout()
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil && preset == nil {
				a.close()
			}
		},
	}

	// Subcommands resolve the app lazily because PersistentPreRunE fills it in.
	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newResetPasswordCmd(get),
		newTakeCmd(get),
		newUpdateCmd(get),
		newReportCmd(get),
	)
	return root
}

func newLoginCmd(get func() *app) *cobra.Command {
	var req models.LoginRequest
	var role string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session on this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			req.Role = models.UserRole(strings.ToLower(role))
			sess, err := a.auth.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := a.auth.Remember(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", displayName(sess.User), sess.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.UserID, "id", "", "user id")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleFaculty), "faculty or student")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session stored on this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.auth.Forget(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			sess, err := a.auth.Restore(cmd.Context())
			if err != nil {
				if !errors.Is(err, appErrors.ErrNetwork) {
					return err
				}
				profile, cacheErr := a.auth.CachedProfile(cmd.Context())
				if cacheErr != nil {
					return err
				}
				printProfile(a, profile)
				fmt.Fprintln(a.out, "(offline: showing saved profile)")
				return nil
			}
			printProfile(a, sess.User)
			return nil
		},
	}
}

func newResetPasswordCmd(get func() *app) *cobra.Command {
	var req models.ResetPasswordRequest
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Change a password using the current one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			msg, err := a.auth.ResetPassword(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Identifier, "id", "", "user id")
	cmd.Flags().StringVar(&req.OldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "new password")
	return cmd
}

func newReportCmd(get func() *app) *cobra.Command {
	var query dto.ExportQuery
	var format, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show or export your attendance summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			sess, err := a.auth.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if format == "" {
				report, err := a.reports.StudentReport(cmd.Context(), sess, query.ReportQuery)
				if err != nil {
					return err
				}
				printReport(a, report)
				return nil
			}
			query.Format = dto.ExportFormat(strings.ToLower(format))
			return exportReport(cmd.Context(), a, sess, query, out)
		},
	}
	cmd.Flags().StringVar(&query.StartDate, "start", "", "first day (YYYY-MM-DD), defaults to 15 days before --end")
	cmd.Flags().StringVar(&query.EndDate, "end", "", "last day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&format, "export", "", "write a csv or pdf file instead of printing")
	cmd.Flags().StringVar(&out, "out", "", "output path for --export, defaults to the generated file name")
	return cmd
}

func exportReport(ctx context.Context, a *app, sess *models.SessionContext, query dto.ExportQuery, out string) error {
	file, err := a.reports.Export(ctx, sess, query)
	if err != nil {
		return err
	}
	if out == "" {
		out = file.Filename
	}
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(a.out, "Wrote %s\n", out)
	return nil
}

func printProfile(a *app, p *models.UserProfile) {
	if p == nil {
		return
	}
	fmt.Fprintf(a.out, "%s (%s, %s)\n", displayName(p), p.ID, p.Role)
	if p.Department != "" {
		fmt.Fprintf(a.out, "Department: %s\n", p.Department)
	}
	if len(p.Subjects) > 0 {
		fmt.Fprintf(a.out, "Subjects: %s\n", strings.Join(p.Subjects, ", "))
	}
}

func printReport(a *app, report *models.AttendanceReport) {
	fmt.Fprintf(a.out, "Attendance %s to %s\n", report.StartDate, report.EndDate)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tLECTURES\tPRESENT\tPERCENT")
	rows := append(append([]models.SubjectAttendanceTotal{}, report.Subjects...), report.Total)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", row.Name, row.TotalLectures, row.PresentCount, row.Percentage)
	}
	_ = tw.Flush()
}

func displayName(p *models.UserProfile) string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
