package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	attendanceStore "aquatallyon/internal/adapters/storage/attendance"
	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/domain/week"
)

// errNoSavedWeek is returned when report runs before any save.
var errNoSavedWeek = errors.New("no saved week yet; run /save in the chat first")

func newReportCmd(a *app) *cobra.Command {
	var (
		logView bool
		archive string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the last saved week",
		Long: `Print the week state written by the most recent save, rendered the way the
bot shows it in chat. Use --archive to print a closed week instead.

Examples:
  aquatallyon report
  aquatallyon report --log
  aquatallyon report --archive 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store := attendanceStore.NewSQLiteStore(db)

			var text string
			if archive != "" {
				w, err := store.GetArchive(ctx, archive)
				if err != nil {
					return err
				}
				text = render(&w, logView)
			} else {
				w, ok, err := store.LoadWeekState(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return errNoSavedWeek
				}
				text = render(&w, logView)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&logView, "log", false, "print only per-session counts")
	cmd.Flags().StringVar(&archive, "archive", "", "archived week id")
	return cmd
}

func render(w *week.WeeklyAttendance, logView bool) string {
	if logView {
		return projections.RenderLog(w)
	}
	return projections.RenderAttendance(w)
}
