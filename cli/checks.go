package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carecheck/attendance-engine/api"
	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/render"
	"github.com/carecheck/attendance-engine/schedule"
	"github.com/carecheck/attendance-engine/sheet"
)

// sheetFlag is a file path plus an optional worksheet name.
type sheetFlag struct {
	path  string
	sheet string
}

func (f *sheetFlag) register(cmd *cobra.Command, name, usage string) {
	cmd.Flags().StringVar(&f.path, name, "", usage)
	cmd.Flags().StringVar(&f.sheet, name+"-sheet", "", "Worksheet name in the "+name+" workbook (default: first)")
	_ = cmd.MarkFlagRequired(name)
}

func (f sheetFlag) read() ([]sheet.Row, error) {
	rows, err := sheet.ReadFile(f.path, f.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return rows, nil
}

// =============================================================================
// VERIFY
// =============================================================================

func newVerifyCmd(app *App) *cobra.Command {
	var (
		master, sched, att sheetFlag
		failOnFindings     bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the authority schedule against the attendance log",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in schedule.Input
			var err error
			if in.Master, err = master.read(); err != nil {
				return err
			}
			if in.Schedule, err = sched.read(); err != nil {
				return err
			}
			if in.Attendance, err = att.read(); err != nil {
				return err
			}

			report, err := app.Config.Engine().Run(in)
			if err != nil {
				return err
			}

			c := report.Counts()
			app.Logger.Debug("schedule verified",
				zap.Int("absent", c.Absent),
				zap.Int("unscheduled", c.UnscheduledPresence),
				zap.Int("not_found", c.UnresolvedNotFound),
				zap.Int("ambiguous", c.UnresolvedAmbiguous),
			)

			err = app.output(cmd.OutOrStdout(),
				func(w io.Writer) error { return render.Schedule(w, report) },
				api.NewScheduleReportDTO(report))
			if err != nil {
				return err
			}
			if failOnFindings && !report.Clean() {
				return ErrFindings
			}
			return nil
		},
	}

	master.register(cmd, "master", "Beneficiary master list (.xlsx or .csv)")
	sched.register(cmd, "schedule", "Authority schedule (.xlsx or .csv)")
	att.register(cmd, "attendance", "Facility attendance log (.xlsx or .csv)")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "Exit non-zero when any discrepancy is found")
	return cmd
}

// =============================================================================
// TIMES
// =============================================================================

func newTimesCmd(app *App) *cobra.Command {
	var file sheetFlag

	cmd := &cobra.Command{
		Use:   "times",
		Short: "Bucket attendance sessions by length",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := file.read()
			if err != nil {
				return err
			}

			sessions, skipped := attendance.ExtractSessions(rows, app.Config.SessionLayout())
			report := attendance.Aggregate(sessions, app.Config.IntervalOptions())
			report.Skipped = skipped

			app.Logger.Debug("intervals checked",
				zap.Int("sessions", report.Sessions),
				zap.Int("skipped_rows", skipped),
			)

			return app.output(cmd.OutOrStdout(),
				func(w io.Writer) error { return render.Intervals(w, report) },
				api.NewIntervalReportDTO(report))
		},
	}

	file.register(cmd, "file", "Attendance log with in/out times (.xlsx or .csv)")
	return cmd
}

// =============================================================================
// VEHICLES
// =============================================================================

func newVehiclesCmd(app *App) *cobra.Command {
	var (
		file           sheetFlag
		failOnFindings bool
	)

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Find beneficiaries booked on the same vehicle at the same time",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := file.read()
			if err != nil {
				return err
			}

			trips, err := attendance.ExtractTrips(rows, app.Config.VehicleLayout())
			if err != nil {
				return err
			}
			collisions := attendance.DetectCollisions(trips)

			app.Logger.Debug("vehicles checked",
				zap.Int("trips", len(trips)),
				zap.Int("collisions", len(collisions)),
			)

			err = app.output(cmd.OutOrStdout(),
				func(w io.Writer) error { return render.Collisions(w, collisions) },
				api.NewCollisionReportDTO(len(trips), collisions))
			if err != nil {
				return err
			}
			if failOnFindings && len(collisions) > 0 {
				return ErrFindings
			}
			return nil
		},
	}

	file.register(cmd, "file", "Transport log (.xlsx or .csv)")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "Exit non-zero when any collision is found")
	return cmd
}
