/*
Package config loads carecheck settings from YAML.

PURPOSE:
  Every sheet layout constant the checks depend on (scan windows, fixed
  columns, status vocabularies, duration buckets) can be overridden per
  deployment, since facility systems export slightly different sheets.
  Anything left out of the file keeps its default.

ENVIRONMENT OVERRIDES:
  CARECHECK_DB    server.db_path
  CARECHECK_PORT  server.port
  LOG_LEVEL       log.level

SEE ALSO:
  - schedule/engine.go: Consumes Reconcile
  - attendance/intervals.go: Consumes Intervals
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/schedule"
	"github.com/carecheck/attendance-engine/sheet"
)

// Config holds all carecheck configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Intervals IntervalsConfig `yaml:"intervals"`
	Vehicles  VehiclesConfig  `yaml:"vehicles"`
}

// ServerConfig configures the HTTP server and upload retention.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	DBPath          string   `yaml:"db_path"` // empty keeps uploads in memory
	AllowedOrigins  []string `yaml:"allowed_origins"`
	UploadTTL       string   `yaml:"upload_ttl"`
	JanitorInterval string   `yaml:"janitor_interval"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// ScanConfig mirrors sheet.HeaderScanner.
type ScanConfig struct {
	Window int  `yaml:"window"`
	Width  int  `yaml:"width"`
	Strict bool `yaml:"strict"`
}

func (s ScanConfig) scanner() sheet.HeaderScanner {
	return sheet.HeaderScanner{Window: s.Window, Width: s.Width, Strict: s.Strict}
}

// ScheduleSheetConfig configures the authority schedule reader.
type ScheduleSheetConfig struct {
	ScanConfig `yaml:",inline"`
	DateColumn string `yaml:"date_column"`
	NameColumn string `yaml:"name_column"`
}

// AttendanceSheetConfig configures the fixed attendance log columns.
type AttendanceSheetConfig struct {
	HeaderRows   int    `yaml:"header_rows"`
	NameColumn   string `yaml:"name_column"`
	BirthColumn  string `yaml:"birth_column"`
	DateColumn   string `yaml:"date_column"`
	StatusColumn string `yaml:"status_column"`
}

// ReconcileConfig configures the schedule verification.
type ReconcileConfig struct {
	ReportLimit     int                   `yaml:"report_limit"`
	PresentStatuses []string              `yaml:"present_statuses"`
	Master          ScanConfig            `yaml:"master"`
	Schedule        ScheduleSheetConfig   `yaml:"schedule"`
	Attendance      AttendanceSheetConfig `yaml:"attendance"`
}

// IntervalsConfig configures the session length check.
type IntervalsConfig struct {
	CeilingMinutes int                 `yaml:"ceiling_minutes"`
	Statuses       []string            `yaml:"statuses"`
	Buckets        []attendance.Bucket `yaml:"buckets"`
	StartColumn    string              `yaml:"start_column"`
	EndColumn      string              `yaml:"end_column"`
}

// VehiclesConfig configures the vehicle collision check.
type VehiclesConfig struct {
	Statuses []string `yaml:"statuses"`
	Window   int      `yaml:"window"`
}

// Default returns a configuration matching the stock sheet exports.
func Default() *Config {
	rec := schedule.DefaultScheduleOptions()
	att := schedule.DefaultAttendanceLayout()
	sessions := attendance.DefaultSessionLayout()
	intervals := attendance.DefaultIntervalOptions()
	vehicles := attendance.DefaultVehicleLayout()
	master := schedule.NewEngine().Roster.Scanner

	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			UploadTTL:       "24h",
			JanitorInterval: "10m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Reconcile: ReconcileConfig{
			ReportLimit:     schedule.DefaultReportLimit,
			PresentStatuses: att.PresentStatuses,
			Master:          ScanConfig{Window: master.Window, Width: master.Width},
			Schedule: ScheduleSheetConfig{
				ScanConfig: ScanConfig{Window: rec.Scanner.Window, Width: rec.Scanner.Width},
				DateColumn: rec.DateFallback,
				NameColumn: rec.NameFallback,
			},
			Attendance: AttendanceSheetConfig{
				HeaderRows:   att.HeaderRows,
				NameColumn:   att.NameColumn,
				BirthColumn:  att.BirthColumn,
				DateColumn:   att.DateColumn,
				StatusColumn: att.StatusColumn,
			},
		},
		Intervals: IntervalsConfig{
			CeilingMinutes: intervals.CeilingMinutes,
			Statuses:       sessions.Statuses,
			Buckets:        intervals.Buckets,
			StartColumn:    sessions.StartColumn,
			EndColumn:      sessions.EndColumn,
		},
		Vehicles: VehiclesConfig{
			Statuses: vehicles.Statuses,
			Window:   vehicles.Scanner.Window,
		},
	}
}

// Load reads configuration from a YAML file over the defaults. An empty
// path or a missing file yields the defaults. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("CARECHECK_DB"); path != "" {
		c.Server.DBPath = path
	}
	if port := os.Getenv("CARECHECK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate rejects settings the checks cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port %d out of range", c.Server.Port)
	}
	for _, d := range []struct{ key, val string }{
		{"server.upload_ttl", c.Server.UploadTTL},
		{"server.janitor_interval", c.Server.JanitorInterval},
	} {
		if v, err := time.ParseDuration(d.val); err != nil || v <= 0 {
			return invalid("%s %q is not a positive duration", d.key, d.val)
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q (valid: json, console)", c.Log.Format)
	}

	if c.Reconcile.ReportLimit <= 0 {
		return invalid("reconcile.report_limit must be positive")
	}
	if len(c.Reconcile.PresentStatuses) == 0 {
		return invalid("reconcile.present_statuses is empty")
	}
	if c.Reconcile.Attendance.HeaderRows < 0 {
		return invalid("reconcile.attendance.header_rows is negative")
	}
	for key, col := range map[string]string{
		"reconcile.schedule.date_column":     c.Reconcile.Schedule.DateColumn,
		"reconcile.schedule.name_column":     c.Reconcile.Schedule.NameColumn,
		"reconcile.attendance.name_column":   c.Reconcile.Attendance.NameColumn,
		"reconcile.attendance.birth_column":  c.Reconcile.Attendance.BirthColumn,
		"reconcile.attendance.date_column":   c.Reconcile.Attendance.DateColumn,
		"reconcile.attendance.status_column": c.Reconcile.Attendance.StatusColumn,
		"intervals.start_column":             c.Intervals.StartColumn,
		"intervals.end_column":               c.Intervals.EndColumn,
	} {
		if sheet.ColumnIndex(col) < 0 {
			return invalid("%s %q is not a column letter", key, col)
		}
	}

	if c.Intervals.CeilingMinutes <= 0 {
		return invalid("intervals.ceiling_minutes must be positive")
	}
	if len(c.Intervals.Buckets) == 0 {
		return invalid("intervals.buckets is empty")
	}
	for i, b := range c.Intervals.Buckets {
		if b.Min < 0 || b.Max <= b.Min {
			return invalid("intervals.buckets[%d] %q has empty range [%d,%d)", i, b.Label, b.Min, b.Max)
		}
		for j := 0; j < i; j++ {
			o := c.Intervals.Buckets[j]
			if b.Min < o.Max && o.Min < b.Max {
				return invalid("intervals.buckets %q and %q overlap", o.Label, b.Label)
			}
		}
	}
	if len(c.Vehicles.Statuses) == 0 {
		return invalid("vehicles.statuses is empty")
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// UploadTTL returns how long uploads are kept.
func (c *Config) UploadTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.UploadTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// JanitorInterval returns how often expired uploads are purged.
func (c *Config) JanitorInterval() time.Duration {
	d, err := time.ParseDuration(c.Server.JanitorInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Engine builds a schedule verification engine from the reconcile section.
func (c *Config) Engine() *schedule.Engine {
	e := schedule.NewEngine()
	r := c.Reconcile

	e.ReportLimit = r.ReportLimit
	e.Roster.Scanner = r.Master.scanner()

	e.Schedule.Scanner = r.Schedule.scanner()
	e.Schedule.DateFallback = r.Schedule.DateColumn
	e.Schedule.NameFallback = r.Schedule.NameColumn

	e.Attendance = schedule.AttendanceLayout{
		HeaderRows:      r.Attendance.HeaderRows,
		NameColumn:      r.Attendance.NameColumn,
		BirthColumn:     r.Attendance.BirthColumn,
		DateColumn:      r.Attendance.DateColumn,
		StatusColumn:    r.Attendance.StatusColumn,
		PresentStatuses: r.PresentStatuses,
	}
	return e
}

// SessionLayout returns the time log layout. Name, birth, date and status
// share the attendance log columns.
func (c *Config) SessionLayout() attendance.SessionLayout {
	a := c.Reconcile.Attendance
	return attendance.SessionLayout{
		HeaderRows:   a.HeaderRows,
		NameColumn:   a.NameColumn,
		BirthColumn:  a.BirthColumn,
		DateColumn:   a.DateColumn,
		StatusColumn: a.StatusColumn,
		StartColumn:  c.Intervals.StartColumn,
		EndColumn:    c.Intervals.EndColumn,
		Statuses:     c.Intervals.Statuses,
	}
}

// IntervalOptions returns the bucket settings.
func (c *Config) IntervalOptions() attendance.IntervalOptions {
	return attendance.IntervalOptions{
		CeilingMinutes: c.Intervals.CeilingMinutes,
		Buckets:        c.Intervals.Buckets,
	}
}

// VehicleLayout returns the transport log layout.
func (c *Config) VehicleLayout() attendance.VehicleLayout {
	l := attendance.DefaultVehicleLayout()
	l.Scanner.Window = c.Vehicles.Window
	l.Statuses = c.Vehicles.Statuses
	return l
}
