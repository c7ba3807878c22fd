package format

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

var testTime = time.Date(2026, 8, 28, 12, 0, 5, 0, time.UTC)

func record(level slog.Level, msg string, args ...any) slog.Record {
	rec := slog.NewRecord(testTime, level, msg, 0)
	rec.Add(args...)
	return rec
}

func TestFormat_Basic(t *testing.T) {
	f := NewText(config.FormatConfig{TimeFormat: "2006-01-02 15:04:05"})

	var buf bytes.Buffer
	err := f.Format(&buf, record(slog.LevelInfo, "hello"), nil, nil)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "2026-08-28 12:00:05 [INFO] hello"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_NoTimestamp(t *testing.T) {
	f := NewText(config.FormatConfig{})

	var buf bytes.Buffer
	if err := f.Format(&buf, record(slog.LevelWarn, "careful"), nil, nil); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[WARN] careful"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_Target(t *testing.T) {
	f := NewText(config.FormatConfig{})

	var buf bytes.Buffer
	rec := record(slog.LevelInfo, "motor engaged", "target", "drivetrain")
	if err := f.Format(&buf, rec, nil, nil); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[INFO] (drivetrain) motor engaged"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_Attrs(t *testing.T) {
	f := NewText(config.FormatConfig{})

	var buf bytes.Buffer
	rec := record(slog.LevelInfo, "request done", "status", 200, "path", "/health")
	bound := []slog.Attr{slog.String("host", "unit-7")}
	if err := f.Format(&buf, rec, bound, nil); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[INFO] request done host=unit-7 status=200 path=/health"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_Groups(t *testing.T) {
	f := NewText(config.FormatConfig{})

	var buf bytes.Buffer
	rec := record(slog.LevelInfo, "saved", "id", 42)
	if err := f.Format(&buf, rec, nil, []string{"db"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[INFO] saved db.id=42"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_GroupAttr(t *testing.T) {
	f := NewText(config.FormatConfig{})

	var buf bytes.Buffer
	rec := record(slog.LevelInfo, "saved")
	rec.AddAttrs(slog.Group("req", slog.String("method", "GET")))
	if err := f.Format(&buf, rec, nil, nil); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[INFO] saved req.method=GET"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormat_TargetFilters(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.FormatConfig
		target  string
		wantOut bool
	}{
		{
			name:    "no filters passes everything",
			cfg:     config.FormatConfig{},
			target:  "anything",
			wantOut: true,
		},
		{
			name:    "allow match passes",
			cfg:     config.FormatConfig{AllowTargets: []string{"drivetrain"}},
			target:  "drivetrain.motor",
			wantOut: true,
		},
		{
			name:    "allow miss suppresses",
			cfg:     config.FormatConfig{AllowTargets: []string{"drivetrain"}},
			target:  "telemetry",
			wantOut: false,
		},
		{
			name:    "deny match suppresses",
			cfg:     config.FormatConfig{DenyTargets: []string{"telemetry"}},
			target:  "telemetry.gps",
			wantOut: false,
		},
		{
			name: "deny wins over allow",
			cfg: config.FormatConfig{
				AllowTargets: []string{"drivetrain"},
				DenyTargets:  []string{"drivetrain.debug"},
			},
			target:  "drivetrain.debug",
			wantOut: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewText(tt.cfg)

			var buf bytes.Buffer
			rec := record(slog.LevelInfo, "msg", "target", tt.target)
			if err := f.Format(&buf, rec, nil, nil); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			if got := buf.Len() > 0; got != tt.wantOut {
				t.Errorf("output produced = %v, want %v (buf %q)", got, tt.wantOut, buf.String())
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.Level(-8), "TRACE"},
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
		{slog.LevelError + 4, "ERROR"},
	}

	for _, tt := range tests {
		if got := levelString(tt.level); got != tt.expected {
			t.Errorf("levelString(%v) = %q, want %q", tt.level, got, tt.expected)
		}
	}
}
