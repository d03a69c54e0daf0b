package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warning", WARN},
		{" error ", ERROR},
		{"bogus", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, INFO, true)

	logger.Debug("hidden")
	logger.Info("shown", map[string]interface{}{"pid": 42})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level: %s", out)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not one JSON entry: %v: %s", err, out)
	}
	if entry["message"] != "shown" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["pid"] != float64(42) {
		t.Errorf("pid = %v", entry["pid"])
	}
}

func TestDebugEnabled(t *testing.T) {
	if !New(&bytes.Buffer{}, DEBUG, false).DebugEnabled() {
		t.Error("DEBUG logger reports debug disabled")
	}
	if New(&bytes.Buffer{}, INFO, false).DebugEnabled() {
		t.Error("INFO logger reports debug enabled")
	}
	if Nop().DebugEnabled() {
		t.Error("Nop logger reports debug enabled")
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, INFO, true).WithField("component", "tunnel")

	logger.Warn("careful")

	if !strings.Contains(buf.String(), `"component":"tunnel"`) {
		t.Errorf("field missing: %s", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, INFO, false).Info("Stunnel started: 12")

	if !strings.Contains(buf.String(), "Stunnel started: 12") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tunnelsup.log")

	logger, err := NewFileLogger(path, INFO, true)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
}

func TestGenerateLogrotateConfig(t *testing.T) {
	cfg := GenerateLogrotateConfig("/var/log/sipxpbx", "sipxstunnel")

	for _, want := range []string{
		"/var/log/sipxpbx/sipxstunnel.log {",
		"kill -HUP $(cat /var/log/sipxpbx/sipxstunnel.pid)",
		"/etc/logrotate.d/sipxstunnel",
	} {
		if !strings.Contains(cfg, want) {
			t.Errorf("logrotate config missing %q:\n%s", want, cfg)
		}
	}
}
