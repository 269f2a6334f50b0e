package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"WARN", logrus.WarnLevel, false},
		{"chatty", 0, true},
	}
	for _, tt := range tests {
		l, err := New(Options{Level: tt.level, Output: &bytes.Buffer{}})
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			continue
		}
		if err == nil && l.GetLevel() != tt.want {
			t.Errorf("New(%q) level = %v, want %v", tt.level, l.GetLevel(), tt.want)
		}
	}
}

func TestNewWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{NoColor: true, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	l.WithField("name", "Ana").Info("processed")

	out := buf.String()
	if !strings.Contains(out, "processed") || !strings.Contains(out, "name:Ana") {
		t.Errorf("Unexpected log line %q", out)
	}
}

func TestNewLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facereg.log")
	l, err := New(Options{NoColor: true, File: path, Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Log file missing message: %q", data)
	}
}
