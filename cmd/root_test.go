package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/facereg/internal/engine"
	"github.com/andresmejia3/facereg/internal/store"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(bufio.NewReader(strings.NewReader(tt.input)), &out, "Delete?")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete? [y/N]") {
			t.Errorf("Prompt not written, got %q", out.String())
		}
	}
}

func TestStyleFor(t *testing.T) {
	if s := styleFor(engine.KindDlib, true); s.ShowScore || s.FontScale != 1.0 {
		t.Errorf("dlib live style = %+v", s)
	}
	if s := styleFor(engine.KindDlib, false); s.ShowScore || s.FontScale != 0.6 {
		t.Errorf("dlib image style = %+v", s)
	}
	for _, k := range []string{engine.KindCascade, engine.KindPigo} {
		if s := styleFor(k, true); !s.ShowScore || s.FontScale != 0.6 {
			t.Errorf("%s style = %+v", k, s)
		}
	}
}

// The tests below drive the real root command, so they share its flag state.

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("FACEREG_GALLERY", filepath.Join(dir, "env.gob"))
	t.Setenv("FACEREG_ENGINE", "cascade")

	rootCmd.SetArgs([]string{"version", "--engine", "pigo", "--threshold", "0.5"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if Cfg.Engine != "pigo" {
		t.Errorf("Expected flag engine pigo over env, got %s", Cfg.Engine)
	}
	if Cfg.Threshold == nil || *Cfg.Threshold != 0.5 {
		t.Errorf("Expected threshold 0.5, got %v", Cfg.Threshold)
	}
	if Cfg.Gallery != filepath.Join(dir, "env.gob") {
		t.Errorf("Expected env gallery when flag is not set, got %s", Cfg.Gallery)
	}
	if Cfg.EnrollDir != "cadastro" {
		t.Errorf("Expected default cadastro, got %s", Cfg.EnrollDir)
	}
}

func TestInvalidMode(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	rootCmd.SetArgs([]string{"--mode", "bogus", "--gallery", filepath.Join(dir, "g.gob")})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Errorf("Expected invalid mode error, got %v", err)
	}

	// The failed run leaves the store open for Execute to close.
	if Gallery == nil {
		t.Fatal("Expected gallery store to be open after a failed command")
	}
	closeGallery()
	if Gallery != nil {
		t.Error("Expected closeGallery to release the store")
	}
}

type closeRecorder struct {
	store.Store
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return errors.New("already closed")
}

func TestCloseGallery(t *testing.T) {
	rec := &closeRecorder{}
	Gallery = rec
	closeGallery()
	closeGallery()
	if rec.closed != 1 {
		t.Errorf("Expected one Close call, got %d", rec.closed)
	}
	if Gallery != nil {
		t.Error("Expected Gallery to be cleared")
	}
}

func TestNegativeThreshold(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	rootCmd.SetArgs([]string{"version", "--threshold", "-1"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for negative threshold")
	}
}

// chdir changes the working directory for the test and restores it on
// cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
