package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShowError(t *testing.T) {
	var buf bytes.Buffer
	old := ErrorOutput
	ErrorOutput = &buf
	defer func() { ErrorOutput = old }()

	ShowError("Failed to load engine", errors.New("models missing"), "download the dlib models into ./models")

	out := buf.String()
	for _, want := range []string{"FACEREG ERROR: Failed to load engine", "DETAILS: models missing", "HINT: download the dlib models"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowError("Nothing enrolled", nil, "")
	if strings.Contains(buf.String(), "DETAILS") || strings.Contains(buf.String(), "HINT") {
		t.Errorf("Expected no details or hint, got:\n%s", buf.String())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ana.jpg")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("Expected file to exist")
	}
	if FileExists(dir) {
		t.Error("Directories are not files")
	}
	if FileExists(filepath.Join(dir, "missing.jpg")) {
		t.Error("Expected missing file to not exist")
	}
}
