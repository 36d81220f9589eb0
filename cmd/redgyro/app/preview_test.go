package app

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/redgyro/internal/gcsv"
)

func writeTestLog(t *testing.T, path string) {
	t.Helper()

	log := &gcsv.Log{
		Version:     gcsv.Version,
		ID:          gcsv.DeviceID("KOMODO 6K"),
		Orientation: gcsv.DefaultOrientation,
		Note:        gcsv.DefaultNote,
		TScale:      1.0 / 24,
		GScale:      0.01745329251,
		AScale:      1,
		Samples: []gcsv.Sample{
			{T: "0001", Gx: "0.5", Gy: "-0.5", Gz: "", Ax: "", Ay: "-1.", Az: ""},
			{T: "0002", Gx: "1.5", Gy: "-1.", Gz: "0.25", Ax: "", Ay: "-1.", Az: ""},
			{T: "0003", Gx: "-2.", Gy: "1.", Gz: "0.5", Ax: "", Ay: "-1.", Az: ""},
		},
	}

	if err := gcsv.WriteFile(path, log); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "A001_C001.gcsv")
	writeTestLog(t, logPath)

	config := NewConfig()
	config.Preview.Width = 300
	config.Preview.Height = 120

	logger, _ := newTestLogger()

	output, err := Preview(config, logPath, "", logger)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if expected := filepath.Join(dir, "A001_C001.png"); output != expected {
		t.Errorf("Expected output %q, got %q", expected, output)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("Failed to open preview: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode preview: %v", err)
	}
	if img.Bounds().Dx() <= 300 || img.Bounds().Dy() <= 120 {
		t.Errorf("Expected plot area plus borders, got %v", img.Bounds())
	}

	custom := filepath.Join(dir, "custom.png")
	if output, err = Preview(config, logPath, custom, logger); err != nil || output != custom {
		t.Errorf("Expected preview at %q, got %q (%v)", custom, output, err)
	}
	if !exists(custom) {
		t.Error("Expected custom preview file")
	}
}

func TestPreview_Errors(t *testing.T) {
	dir := t.TempDir()
	logger, _ := newTestLogger()

	if _, err := Preview(NewConfig(), filepath.Join(dir, "missing.gcsv"), "", logger); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}

	invalid := filepath.Join(dir, "invalid.gcsv")
	if err := os.WriteFile(invalid, []byte("not a log\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Preview(NewConfig(), invalid, "", logger); !errors.Is(err, gcsv.ErrInvalidLog) {
		t.Errorf("Expected ErrInvalidLog, got %v", err)
	}
}

func TestPreviewPath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"A001_C001.gcsv", "A001_C001.png"},
		{filepath.Join("clips", "A001.gcsv"), filepath.Join("clips", "A001.png")},
		{"log.txt", "log.txt.png"},
	}

	for _, tc := range testCases {
		if got := PreviewPath(tc.input); got != tc.expected {
			t.Errorf("PreviewPath(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}
