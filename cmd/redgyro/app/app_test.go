package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/roman-kulish/redgyro/internal/gcsv"
	"github.com/roman-kulish/redgyro/internal/journal"
	"github.com/roman-kulish/redgyro/internal/redline"
)

const (
	record    = "Camera Model:\tKOMODO 6K\nRecord FPS:\t24\n"
	imuHeader = "Rotation X,Rotation Y,Rotation Z,Acceleration X,Acceleration Y,Acceleration Z\n"
)

// clipSource answers queries per clip from canned outputs
type clipSource map[string]map[redline.Mode]string

func (s clipSource) Query(_ context.Context, video string, mode redline.Mode) (string, string, error) {
	return s[filepath.Base(video)][mode], "", nil
}

func testSource() clipSource {
	return clipSource{
		"A001_C001.R3D": {
			redline.ModeRecord: record,
			redline.ModeAsync: "Timestamp," + imuHeader +
				"1000,10,0.1,0.2,0.3,0.4,0.5\n" +
				"2000,20,0.1,0.2,0.3,0.4,0.5\n" +
				"3000,30,0.1,0.2,0.3,0.4,0.5\n",
		},
		"A001_C002.R3D": {
			redline.ModeRecord:   record,
			redline.ModePerFrame: "FrameNo," + imuHeader + "0,0.0,1,1,1,1,1\n1,0.0,1,1,1,1,1\n",
		},
		"A001_C003.R3D": {},
		"A001_C004.R3D": {
			redline.ModeRecord: record,
			redline.ModeAsync:  "Timestamp," + imuHeader + "1000,10\n",
		},
	}
}

// chdir switches to dir for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err = os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
}

func touch(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if err := os.WriteFile(name, []byte("r3d"), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
}

func exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestResolve(t *testing.T) {
	chdir(t, t.TempDir())
	touch(t, "A001_C001.R3D", "A001_C002.R3D", "lower.r3d", "notes.txt")
	if err := os.Mkdir("DIR.R3D", 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	files, err := Resolve("", true)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !slices.Equal(files, []string{"A001_C001.R3D", "A001_C002.R3D"}) {
		t.Errorf("Unexpected batch files: %v", files)
	}

	files, err = Resolve("lower.r3d", false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !slices.Equal(files, []string{"lower.r3d"}) {
		t.Errorf("Unexpected single file: %v", files)
	}

	for _, target := range []string{"missing.R3D", "DIR.R3D"} {
		if _, err = Resolve(target, false); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Resolve(%q): expected ErrFileNotFound, got %v", target, err)
		}
	}
}

func TestResolve_NoClips(t *testing.T) {
	chdir(t, t.TempDir())

	files, err := Resolve("", true)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestRunWithSource_All(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	touch(t, "A001_C001.R3D", "A001_C002.R3D", "A001_C003.R3D", "A001_C004.R3D")

	config := NewConfig()
	config.All = true
	config.Journal.Path = filepath.Join(dir, "journal.sqlite")
	config.Preview.Enabled = true
	config.Preview.Width = 200
	config.Preview.Height = 100

	logger, logs := newTestLogger()
	summary, err := RunWithSource(context.Background(), config, "/opt/redline", testSource(), logger)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expected := Summary{Converted: 1, Skipped: 1, Failed: 1, Errors: 1}
	if summary != expected {
		t.Errorf("Expected summary %+v, got %+v", expected, summary)
	}

	if !exists("A001_C001.gcsv") || !exists("A001_C001.png") {
		t.Error("Expected log and preview for the converted clip")
	}
	for _, name := range []string{"A001_C002.gcsv", "A001_C003.gcsv", "A001_C004.gcsv"} {
		if exists(name) {
			t.Errorf("Expected no log for %s", name)
		}
	}

	log, err := gcsv.ReadFile("A001_C001.gcsv")
	if err != nil {
		t.Fatalf("Failed to read written log: %v", err)
	}
	if len(log.Samples) != 3 || log.Samples[0].T != "0" || log.Samples[2].Gx != "3" {
		t.Errorf("Unexpected written samples: %+v", log.Samples)
	}

	if !strings.Contains(logs.String(), "successfully converted file") {
		t.Error("Expected a success line in the log output")
	}

	store := journal.NewSqliteStore(config.Journal.Path)
	defer store.Close()

	conversions, err := store.Conversions(context.Background(), 1)
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}

	outcomes := make([]string, len(conversions))
	for i, c := range conversions {
		outcomes[i] = c.Outcome
	}
	if !slices.Equal(outcomes, []string{"success", "skipped", "failed", "error"}) {
		t.Errorf("Unexpected journal outcomes: %v", outcomes)
	}
	if conversions[0].Output != "A001_C001.gcsv" || conversions[0].Samples != 3 || conversions[0].Encoding != "async" {
		t.Errorf("Unexpected journal entry: %+v", conversions[0])
	}
}

func TestRunWithSource_AllNoClips(t *testing.T) {
	chdir(t, t.TempDir())

	config := NewConfig()
	config.All = true

	logger, _ := newTestLogger()
	summary, err := RunWithSource(context.Background(), config, "redline", testSource(), logger)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total() != 0 {
		t.Errorf("Expected empty summary, got %+v", summary)
	}
}

func TestRunWithSource_Single(t *testing.T) {
	chdir(t, t.TempDir())
	touch(t, "A001_C001.R3D", "A001_C003.R3D", "A001_C004.R3D")

	logger, _ := newTestLogger()

	testCases := []struct {
		name     string
		target   string
		expected Summary
		err      error
	}{
		{"converted", "A001_C001.R3D", Summary{Converted: 1}, nil},
		{"no metadata", "A001_C003.R3D", Summary{Failed: 1}, nil},
		{"malformed", "A001_C004.R3D", Summary{Errors: 1}, ErrConversion},
		{"missing", "A001_C009.R3D", Summary{}, ErrFileNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := NewConfig()
			config.Target = tc.target

			summary, err := RunWithSource(context.Background(), config, "redline", testSource(), logger)
			if tc.err == nil && err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Fatalf("Expected %v, got %v", tc.err, err)
			}
			if summary != tc.expected {
				t.Errorf("Expected summary %+v, got %+v", tc.expected, summary)
			}
		})
	}
}

func TestRunWithSource_PreviewFailure(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	touch(t, "A001_C001.R3D")

	// a directory in place of the PNG makes the preview unwritable
	if err := os.Mkdir("A001_C001.png", 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	config := NewConfig()
	config.Target = "A001_C001.R3D"
	config.Journal.Path = filepath.Join(dir, "journal.sqlite")
	config.Preview.Enabled = true

	logger, logs := newTestLogger()
	summary, err := RunWithSource(context.Background(), config, "redline", testSource(), logger)
	if err != nil {
		t.Fatalf("Expected the clip to convert despite the preview, got %v", err)
	}
	if summary != (Summary{Converted: 1}) {
		t.Errorf("Expected one converted clip, got %+v", summary)
	}
	if !exists("A001_C001.gcsv") {
		t.Error("Expected the log to be written")
	}
	if !strings.Contains(logs.String(), "failed to write preview") {
		t.Error("Expected a preview warning in the log output")
	}

	store := journal.NewSqliteStore(config.Journal.Path)
	defer store.Close()

	conversions, err := store.Conversions(context.Background(), 1)
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}
	if len(conversions) != 1 || conversions[0].Outcome != "success" || conversions[0].Output != "A001_C001.gcsv" {
		t.Errorf("Expected a successful journal entry, got %+v", conversions)
	}
}

func TestRun_RedlineNotFound(t *testing.T) {
	config := NewConfig()
	config.Target = "A001_C001.R3D"
	config.Redline.Candidates = []string{filepath.Join(t.TempDir(), "missing-redline")}

	logger, _ := newTestLogger()
	_, err := Run(context.Background(), config, logger)

	var runtimeErr *redline.RuntimeError
	if !errors.As(err, &runtimeErr) {
		t.Errorf("Expected RuntimeError, got %v", err)
	}
}
