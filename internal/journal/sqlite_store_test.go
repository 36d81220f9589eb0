package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	store := NewSqliteStore(filepath.Join(t.TempDir(), "journal.sqlite"))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	return store
}

func TestSqliteStore_Runs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	config := map[string]string{"orientation": "zyx"}
	runID, err := store.CreateRun(ctx, "all", "/usr/local/bin/redline", config)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if runID <= 0 {
		t.Fatalf("Expected positive run ID, got %d", runID)
	}

	run, err := store.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to read run: %v", err)
	}

	if run.Mode != "all" || run.Runtime != "/usr/local/bin/redline" {
		t.Errorf("Unexpected run: %+v", run)
	}
	if run.Config == nil || *run.Config != `{"orientation":"zyx"}` {
		t.Errorf("Unexpected run config: %v", run.Config)
	}
	if time.Since(run.StartTime) > time.Hour {
		t.Errorf("Unexpected start time: %s", run.StartTime)
	}

	if _, err = store.Run(ctx, runID+100); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound for unknown run, got %v", err)
	}
}

func TestSqliteStore_LatestRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.LatestRun(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound for an empty journal, got %v", err)
	}

	for _, mode := range []string{"single", "all"} {
		if _, err := store.CreateRun(ctx, mode, "redline", nil); err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
	}

	run, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("Failed to read latest run: %v", err)
	}
	if run.ID != 2 || run.Mode != "all" {
		t.Errorf("Expected run 2 (all), got %+v", run)
	}
	if run.Config != nil {
		t.Errorf("Expected no config, got %q", *run.Config)
	}
}

func TestSqliteStore_SpecialCharactersInPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("'?' is not allowed in Windows file names")
	}

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "card 1?run#2%.sqlite")

	store := NewSqliteStore(path)
	defer store.Close()

	runID, err := store.CreateRun(ctx, "all", "redline", nil)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if _, err = store.Run(ctx, runID); err != nil {
		t.Fatalf("Failed to read run: %v", err)
	}

	if _, err = os.Stat(path); err != nil {
		t.Errorf("Expected journal at %q: %v", path, err)
	}
}

func TestDSN(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{"journal.sqlite", "file:journal.sqlite?mode=ro"},
		{"/var/lib/redgyro/journal.sqlite", "file:/var/lib/redgyro/journal.sqlite?mode=ro"},
		{"/tmp/a?b#c.sqlite", "file:/tmp/a%3Fb%23c.sqlite?mode=ro"},
	}

	for _, tc := range testCases {
		if got := dsn(tc.path, "mode=ro"); got != tc.expected {
			t.Errorf("dsn(%q): expected %q, got %q", tc.path, tc.expected, got)
		}
	}
}

func TestSqliteStore_Conversions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	runID, err := store.CreateRun(ctx, "single", "redline", nil)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	stored := []Conversion{
		{
			RunID:       runID,
			Timestamp:   time.Now(),
			Source:      "A001_C001.R3D",
			Output:      "A001_C001.gcsv",
			Outcome:     "success",
			Encoding:    "async",
			CameraModel: "KOMODO 6K",
			Samples:     2000,
			SampleRate:  1000.5,
		},
		{
			RunID:       runID,
			Timestamp:   time.Now(),
			Source:      "A001_C002.R3D",
			Outcome:     "skipped",
			Reason:      "no motion found",
			Encoding:    "per-frame",
			CameraModel: "KOMODO 6K",
		},
		{
			RunID:     runID,
			Timestamp: time.Now(),
			Source:    "A001_C003.R3D",
			Outcome:   "error",
			Encoding:  "none",
			Error:     "malformed metadata",
		},
	}

	for i := range stored {
		id, err := store.StoreConversion(ctx, &stored[i])
		if err != nil {
			t.Fatalf("Failed to store conversion %d: %v", i, err)
		}
		if id <= 0 {
			t.Errorf("Conversion %d: expected positive ID, got %d", i, id)
		}
	}

	got, err := store.Conversions(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to read conversions: %v", err)
	}
	if len(got) != len(stored) {
		t.Fatalf("Expected %d conversions, got %d", len(stored), len(got))
	}

	for i, c := range got {
		want := stored[i]
		if c.Source != want.Source || c.Output != want.Output || c.Outcome != want.Outcome ||
			c.Reason != want.Reason || c.Encoding != want.Encoding || c.CameraModel != want.CameraModel ||
			c.Samples != want.Samples || c.SampleRate != want.SampleRate || c.Error != want.Error {
			t.Errorf("Conversion %d: expected %+v, got %+v", i, want, c)
		}
		if c.RunID != runID {
			t.Errorf("Conversion %d: expected run ID %d, got %d", i, runID, c.RunID)
		}
	}

	other, err := store.Conversions(ctx, runID+1)
	if err != nil {
		t.Fatalf("Failed to read conversions: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no conversions for another run, got %d", len(other))
	}
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	store := NewSqliteStore(filepath.Join(t.TempDir(), "journal.sqlite"))
	if _, err := store.CreateRun(context.Background(), "single", "redline", "{}"); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
