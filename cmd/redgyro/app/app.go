package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/redgyro/internal/gcsv"
	"github.com/roman-kulish/redgyro/internal/journal"
	"github.com/roman-kulish/redgyro/internal/motion"
	"github.com/roman-kulish/redgyro/internal/preview"
	"github.com/roman-kulish/redgyro/internal/redline"
)

const (
	outcomeError     = "error"
	previewExtension = ".png"
)

var (
	// ErrFileNotFound is returned when the clip named on the command line does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrConversion wraps unexpected errors of a single clip conversion
	ErrConversion = errors.New("conversion failed")
)

// Summary counts the clips of a run by outcome
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
	Errors    int
}

// Total returns the number of processed clips
func (s Summary) Total() int {
	return s.Converted + s.Skipped + s.Failed + s.Errors
}

// Run resolves REDline, then converts the configured clip or every clip of
// the working directory, one at a time.
func Run(ctx context.Context, config *Config, logger *slog.Logger) (Summary, error) {
	runtime, err := resolveRuntime(config)
	if err != nil {
		return Summary{}, err
	}

	logger.Info("found redline", slog.String("path", runtime.Path()))

	return RunWithSource(ctx, config, runtime.Path(), redline.NewClient(runtime, redline.WithLogger(logger)), logger)
}

// RunWithSource runs the conversion with an already resolved metadata source
func RunWithSource(ctx context.Context, config *Config, runtimePath string, source motion.Source, logger *slog.Logger) (Summary, error) {
	files, err := Resolve(config.Target, config.All)
	if err != nil {
		return Summary{}, err
	}

	d, err := newDriver(ctx, config, runtimePath, source, logger)
	if err != nil {
		return Summary{}, err
	}
	defer d.close()

	if config.All {
		return d.convertAll(ctx, files)
	}

	return d.convertOne(ctx, files[0])
}

func resolveRuntime(config *Config) (redline.Runtime, error) {
	if !config.autoDetect() {
		return redline.NewRuntime(config.Redline.Path), nil
	}

	runtime, err := redline.Resolve(config.Candidates())
	if err != nil {
		return redline.Runtime{}, fmt.Errorf("locating redline, please ensure it is in the PATH: %w", err)
	}

	return runtime, nil
}

// Resolve returns the clips to convert. A single target must exist. In batch
// mode every file matching BatchPattern in the working directory is returned,
// possibly none.
func Resolve(target string, all bool) ([]string, error) {
	if all {
		files, err := filepath.Glob(BatchPattern)
		if err != nil {
			return nil, fmt.Errorf("listing clips: %w", err)
		}

		var clips []string
		for _, f := range files {
			if stat, err := os.Stat(f); err == nil && !stat.IsDir() {
				clips = append(clips, f)
			}
		}
		return clips, nil
	}

	stat, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, target)
		}
		return nil, fmt.Errorf("checking %s: %w", target, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, target)
	}

	return []string{target}, nil
}

// driver converts clips sequentially and records their outcomes
type driver struct {
	converter *motion.Converter
	renderer  *preview.Renderer
	store     journal.Store
	runID     int64
	logger    *slog.Logger
}

func newDriver(ctx context.Context, config *Config, runtimePath string, source motion.Source, logger *slog.Logger) (*driver, error) {
	d := driver{
		converter: motion.NewConverter(source,
			motion.WithLogger(logger),
			motion.WithTrimMode(config.Output.Trim),
			motion.WithOrientation(config.Output.Orientation),
			motion.WithNote(config.Output.Note),
		),
		logger: logger,
	}

	if config.Preview.Enabled {
		renderer, err := preview.NewRenderer(preview.RenderConfig{
			Width:  config.Preview.Width,
			Height: config.Preview.Height,
		})
		if err != nil {
			return nil, fmt.Errorf("creating preview renderer: %w", err)
		}
		d.renderer = renderer
	}

	if config.Journal.Path != "" {
		store := journal.NewSqliteStore(config.Journal.Path)

		runID, err := store.CreateRun(ctx, config.Mode(), runtimePath, config)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating journal run: %w", err)
		}

		d.store = store
		d.runID = runID
		logger.Info("journal enabled", slog.String("path", config.Journal.Path), slog.Int64("runID", runID))
	}

	return &d, nil
}

func (d *driver) close() {
	if d.store == nil {
		return
	}

	if err := d.store.Close(); err != nil {
		d.logger.Error(fmt.Sprintf("closing journal: %s", err.Error()))
	}
}

func (d *driver) convertOne(ctx context.Context, file string) (Summary, error) {
	var summary Summary

	result, err := d.convert(ctx, file)
	summary.add(result, err)
	if err != nil {
		return summary, fmt.Errorf("%w: %s: %w", ErrConversion, file, err)
	}

	return summary, nil
}

func (d *driver) convertAll(ctx context.Context, files []string) (Summary, error) {
	var summary Summary

	d.logger.Info("converting files (split clips may be processed multiple times)",
		slog.Int("count", len(files)),
		slog.String("files", strings.Join(files, ", ")))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := d.convert(ctx, file)
		summary.add(result, err)
		if err != nil {
			d.logger.Error(fmt.Sprintf("failed to convert file: %s", err.Error()), slog.String("file", file))
		}
	}

	d.logger.Info("batch finished",
		slog.Int("total", summary.Total()),
		slog.Int("converted", summary.Converted),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("errors", summary.Errors))

	return summary, nil
}

// convert runs one clip through the converter, writes its log and records the
// outcome. Skipped and failed clips produce no files.
func (d *driver) convert(ctx context.Context, file string) (*motion.Result, error) {
	logger := d.logger.With(slog.String("file", file))
	logger.Info("converting")

	entry := journal.Conversion{
		RunID:     d.runID,
		Timestamp: time.Now(),
		Source:    file,
		Encoding:  motion.EncodingNone.String(),
	}

	result, err := d.converter.Convert(ctx, file)
	if err == nil && result.Outcome == motion.Success {
		entry.Output, err = d.write(logger, file, result.Log)
	}

	if result != nil {
		entry.Outcome = result.Outcome.String()
		entry.Reason = result.Reason
		entry.Encoding = result.Encoding.String()
		entry.SampleRate = result.SampleRate
		if result.Camera != nil {
			entry.CameraModel = result.Camera.Model
		}
		if result.Log != nil {
			entry.Samples = len(result.Log.Samples)
		}
	}
	if err != nil {
		entry.Outcome = outcomeError
		entry.Output = ""
		entry.Error = err.Error()
	}

	d.record(ctx, logger, &entry)

	switch {
	case err != nil:
		return result, err
	case result.Outcome == motion.Success:
		logger.Info("successfully converted file", slog.String("output", entry.Output))
	default:
		logger.Warn("failed to convert file", slog.String("outcome", result.Outcome.String()), slog.String("reason", result.Reason))
	}

	return result, nil
}

func (d *driver) write(logger *slog.Logger, file string, log *gcsv.Log) (string, error) {
	output := gcsv.OutputPath(file)

	if err := gcsv.WriteFile(output, log); err != nil {
		return "", err
	}

	size := "unknown"
	if stat, err := os.Stat(output); err == nil {
		size = humanize.Bytes(uint64(stat.Size()))
	}
	logger.Info("wrote log",
		slog.String("output", output),
		slog.String("samples", humanize.Comma(int64(len(log.Samples)))),
		slog.String("size", size))

	// preview errors do not fail the clip, its log is already written
	if d.renderer != nil {
		previewPath := PreviewPath(output)
		if err := renderPreview(d.renderer, log, previewPath); err != nil {
			logger.Warn(fmt.Sprintf("failed to write preview: %s", err.Error()), slog.String("output", previewPath))
		} else {
			logger.Info("wrote preview", slog.String("output", previewPath))
		}
	}

	return output, nil
}

// PreviewPath returns the PNG path written next to a log
func PreviewPath(logPath string) string {
	return strings.TrimSuffix(logPath, gcsv.Extension) + previewExtension
}

func renderPreview(renderer *preview.Renderer, log *gcsv.Log, path string) error {
	img, err := renderer.Render(log)
	if err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}

	if err = preview.WritePNG(path, img); err != nil {
		return fmt.Errorf("writing preview: %w", err)
	}

	return nil
}

func (d *driver) record(ctx context.Context, logger *slog.Logger, entry *journal.Conversion) {
	if d.store == nil {
		return
	}

	if _, err := d.store.StoreConversion(ctx, entry); err != nil {
		logger.Error(fmt.Sprintf("recording conversion: %s", err.Error()))
	}
}

func (s *Summary) add(result *motion.Result, err error) {
	switch {
	case err != nil:
		s.Errors++
	case result.Outcome == motion.Success:
		s.Converted++
	case result.Outcome == motion.Skipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
