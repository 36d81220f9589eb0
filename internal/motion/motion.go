package motion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roman-kulish/redgyro/internal/gcsv"
	"github.com/roman-kulish/redgyro/internal/redline"
	"github.com/roman-kulish/redgyro/internal/table"
)

const (
	// AsyncTimeScale converts async timestamps (microseconds) to seconds
	AsyncTimeScale = 1e-6

	// AsyncGyroScale is 10 * pi/180. It is ten times PerFrameGyroScale; both
	// values match the logs produced for existing footage and are kept as is
	// until checked against ground truth.
	AsyncGyroScale = 0.1745329251

	// PerFrameGyroScale is pi/180
	PerFrameGyroScale = 0.01745329251

	AccelScale = 1
)

// Column names of the IMU tables printed by REDline
const (
	ColumnTimestamp = "Timestamp"
	ColumnFrameNo   = "FrameNo"
	ColumnRotationX = "Rotation X"
	ColumnRotationY = "Rotation Y"
	ColumnRotationZ = "Rotation Z"
	ColumnAccelX    = "Acceleration X"
	ColumnAccelY    = "Acceleration Y"
	ColumnAccelZ    = "Acceleration Z"
)

var channelColumns = []string{
	ColumnRotationX, ColumnRotationY, ColumnRotationZ,
	ColumnAccelX, ColumnAccelY, ColumnAccelZ,
}

// ErrMalformed is returned when REDline output cannot be interpreted
var ErrMalformed = errors.New("malformed metadata")

// Source runs metadata queries against a clip
type Source interface {
	Query(ctx context.Context, video string, mode redline.Mode) (stdout, stderr string, err error)
}

// WithLogger sets the logger for the converter
func WithLogger(logger *slog.Logger) func(c *Converter) {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithTrimMode sets how trailing zeros are removed from channel values
func WithTrimMode(mode TrimMode) func(c *Converter) {
	return func(c *Converter) {
		c.trim = mode
	}
}

// WithOrientation sets the orientation code written to logs
func WithOrientation(orientation string) func(c *Converter) {
	return func(c *Converter) {
		c.orientation = orientation
	}
}

// WithNote sets the free text note written to logs
func WithNote(note string) func(c *Converter) {
	return func(c *Converter) {
		c.note = note
	}
}

// Converter turns the IMU metadata of R3D clips into gcsv logs
type Converter struct {
	source      Source
	trim        TrimMode
	orientation string
	note        string
	logger      *slog.Logger
}

// NewConverter creates a new Converter with a discard logger
func NewConverter(source Source, options ...func(c *Converter)) *Converter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	c := Converter{
		source:      source,
		trim:        TrimLiteral,
		orientation: gcsv.DefaultOrientation,
		note:        gcsv.DefaultNote,
		logger:      logger,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Convert extracts the IMU data of a clip. Missing metadata, missing IMU data
// and clips without motion are reported through the Result; an error means
// REDline failed or printed something that could not be interpreted.
func (c *Converter) Convert(ctx context.Context, video string) (*Result, error) {
	logger := c.logger.With(slog.String("file", video))

	record, _, err := c.source.Query(ctx, video, redline.ModeRecord)
	if err != nil {
		return nil, fmt.Errorf("querying record metadata: %w", err)
	}

	camera, err := parseCameraMetadata(record)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		logger.Warn("no valid metadata found")
		return failed(EncodingNone, nil, ReasonNoMetadata), nil
	}

	logger.Info("camera", slog.String("model", camera.Model), slog.Float64("fps", camera.FPS))

	async, _, err := c.source.Query(ctx, video, redline.ModeAsync)
	if err != nil {
		return nil, fmt.Errorf("querying async IMU data: %w", err)
	}
	if async != "" {
		logger.Info("using async IMU data")
		return c.convertAsync(logger, camera, async)
	}

	perFrame, _, err := c.source.Query(ctx, video, redline.ModePerFrame)
	if err != nil {
		return nil, fmt.Errorf("querying per-frame IMU data: %w", err)
	}
	if perFrame != "" {
		logger.Info("using per-frame IMU data")
		return c.convertPerFrame(logger, camera, perFrame)
	}

	logger.Warn("no IMU data found")
	return failed(EncodingNone, camera, ReasonNoIMUData), nil
}

func (c *Converter) convertAsync(logger *slog.Logger, camera *CameraMetadata, data string) (*Result, error) {
	tbl, err := parseTable(data)
	if err != nil {
		return nil, err
	}

	rawTimestamps, err := tbl.Complete(ColumnTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: async IMU data: %w", ErrMalformed, err)
	}

	channels, err := c.channels(tbl)
	if err != nil {
		return nil, fmt.Errorf("async IMU data: %w", err)
	}

	if tbl.Len() == 0 {
		logger.Warn("async IMU table has no samples")
		return failed(EncodingAsync, camera, ReasonNoSamples), nil
	}

	timestamps, err := rebase(rawTimestamps)
	if err != nil {
		return nil, fmt.Errorf("async IMU data: %w", err)
	}

	times := make([]string, len(timestamps))
	for i, ts := range timestamps {
		times[i] = strconv.FormatInt(ts, 10)
	}

	log := c.newLog(camera, AsyncTimeScale, AsyncGyroScale)
	log.Samples = buildSamples(times, channels)

	result := succeeded(EncodingAsync, camera, log)

	n := len(timestamps)
	if span := timestamps[n-1] - timestamps[0]; span > 0 {
		result.SampleRate = float64(n) / (float64(span) * AsyncTimeScale)
		logger.Info("async IMU sample rate", slog.String("rate", fmt.Sprintf("%0.2fHz", result.SampleRate)))
	}

	return result, nil
}

func (c *Converter) convertPerFrame(logger *slog.Logger, camera *CameraMetadata, data string) (*Result, error) {
	tbl, err := parseTable(data)
	if err != nil {
		return nil, err
	}

	frames, err := tbl.Complete(ColumnFrameNo)
	if err != nil {
		return nil, fmt.Errorf("%w: per-frame IMU data: %w", ErrMalformed, err)
	}

	channels, err := c.channels(tbl)
	if err != nil {
		return nil, fmt.Errorf("per-frame IMU data: %w", err)
	}

	rotationX, _ := tbl.Complete(ColumnRotationX)
	moving, err := hasMotion(rotationX)
	if err != nil {
		return nil, fmt.Errorf("per-frame IMU data: %w", err)
	}
	if !moving {
		logger.Warn("no motion found, skipping")
		return skipped(EncodingPerFrame, camera, ReasonNoMotion), nil
	}

	// frame numbers are written as printed
	log := c.newLog(camera, 1/camera.FPS, PerFrameGyroScale)
	log.Samples = buildSamples(frames, channels)

	return succeeded(EncodingPerFrame, camera, log), nil
}

func (c *Converter) newLog(camera *CameraMetadata, tscale, gscale float64) *gcsv.Log {
	return &gcsv.Log{
		Version:     gcsv.Version,
		ID:          gcsv.DeviceID(camera.Model),
		Orientation: c.orientation,
		Note:        c.note,
		TScale:      tscale,
		GScale:      gscale,
		AScale:      AccelScale,
	}
}

// channels returns the six motion columns in gcsv order, trimmed
func (c *Converter) channels(tbl *table.Table) ([][]string, error) {
	channels := make([][]string, len(channelColumns))

	for i, name := range channelColumns {
		values, err := tbl.Complete(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		trimmed := make([]string, len(values))
		for j, v := range values {
			trimmed[j] = c.trim.Trim(v)
		}
		channels[i] = trimmed
	}

	return channels, nil
}

func parseTable(data string) (*table.Table, error) {
	tbl, err := table.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return tbl, nil
}

// rebase parses microsecond timestamps and shifts them so the first is zero.
// The series must not decrease.
func rebase(raw []string) ([]int64, error) {
	timestamps := make([]int64, len(raw))

	for i, s := range raw {
		ts, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid timestamp: %w", ErrMalformed, i+1, err)
		}
		timestamps[i] = ts
	}

	first := timestamps[0]
	for i := range timestamps {
		timestamps[i] -= first

		if i > 0 && timestamps[i] < timestamps[i-1] {
			return nil, fmt.Errorf("%w: row %d: timestamp goes backwards", ErrMalformed, i+1)
		}
	}

	return timestamps, nil
}

// hasMotion reports whether any rotation value is non-zero
func hasMotion(rotation []string) (bool, error) {
	for i, s := range rotation {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return false, fmt.Errorf("%w: row %d: invalid %s: %w", ErrMalformed, i+1, ColumnRotationX, err)
		}
		if v != 0 {
			return true, nil
		}
	}

	return false, nil
}

func buildSamples(times []string, channels [][]string) []gcsv.Sample {
	samples := make([]gcsv.Sample, len(times))

	for i, t := range times {
		samples[i] = gcsv.Sample{
			T:  t,
			Gx: channels[0][i],
			Gy: channels[1][i],
			Gz: channels[2][i],
			Ax: channels[3][i],
			Ay: channels[4][i],
			Az: channels[5][i],
		}
	}

	return samples
}
