package gcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	Magic   = "GYROFLOW IMU LOG"
	Version = "1.1"

	// Extension is the extension of written logs, including the dot
	Extension = ".gcsv"

	// SourceExtension is the extension of R3D clips, matched case-insensitively
	SourceExtension = ".r3d"

	// DevicePrefix is prepended to the camera model to form the device id
	DevicePrefix = "RED Cinema "

	DefaultOrientation = "zyx"
	DefaultNote        = "R3D to gcsv converter"
)

// ColumnHeader is the fixed sample column header, in channel order
var ColumnHeader = []string{"t", "gx", "gy", "gz", "ax", "ay", "az"}

// ErrInvalidLog is returned by Read when the input is not a gcsv log
var ErrInvalidLog = errors.New("invalid gcsv log")

// Sample is one log row. T is the time value, multiplied by the log's TScale
// to get seconds. All values are kept as the text they were extracted as.
type Sample struct {
	T  string
	Gx string
	Gy string
	Gz string
	Ax string
	Ay string
	Az string
}

// Time returns the time value in seconds
func (s Sample) Time(tscale float64) (float64, error) {
	t, err := strconv.ParseFloat(strings.TrimSpace(s.T), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s.T, err)
	}
	return t * tscale, nil
}

// Fields returns the sample in column order
func (s Sample) Fields() []string {
	return []string{s.T, s.Gx, s.Gy, s.Gz, s.Ax, s.Ay, s.Az}
}

// Log is an in-memory gcsv motion log
type Log struct {
	Version     string
	ID          string
	Orientation string
	Note        string
	TScale      float64 // seconds per time unit
	GScale      float64 // radians per gyro unit
	AScale      float64 // acceleration scale
	Samples     []Sample
}

// DeviceID returns the device identifier for a camera model
func DeviceID(cameraModel string) string {
	return DevicePrefix + cameraModel
}

// FormatScale formats a scale factor with the shortest representation that
// parses back to the same value.
func FormatScale(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write writes the log preamble, column header and samples to w
func Write(w io.Writer, log *Log) error {
	bw := bufio.NewWriter(w)

	preamble := [][2]string{
		{"version", log.Version},
		{"id", log.ID},
		{"orientation", log.Orientation},
		{"note", log.Note},
		{"tscale", FormatScale(log.TScale)},
		{"gscale", FormatScale(log.GScale)},
		{"ascale", FormatScale(log.AScale)},
	}

	if _, err := bw.WriteString(Magic + "\n"); err != nil {
		return err
	}
	for _, kv := range preamble {
		if _, err := bw.WriteString(kv[0] + "," + kv[1] + "\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString(strings.Join(ColumnHeader, ",") + "\n"); err != nil {
		return err
	}

	for _, s := range log.Samples {
		if _, err := bw.WriteString(strings.Join(s.Fields(), ",") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteFile creates or truncates path and writes the log in one pass
func WriteFile(path string, log *Log) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing log file: %w", cErr)
		}
	}()

	if err = Write(f, log); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}

	return nil
}

// OutputPath derives the log path of a clip: a ".R3D" extension, in any
// letter case, is replaced by ".gcsv", any other name gets ".gcsv" appended.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	if strings.EqualFold(ext, SourceExtension) {
		return strings.TrimSuffix(input, ext) + Extension
	}

	return input + Extension
}

// Read parses a gcsv log written by Write
func Read(r io.Reader) (*Log, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != Magic {
		return nil, fmt.Errorf("%w: missing %q header", ErrInvalidLog, Magic)
	}

	var log Log
	var inSamples bool
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		if !inSamples {
			if text == strings.Join(ColumnHeader, ",") {
				inSamples = true
				continue
			}
			key, value, ok := strings.Cut(text, ",")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: malformed preamble entry", ErrInvalidLog, line)
			}
			if err := log.setPreamble(key, value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLog, line, err)
			}
			continue
		}

		fields := strings.Split(text, ",")
		if len(fields) != len(ColumnHeader) {
			return nil, fmt.Errorf("%w: line %d: expected %d fields, got %d", ErrInvalidLog, line, len(ColumnHeader), len(fields))
		}

		log.Samples = append(log.Samples, Sample{
			T:  fields[0],
			Gx: fields[1],
			Gy: fields[2],
			Gz: fields[3],
			Ax: fields[4],
			Ay: fields[5],
			Az: fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	if !inSamples {
		return nil, fmt.Errorf("%w: missing column header", ErrInvalidLog)
	}

	return &log, nil
}

// ReadFile reads a gcsv log from path
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func (l *Log) setPreamble(key, value string) (err error) {
	switch key {
	case "version":
		l.Version = value
	case "id":
		l.ID = value
	case "orientation":
		l.Orientation = value
	case "note":
		l.Note = value
	case "tscale":
		l.TScale, err = strconv.ParseFloat(value, 64)
	case "gscale":
		l.GScale, err = strconv.ParseFloat(value, 64)
	case "ascale":
		l.AScale, err = strconv.ParseFloat(value, 64)
	default:
		// unknown keys are tolerated, other writers add their own
	}

	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}
