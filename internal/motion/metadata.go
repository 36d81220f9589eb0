package motion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roman-kulish/redgyro/internal/table"
)

const (
	KeyCameraModel = "Camera Model"
	KeyRecordFPS   = "Record FPS"
)

// CameraMetadata is the record metadata block of a clip
type CameraMetadata struct {
	Model  string
	FPS    float64
	Fields map[string]string
}

// parseCameraMetadata returns nil without error when the camera model is
// absent, which means REDline could not read the clip's metadata at all.
func parseCameraMetadata(s string) (*CameraMetadata, error) {
	fields := table.ParseMetadata(s)

	model, ok := fields[KeyCameraModel]
	if !ok {
		return nil, nil
	}

	rawFPS, ok := fields[KeyRecordFPS]
	if !ok {
		return nil, fmt.Errorf("%w: %q missing from record metadata", ErrMalformed, KeyRecordFPS)
	}

	fps, err := strconv.ParseFloat(strings.TrimSpace(rawFPS), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %q: %w", ErrMalformed, KeyRecordFPS, err)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: %q must be positive: %s", ErrMalformed, KeyRecordFPS, rawFPS)
	}

	return &CameraMetadata{Model: model, FPS: fps, Fields: fields}, nil
}
