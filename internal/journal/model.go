package journal

import (
	"database/sql"
	"time"
)

// Run is one invocation of the converter
type Run struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	Mode      string    `json:"mode"`             // "single" or "all"
	Runtime   string    `json:"runtime"`          // Resolved REDline path
	Config    *string   `json:"config,omitempty"` // Effective configuration in JSON format
}

// Conversion is the recorded result of converting one clip
type Conversion struct {
	ID          int64     `json:"id"`
	RunID       int64     `json:"runID"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`               // Clip path
	Output      string    `json:"output,omitempty"`     // Written log path, empty unless converted
	Outcome     string    `json:"outcome"`              // success, skipped, failed or error
	Reason      string    `json:"reason,omitempty"`     // Reason reported with skipped and failed outcomes
	Encoding    string    `json:"encoding"`             // async, per-frame or none
	CameraModel string    `json:"cameraModel,omitempty"`
	Samples     int       `json:"samples"`
	SampleRate  float64   `json:"sampleRate,omitempty"` // Effective async IMU rate in Hz
	Error       string    `json:"error,omitempty"`      // Unexpected error message
}

type conversionData struct {
	ID          int64
	RunID       int64
	Timestamp   time.Time
	Source      string
	Output      sql.NullString
	Outcome     string
	Reason      sql.NullString
	Encoding    string
	CameraModel sql.NullString
	Samples     int
	SampleRate  sql.NullFloat64
	Error       sql.NullString
}
