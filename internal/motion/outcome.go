package motion

import (
	"github.com/roman-kulish/redgyro/internal/gcsv"
)

const (
	Success Outcome = iota
	Skipped
	Failed
)

const (
	EncodingNone Encoding = iota
	EncodingAsync
	EncodingPerFrame
)

// Reasons reported with Skipped and Failed outcomes
const (
	ReasonNoMetadata = "no metadata"
	ReasonNoIMUData  = "no IMU data"
	ReasonNoSamples  = "no IMU samples"
	ReasonNoMotion   = "no motion found"
)

// Outcome is the expected result of converting one clip
type Outcome int

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Encoding is the IMU data layout found in a clip
type Encoding int

func (e Encoding) String() string {
	switch e {
	case EncodingAsync:
		return "async"
	case EncodingPerFrame:
		return "per-frame"
	default:
		return "none"
	}
}

// Result describes the conversion of one clip. Log is set only on Success.
type Result struct {
	Outcome  Outcome
	Reason   string
	Encoding Encoding
	Camera   *CameraMetadata
	Log      *gcsv.Log

	// SampleRate is the effective IMU rate in Hz for async data, informational only
	SampleRate float64
}

func succeeded(encoding Encoding, camera *CameraMetadata, log *gcsv.Log) *Result {
	return &Result{Outcome: Success, Encoding: encoding, Camera: camera, Log: log}
}

func skipped(encoding Encoding, camera *CameraMetadata, reason string) *Result {
	return &Result{Outcome: Skipped, Encoding: encoding, Camera: camera, Reason: reason}
}

func failed(encoding Encoding, camera *CameraMetadata, reason string) *Result {
	return &Result{Outcome: Failed, Encoding: encoding, Camera: camera, Reason: reason}
}
