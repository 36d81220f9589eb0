package journal

import (
	"database/sql"
	"errors"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toConversionData(c *Conversion) *conversionData {
	return &conversionData{
		RunID:       c.RunID,
		Timestamp:   c.Timestamp.UTC(),
		Source:      c.Source,
		Output:      toNullString(c.Output),
		Outcome:     c.Outcome,
		Reason:      toNullString(c.Reason),
		Encoding:    c.Encoding,
		CameraModel: toNullString(c.CameraModel),
		Samples:     c.Samples,
		SampleRate: sql.NullFloat64{
			Float64: c.SampleRate,
			Valid:   c.SampleRate > 0,
		},
		Error: toNullString(c.Error),
	}
}

func fromConversionData(d *conversionData) Conversion {
	return Conversion{
		ID:          d.ID,
		RunID:       d.RunID,
		Timestamp:   d.Timestamp,
		Source:      d.Source,
		Output:      d.Output.String,
		Outcome:     d.Outcome,
		Reason:      d.Reason.String,
		Encoding:    d.Encoding,
		CameraModel: d.CameraModel.String,
		Samples:     d.Samples,
		SampleRate:  d.SampleRate.Float64,
		Error:       d.Error.String,
	}
}
