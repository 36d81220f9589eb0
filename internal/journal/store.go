package journal

import (
	"context"
)

// Store records converter runs and the outcome of every clip they processed,
// so repeated batch conversions of a card can be audited afterwards.
type Store interface {
	// CreateRun records the start of a converter invocation and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - mode: Invocation mode ("single" or "all")
	//   - runtime: Resolved path of the REDline binary
	//   - config: Optional effective configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - runID: Unique identifier for the created run
	//   - error: If the run cannot be stored
	CreateRun(ctx context.Context, mode, runtime string, config any) (runID int64, err error)

	// Run retrieves a run by its ID. It returns ErrRunNotFound when there is no
	// such run.
	Run(ctx context.Context, id int64) (run *Run, err error)

	// LatestRun retrieves the most recently created run, or ErrRunNotFound when
	// the journal is empty.
	LatestRun(ctx context.Context) (run *Run, err error)

	// StoreConversion saves the result of converting one clip within a run.
	// RunID of the conversion must reference an existing run.
	StoreConversion(ctx context.Context, c *Conversion) (conversionID int64, err error)

	// Conversions returns every conversion of a run in the order it was stored.
	Conversions(ctx context.Context, runID int64) (conversions []Conversion, err error)

	// Close releases all database connections.
	// It is safe to call Close multiple times.
	Close() error
}
