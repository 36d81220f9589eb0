package journal

import (
	_ "embed"
)

const (
	insertRunSQL = `
INSERT INTO runs (
                  start_time,
                  mode,
                  runtime,
                  config)
VALUES (?, ?, ?, ?)`

	selectRunSQL = `
SELECT 
    id, 
    start_time, 
    mode, 
    runtime, 
    config 
FROM runs 
WHERE 
    id = ?`

	selectLatestRunSQL = `
SELECT 
    id, 
    start_time, 
    mode, 
    runtime, 
    config 
FROM runs 
ORDER BY id DESC
LIMIT 1`

	insertConversionSQL = `
INSERT INTO conversions (run_id,
                         timestamp,
                         source,
                         output,
                         outcome,
                         reason,
                         encoding,
                         camera_model,
                         samples,
                         sample_rate,
                         error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectConversionsSQL = `
SELECT 
    id,
    run_id,
    timestamp,
    source,
    output,
    outcome,
    reason,
    encoding,
    camera_model,
    samples,
    sample_rate,
    error
FROM conversions
WHERE 
    run_id = ?
ORDER BY id`
)

//go:embed schema.sql
var initSchemaSQL string
