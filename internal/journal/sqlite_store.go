package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var _ Store = (*SqliteStore)(nil)

// ErrRunNotFound is returned when the requested run is not in the journal
var ErrRunNotFound = errors.New("run not found")

// SqliteStore is a Store backed by a SQLite database file
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store for the database at dbPath. The file and its
// schema are created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

// dsn builds the connection string for path. The path is URL escaped, so names
// containing '?' or '#' are not taken for the query or fragment.
func dsn(path, query string) string {
	u := url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: query}
	return u.String()
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", dsn(s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", dsn(s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateRun(ctx context.Context, mode, runtime string, config any) (runID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData.Valid = true
			configData.String = v

		case []byte:
			configData.Valid = true
			configData.String = string(v)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, time.Now().UTC(), mode, runtime, configData)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	runID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting run ID: %w", err)
	}
	return
}

func (s *SqliteStore) Run(ctx context.Context, id int64) (run *Run, err error) {
	return s.queryRun(ctx, selectRunSQL, id)
}

func (s *SqliteStore) LatestRun(ctx context.Context) (run *Run, err error) {
	return s.queryRun(ctx, selectLatestRunSQL)
}

func (s *SqliteStore) queryRun(ctx context.Context, query string, args ...any) (run *Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var r Run
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, args...).Scan(&r.ID, &r.StartTime, &r.Mode, &r.Runtime, &config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRunNotFound
			return
		}
		err = fmt.Errorf("scanning run: %w", err)
		return
	}
	if config.Valid {
		r.Config = &config.String
	}

	return &r, nil
}

func (s *SqliteStore) StoreConversion(ctx context.Context, c *Conversion) (conversionID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	data := toConversionData(c)

	result, err := tx.ExecContext(
		ctx,
		insertConversionSQL,
		data.RunID,
		data.Timestamp,
		data.Source,
		data.Output,
		data.Outcome,
		data.Reason,
		data.Encoding,
		data.CameraModel,
		data.Samples,
		data.SampleRate,
		data.Error,
	)
	if err != nil {
		err = fmt.Errorf("inserting conversion: %w", err)
		return
	}

	if conversionID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting conversion ID: %w", err)
		return
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
	}
	return
}

func (s *SqliteStore) Conversions(ctx context.Context, runID int64) (conversions []Conversion, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectConversionsSQL, runID)
	if err != nil {
		err = fmt.Errorf("querying conversions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d conversionData
		if err = rows.Scan(
			&d.ID,
			&d.RunID,
			&d.Timestamp,
			&d.Source,
			&d.Output,
			&d.Outcome,
			&d.Reason,
			&d.Encoding,
			&d.CameraModel,
			&d.Samples,
			&d.SampleRate,
			&d.Error,
		); err != nil {
			err = fmt.Errorf("scanning conversion: %w", err)
			return
		}
		conversions = append(conversions, fromConversionData(&d))
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating conversions: %w", err)
	}
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
