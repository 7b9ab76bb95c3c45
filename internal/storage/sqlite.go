package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/a11yspectre/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  url              TEXT NOT NULL,
  date             TEXT NOT NULL,
  total_violations INTEGER NOT NULL,
  format           TEXT NOT NULL,
  file_path        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_date ON reports(date);
`

// SQLiteStorage implements Storage on a single SQLite file
type SQLiteStorage struct {
	db   *sql.DB
	path string
	now  func() time.Time

	// serialises writers; SQLite locking covers other processes
	mu sync.Mutex
}

// Open opens (creating if needed) the history database at path and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db, path: path, now: time.Now}
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the reports table if it does not exist
func (s *SQLiteStorage) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialise schema: %w", err)
	}
	return nil
}

// Add appends one record with a fresh second-resolution timestamp
func (s *SQLiteStorage) Add(ctx context.Context, url string, totalViolations int, format models.Format, filePath string) (models.ReportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.ReportRecord{
		URL:             url,
		Date:            s.now().Format(models.DateLayout),
		TotalViolations: totalViolations,
		Format:          format,
		FilePath:        filePath,
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports(url, date, total_violations, format, file_path) VALUES(?,?,?,?,?)`,
		rec.URL, rec.Date, rec.TotalViolations, string(rec.Format), rec.FilePath)
	if err != nil {
		return models.ReportRecord{}, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.ReportRecord{}, fmt.Errorf("failed to read report id: %w", err)
	}
	rec.ID = id

	return rec, nil
}

// LoadAll returns every record ordered by date descending. Rows sharing a
// second are ordered by id so the newest insert still comes first.
func (s *SQLiteStorage) LoadAll(ctx context.Context) ([]models.ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, date, total_violations, format, file_path FROM reports ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	records := []models.ReportRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}

	return records, nil
}

// Get returns the record with the given id
func (s *SQLiteStorage) Get(ctx context.Context, id int64) (models.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, date, total_violations, format, file_path FROM reports WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReportRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return rec, err
}

// Path returns the database file location
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (models.ReportRecord, error) {
	var (
		rec    models.ReportRecord
		format string
	)
	if err := r.Scan(&rec.ID, &rec.URL, &rec.Date, &rec.TotalViolations, &format, &rec.FilePath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan report: %w", err)
	}
	rec.Format = models.Format(format)
	return rec, nil
}
