package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrJobNotFound is returned when no job has the requested id.
var ErrJobNotFound = errors.New("job not found")

const schema = `
	CREATE TABLE IF NOT EXISTS conversion_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		timeBegin INTEGER NOT NULL DEFAULT 0,
		timeDuration INTEGER NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL,
		updatedAt REAL
	);
`

// Store provides access to the conversion job queue.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "cutter", "jobs.sqlite")
}

// Open opens or creates the database with WAL and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddJob queues a job and returns it with its id and timestamps set.
func (s *Store) AddJob(source, output string, timeBegin, timeDuration int) (*Job, error) {
	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO conversion_jobs (source, output, timeBegin, timeDuration, createdAt)
		VALUES (?, ?, ?, ?, ?)
	`, source, output, timeBegin, timeDuration, unixFromTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	return s.Job(id)
}

// Job returns the job with the given id.
func (s *Store) Job(id int64) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, source, output, timeBegin, timeDuration, createdAt, updatedAt
		FROM conversion_jobs
		WHERE id = ?
	`, id)

	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %d: %w", id, ErrJobNotFound)
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return j, nil
}

// Jobs returns all queued jobs, oldest first.
func (s *Store) Jobs() ([]Job, error) {
	rows, err := s.db.Query(`
		SELECT id, source, output, timeBegin, timeDuration, createdAt, updatedAt
		FROM conversion_jobs
		ORDER BY createdAt ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// UpdateJobRange stores a new begin and duration for a job.
func (s *Store) UpdateJobRange(id int64, timeBegin, timeDuration int) error {
	res, err := s.db.Exec(`
		UPDATE conversion_jobs
		SET timeBegin = ?, timeDuration = ?, updatedAt = ?
		WHERE id = ?
	`, timeBegin, timeDuration, unixFromTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var createdAt float64
	var updatedAt sql.NullFloat64
	if err := row.Scan(&j.ID, &j.Source, &j.Output, &j.TimeBegin, &j.TimeDuration,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.CreatedAt = timeFromUnix(createdAt)
	if updatedAt.Valid {
		t := timeFromUnix(updatedAt.Float64)
		j.UpdatedAt = &t
	}
	return &j, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
