// Package db stores conversion jobs in SQLite. The cutting session reads a
// job's range from here and writes it back when the user accepts.
package db

import "time"

// Job is a queued conversion of one media file. TimeBegin and TimeDuration
// are whole seconds; zero means "from the start" and "to the end".
type Job struct {
	ID           int64
	Source       string
	Output       string
	TimeBegin    int
	TimeDuration int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
