package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// Journal outcomes.
const (
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder logs upload attempts made from this client.
type Recorder interface {
	Start(filename string, size int64) (int64, error)
	Finish(id int64, outcome, message string, nodes, alerts int) error
}

// NopRecorder discards journal writes. Used when the journal is disabled.
type NopRecorder struct{}

// Start implements Recorder.
func (NopRecorder) Start(string, int64) (int64, error) { return 0, nil }

// Finish implements Recorder.
func (NopRecorder) Finish(int64, string, string, int, int) error { return nil }

// Journal handles upload journal persistence. It is a record of what this
// client sent, never a copy of the service history.
type Journal struct {
	db  *DB
	now func() time.Time
}

// NewJournal creates a new journal handler.
func NewJournal(db *DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Start records a submitted upload and returns its journal id.
func (j *Journal) Start(filename string, size int64) (int64, error) {
	var id int64
	err := j.db.WithLock(func() error {
		result, err := j.db.Exec(
			`INSERT INTO uploads (filename, size_bytes, submitted_at, outcome) VALUES (?, ?, ?, ?)`,
			filename, size, j.now().UTC(), OutcomePending)
		if err != nil {
			return fmt.Errorf("failed to insert upload: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		return nil
	})
	return id, err
}

// Finish records the outcome of upload id.
func (j *Journal) Finish(id int64, outcome, message string, nodes, alerts int) error {
	return j.db.WithLock(func() error {
		res, err := j.db.Exec(
			`UPDATE uploads SET completed_at = ?, outcome = ?, message = ?, node_count = ?, alert_count = ? WHERE id = ?`,
			j.now().UTC(), outcome, message, nodes, alerts, id)
		if err != nil {
			return fmt.Errorf("failed to update upload %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("upload %d not found", id)
		}
		return nil
	})
}

// List returns the most recent uploads, newest first.
func (j *Journal) List(limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []model.JournalEntry
	err := j.db.WithRLock(func() error {
		rows, err := j.db.Query(
			`SELECT id, filename, size_bytes, submitted_at, completed_at, outcome, COALESCE(message, ''), node_count, alert_count
			 FROM uploads ORDER BY submitted_at DESC, id DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("failed to query uploads: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}

// Get returns one upload, or nil when id is unknown.
func (j *Journal) Get(id int64) (*model.JournalEntry, error) {
	var entry *model.JournalEntry
	err := j.db.WithRLock(func() error {
		row := j.db.QueryRow(
			`SELECT id, filename, size_bytes, submitted_at, completed_at, outcome, COALESCE(message, ''), node_count, alert_count
			 FROM uploads WHERE id = ?`, id)
		e, err := scanEntry(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		entry = &e
		return nil
	})
	return entry, err
}

// Prune deletes uploads older than the cutoff and returns how many were removed.
func (j *Journal) Prune(olderThan time.Duration) (int64, error) {
	var n int64
	err := j.db.WithLock(func() error {
		res, err := j.db.Exec(`DELETE FROM uploads WHERE submitted_at < ?`, j.now().Add(-olderThan).UTC())
		if err != nil {
			return fmt.Errorf("failed to prune uploads: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}

// Retain prunes entries older than maxAge now and then every interval
// until ctx is done. A non-positive maxAge disables pruning.
func (j *Journal) Retain(ctx context.Context, maxAge, interval time.Duration) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := j.Prune(maxAge); err != nil {
			util.Warn("Journal pruning failed: %v", err)
		} else if n > 0 {
			util.Info("Pruned %d journal entries older than %s", n, maxAge)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (model.JournalEntry, error) {
	var (
		e         model.JournalEntry
		completed sql.NullTime
	)
	err := s.Scan(&e.ID, &e.Filename, &e.SizeBytes, &e.SubmittedAt, &completed,
		&e.Outcome, &e.Message, &e.NodeCount, &e.AlertCount)
	if err == sql.ErrNoRows {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("failed to scan upload: %w", err)
	}
	if completed.Valid {
		e.CompletedAt = completed.Time
	}
	return e, nil
}

// Track records the start of an upload and returns a function that records
// its end. A nil result marks a failure. Journal errors are logged, never returned.
func Track(r Recorder, filename string, size int64) func(res *model.AnalysisResult, message string) {
	if r == nil {
		r = NopRecorder{}
	}
	id, err := r.Start(filename, size)
	if err != nil {
		util.Warn("Journal start for %s failed: %v", filename, err)
	}
	return func(res *model.AnalysisResult, message string) {
		if err != nil {
			return
		}
		outcome, nodes, alerts := OutcomeFailure, 0, 0
		if res != nil {
			outcome, nodes, alerts = OutcomeSuccess, len(res.Nodes), len(res.Alerts)
		}
		if ferr := r.Finish(id, outcome, message, nodes, alerts); ferr != nil {
			util.Warn("Journal finish for %s failed: %v", filename, ferr)
		}
	}
}
