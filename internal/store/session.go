package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/handpoint/internal/frame"
)

// Session is one tracking session from hand acquisition until loss.
type Session struct {
	ID           string        `json:"id"`
	ProfileID    string        `json:"profile_id,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	EndReason    string        `json:"end_reason,omitempty"`
	StartPoint   frame.Point3D `json:"start_point"`
	RefocusCount int           `json:"refocus_count"`
}

// Active reports whether the session has not ended yet.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// Duration returns how long the session lasted, or zero while it is active.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository records the tracking session log.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, profile_id, started_at, ended_at, end_reason, start_x, start_y, start_z, refocus_count`

func scanSession(s scanner) (*Session, error) {
	sess := &Session{}
	var profileID sql.NullString
	var endedAt sql.NullTime

	err := s.Scan(&sess.ID, &profileID, &sess.StartedAt, &endedAt, &sess.EndReason,
		&sess.StartPoint.X, &sess.StartPoint.Y, &sess.StartPoint.Z, &sess.RefocusCount)
	if err != nil {
		return nil, err
	}

	sess.ProfileID = profileID.String
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// Start records a new session acquired at point.
func (r *SessionRepository) Start(id string, at time.Time, point frame.Point3D) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, start_x, start_y, start_z)
		 VALUES (?, ?, ?, ?, ?)`,
		id, at, point.X, point.Y, point.Z,
	)
	return err
}

// AttachProfile links a session to the tuning profile it ran with.
func (r *SessionRepository) AttachProfile(id, profileID string) error {
	return r.exec(`UPDATE sessions SET profile_id = ? WHERE id = ?`, profileID, id)
}

// Refocused counts one quick-refocus episode for the session.
func (r *SessionRepository) Refocused(id string) error {
	return r.exec(`UPDATE sessions SET refocus_count = refocus_count + 1 WHERE id = ?`, id)
}

// End marks a session as ended. Ending an already ended session is an error.
func (r *SessionRepository) End(id string, at time.Time, reason string) error {
	return r.exec(
		`UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ? AND ended_at IS NULL`,
		at, reason, id,
	)
}

// exec runs an update that must touch exactly one session.
func (r *SessionRepository) exec(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// ListRecent returns up to n sessions, most recently started first.
func (r *SessionRepository) ListRecent(n int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
