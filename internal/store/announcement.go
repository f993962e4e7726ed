package store

import (
	"database/sql"
	"time"
)

// Announcement is a label emitted by a detection session's stabilizer.
type Announcement struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnnouncementRepository provides access to the announcement log.
type AnnouncementRepository struct {
	db *sql.DB
}

// Announcements returns the announcement repository for this store.
func (s *Store) Announcements() *AnnouncementRepository {
	return &AnnouncementRepository{db: s.db}
}

// Create appends a to the log and sets its ID.
func (r *AnnouncementRepository) Create(a *Announcement) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.Exec(
		`INSERT INTO announcements (session_id, label, confidence, created_at) VALUES (?, ?, ?, ?)`,
		a.SessionID, a.Label, a.Confidence, a.CreatedAt,
	)
	if err != nil {
		return err
	}
	a.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns up to limit announcements of session, newest first.
// An empty session lists every session. A non-positive limit returns all rows.
func (r *AnnouncementRepository) ListBySession(session string, limit int) ([]*Announcement, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, label, confidence, created_at FROM announcements
		 WHERE ? = '' OR session_id = ?
		 ORDER BY id DESC LIMIT ?`,
		session, session, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		a := &Announcement{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Label, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByLabel returns how often each label has been announced.
func (r *AnnouncementRepository) CountByLabel() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM announcements GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}
