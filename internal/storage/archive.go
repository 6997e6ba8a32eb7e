package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/damione1/backlog-poker/internal/models"
)

// Archive persists finalized backlogs so the final_backlog page keeps
// working after the room itself has been evicted from memory. Live room
// state is never stored here.
type Archive struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS final_backlogs (
    room_id      TEXT    NOT NULL,
    position     INTEGER NOT NULL,
    feature      TEXT    NOT NULL,
    priority     TEXT    NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (room_id, position)
);
`

// Open opens (and if needed creates) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backlog archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("backlog archive ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores a room's finalized backlog, replacing any earlier archive of
// the same room id.
func (a *Archive) Save(roomID string, backlog []models.Feature) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM final_backlogs WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("failed to clear previous archive: %w", err)
	}

	now := time.Now()
	for i, f := range backlog {
		_, err := tx.Exec(
			`INSERT INTO final_backlogs (room_id, position, feature, priority, completed_at) VALUES (?, ?, ?, ?, ?)`,
			roomID, i, f.Name, f.Priority, now,
		)
		if err != nil {
			return fmt.Errorf("failed to archive feature %q: %w", f.Name, err)
		}
	}

	return tx.Commit()
}

// Get returns the archived backlog for a room in estimation order, or
// ErrRoomNotFound when nothing was archived under that id.
func (a *Archive) Get(roomID string) ([]models.Feature, error) {
	rows, err := a.db.Query(
		`SELECT feature, priority FROM final_backlogs WHERE room_id = ? ORDER BY position`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var backlog []models.Feature
	for rows.Next() {
		var f models.Feature
		if err := rows.Scan(&f.Name, &f.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan archived feature: %w", err)
		}
		backlog = append(backlog, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive rows: %w", err)
	}

	if len(backlog) == 0 {
		return nil, models.ErrRoomNotFound
	}
	return backlog, nil
}
