// Package capture persists frames observed on a link, together with the
// outcome of decoding them, in a sqlite database. It backs offline analysis
// of what a device actually sent: which frames matched a known packet type,
// which decoded valid, and the raw bytes of everything else.
package capture

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the capture database.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the capture database at path and
// ensures the baseline schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			port              TEXT,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS frames (
			frame_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id        TEXT,
			packet_type       TEXT,
			raw               BLOB,
			consumed          BIGINT,
			valid             BOOLEAN,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create capture schema: %w", err)
	}

	return &Store{db}, nil
}

// BeginSession records the start of a monitoring session on the named port
// and returns the new session ID.
func (s *Store) BeginSession(port string) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(`INSERT INTO sessions (session_id, port) VALUES (?, ?)`, id, port)
	if err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	return id, nil
}

// Frame is one recorded link frame and its decode outcome. PacketType is
// empty for frames that matched no registered packet.
type Frame struct {
	FrameID    int64
	SessionID  string
	PacketType string
	Raw        []byte
	Consumed   int
	Valid      bool
	Timestamp  time.Time
}

// RecordFrame stores one observed frame. packetType names the matched
// packet definition, or is empty for unrecognized frames; consumed and
// valid report the decode outcome.
func (s *Store) RecordFrame(sessionID, packetType string, raw []byte, consumed int, valid bool) error {
	_, err := s.Exec(
		`INSERT INTO frames (session_id, packet_type, raw, consumed, valid) VALUES (?, ?, ?, ?, ?)`,
		sessionID, packetType, raw, consumed, valid,
	)
	if err != nil {
		return fmt.Errorf("failed to record frame: %w", err)
	}
	return nil
}

// SessionFrames returns every frame recorded for a session in arrival
// order.
func (s *Store) SessionFrames(sessionID string) ([]Frame, error) {
	rows, err := s.Query(
		`SELECT frame_id, session_id, packet_type, raw, consumed, valid, timestamp
		 FROM frames WHERE session_id = ? ORDER BY frame_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.FrameID, &f.SessionID, &f.PacketType, &f.Raw, &f.Consumed, &f.Valid, &f.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// CountInvalid returns how many recorded frames in a session failed to
// decode as any registered packet type.
func (s *Store) CountInvalid(sessionID string) (int, error) {
	var n int
	err := s.QueryRow(
		`SELECT COUNT(*) FROM frames WHERE session_id = ? AND valid = 0`,
		sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count invalid frames: %w", err)
	}
	return n, nil
}
