// Package memory persists per-session conversation transcripts in a local
// bbolt database so repeated /invoke calls with the same session id keep
// their context.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketTranscripts = "transcripts" // key: session id -> []Message JSON
	bucketSessions    = "sessions"    // key: session id -> last-activity RFC3339 timestamp
)

// Roles recorded in transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrClosed = errors.New("memory store is closed")

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is a bbolt-backed transcript store. Transcripts are trimmed to the
// configured history depth on write.
type Store struct {
	db           *bbolt.DB
	historyDepth int
}

// Open opens (or creates) the database at path.
func Open(path string, historyDepth int) (*Store, error) {
	if historyDepth <= 0 {
		return nil, fmt.Errorf("history depth must be positive, got %d", historyDepth)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open memory store %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketTranscripts)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSessions)); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize memory store: %w", err)
	}

	return &Store{db: db, historyDepth: historyDepth}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds messages to a session transcript, trimming the oldest entries
// beyond the history depth.
func (s *Store) Append(sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if len(msgs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range msgs {
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = now
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		transcripts := tx.Bucket([]byte(bucketTranscripts))

		var history []Message
		if raw := transcripts.Get([]byte(sessionID)); raw != nil {
			if err := json.Unmarshal(raw, &history); err != nil {
				return fmt.Errorf("decode transcript %s: %w", sessionID, err)
			}
		}

		history = append(history, msgs...)
		if len(history) > s.historyDepth {
			history = history[len(history)-s.historyDepth:]
		}

		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("encode transcript %s: %w", sessionID, err)
		}
		if err := transcripts.Put([]byte(sessionID), data); err != nil {
			return err
		}

		sessions := tx.Bucket([]byte(bucketSessions))
		return sessions.Put([]byte(sessionID), []byte(now.Format(time.RFC3339)))
	})
}

// History returns the transcript for a session, oldest first. An unknown
// session returns an empty slice.
func (s *Store) History(sessionID string) ([]Message, error) {
	var history []Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketTranscripts)).Get([]byte(sessionID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &history)
	})
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", sessionID, err)
	}
	if history == nil {
		history = []Message{}
	}
	return history, nil
}

// Sessions lists known session ids.
func (s *Store) Sessions() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
