package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guilhermegouw/hiwar/internal/db"
	"github.com/guilhermegouw/hiwar/internal/message"
)

// SQLiteStore keeps sessions in the sessions and messages tables.
// List order is kept in the position column.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a SQLite-backed store.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// ReadAll loads every session with its messages.
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]Session, error) {
	conn := s.db.Conn()

	rows, err := conn.QueryContext(ctx,
		`SELECT id, title, created_at FROM sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []Session
	index := make(map[string]int)
	for rows.Next() {
		var (
			sess      Session
			createdAt int64
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.CreatedAt = time.UnixMilli(createdAt)
		index[sess.ID] = len(list)
		list = append(list, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	msgRows, err := conn.QueryContext(ctx,
		`SELECT session_id, type, text, created_at FROM messages ORDER BY session_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer func() { _ = msgRows.Close() }()

	for msgRows.Next() {
		var (
			sessionID, typ, text string
			createdAt            int64
		)
		if err := msgRows.Scan(&sessionID, &typ, &text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		list[i].Messages = append(list[i].Messages, message.Message{
			Text:      text,
			Type:      message.Type(typ),
			Timestamp: time.UnixMilli(createdAt),
		})
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	return list, nil
}

// WriteAll replaces both tables inside one transaction.
func (s *SQLiteStore) WriteAll(ctx context.Context, sessions []Session) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
			return fmt.Errorf("clearing messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
			return fmt.Errorf("clearing sessions: %w", err)
		}

		insertSession, err := tx.PrepareContext(ctx,
			`INSERT INTO sessions (id, title, created_at, position) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing session insert: %w", err)
		}
		defer func() { _ = insertSession.Close() }()

		insertMessage, err := tx.PrepareContext(ctx,
			`INSERT INTO messages (session_id, seq, type, text, created_at) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing message insert: %w", err)
		}
		defer func() { _ = insertMessage.Close() }()

		for pos, sess := range sessions {
			if _, err := insertSession.ExecContext(ctx, sess.ID, sess.Title, sess.CreatedAt.UnixMilli(), pos); err != nil {
				return fmt.Errorf("writing session %s: %w", sess.ID, err)
			}
			for seq, m := range sess.Messages {
				typ := m.Type
				if !typ.Valid() {
					typ = message.TypeBot
				}
				if _, err := insertMessage.ExecContext(ctx, sess.ID, seq, string(typ), m.Text, m.Timestamp.UnixMilli()); err != nil {
					return fmt.Errorf("writing message %d of %s: %w", seq, sess.ID, err)
				}
			}
		}
		return nil
	})
}
