package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// ArchiveRepository mirrors completed chat turns into the local sqlite
// archive, keeping transcripts readable offline and across backend
// resets.
type ArchiveRepository struct {
	db *DB
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// ArchiveSession upserts a session and replaces its archived messages
// with the given persisted state.
func (r *ArchiveRepository) ArchiveSession(ctx context.Context, detail *domain.SessionDetail) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, scope_kind, scope_id, title, model_override, message_count, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			model_override = excluded.model_override,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at,
			archived_at = excluded.archived_at
	`, detail.ID, string(detail.Scope.Kind), detail.Scope.ID, detail.Title,
		detail.ModelOverride, len(detail.Messages), detail.CreatedAt, detail.UpdatedAt, time.Now())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, detail.ID); err != nil {
		return err
	}

	for i, msg := range detail.Messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, session_id, position, role, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, msg.ID, detail.ID, i, msg.Role, msg.Content, msg.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListSessions returns archived sessions for a scope, newest first.
func (r *ArchiveRepository) ListSessions(ctx context.Context, scope domain.Scope) ([]domain.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scope_kind, scope_id, title, model_override, message_count, created_at, updated_at
		FROM sessions WHERE scope_kind = ? AND scope_id = ?
		ORDER BY created_at DESC
	`, string(scope.Kind), scope.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// AllSessions returns every archived session, newest first.
func (r *ArchiveRepository) AllSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scope_kind, scope_id, title, model_override, message_count, created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]domain.ChatSession, error) {
	var sessions []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		var kind string
		var modelOverride sql.NullString
		if err := rows.Scan(&s.ID, &kind, &s.Scope.ID, &s.Title, &modelOverride,
			&s.MessageCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Scope.Kind = domain.ScopeKind(kind)
		if modelOverride.Valid {
			s.ModelOverride = modelOverride.String
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetMessages returns the archived messages of a session in turn order.
func (r *ArchiveRepository) GetMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, role, content, created_at
		FROM messages WHERE session_id = ?
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteSession removes an archived session and its messages.
func (r *ArchiveRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}
