package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

const autosaveName = "Auto-saved Session"

// SaveSession stores records under name. Saving an existing name overwrites
// its records; the id stays the same.
func (s *SQLStore) SaveSession(ctx context.Context, name string, records []domain.ScoredResult) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewValidationError("Session name is required", "session_name", name)
	}

	payload, err := encodeRecords(records)
	if err != nil {
		return "", err
	}
	now := s.now()

	id, err := s.namedSessionID(ctx, name)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		_, err = s.exec(ctx,
			`INSERT INTO sessions (id, name, records, keyword_count, is_autosave, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, name, payload, len(records), false, now, now)
		if isUniqueViolation(err) {
			// saved concurrently under the same name; overwrite that one
			if id, err = s.namedSessionID(ctx, name); err == nil {
				err = s.updateSession(ctx, id, payload, len(records), now)
			}
		}
	case err == nil:
		err = s.updateSession(ctx, id, payload, len(records), now)
	}
	if err != nil {
		return "", errors.NewPersistenceError("failed to save session", "save_session", err)
	}

	s.logger.Info("Session saved",
		zap.String("id", id),
		zap.String("name", name),
		zap.Int("keywords", len(records)))

	return id, nil
}

func (s *SQLStore) namedSessionID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.queryRow(ctx,
		`SELECT id FROM sessions WHERE name = ? AND is_autosave = ?`,
		name, false,
	).Scan(&id)
	return id, err
}

func (s *SQLStore) updateSession(ctx context.Context, id, payload string, count int, now time.Time) error {
	_, err := s.exec(ctx,
		`UPDATE sessions SET records = ?, keyword_count = ?, updated_at = ? WHERE id = ?`,
		payload, count, now, id)
	return err
}

// Autosave overwrites the single autosave session.
func (s *SQLStore) Autosave(ctx context.Context, records []domain.ScoredResult) error {
	payload, err := encodeRecords(records)
	if err != nil {
		return err
	}
	now := s.now()

	res, err := s.exec(ctx,
		`UPDATE sessions SET records = ?, keyword_count = ?, updated_at = ? WHERE id = ?`,
		payload, len(records), now, domain.AutosaveSessionID)
	if err != nil {
		return errors.NewPersistenceError("failed to autosave session", "autosave", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.exec(ctx,
		`INSERT INTO sessions (id, name, records, keyword_count, is_autosave, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		domain.AutosaveSessionID, autosaveName, payload, len(records), true, now, now)
	if err != nil {
		return errors.NewPersistenceError("failed to autosave session", "autosave", err)
	}
	return nil
}

// LoadSession returns the session with id. The autosave id always resolves:
// before the first run it yields an empty session.
func (s *SQLStore) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session domain.Session
		payload string
	)
	err := s.queryRow(ctx,
		`SELECT id, name, records, is_autosave, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&session.ID, &session.Name, &payload, &session.IsAutosave, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		if id == domain.AutosaveSessionID {
			return &domain.Session{
				ID:         domain.AutosaveSessionID,
				Name:       autosaveName,
				Records:    []domain.ScoredResult{},
				IsAutosave: true,
			}, nil
		}
		return nil, errors.NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, errors.NewPersistenceError("failed to load session", "load_session", err)
	}

	if session.Records, err = decodeRecords(payload); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns every session, most recently updated first.
func (s *SQLStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.query(ctx,
		`SELECT id, name, keyword_count, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC, created_at DESC, id`)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to list sessions", "list_sessions", err)
	}
	defer rows.Close()

	summaries := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.KeywordCount, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, errors.NewPersistenceError("failed to scan session", "list_sessions", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("failed to list sessions", "list_sessions", err)
	}
	return summaries, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	if id == domain.AutosaveSessionID {
		return errors.NewValidationError("The autosave session cannot be deleted", "id", id)
	}

	res, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return errors.NewPersistenceError("failed to delete session", "delete_session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("session", id)
	}

	s.logger.Info("Session deleted", zap.String("id", id))
	return nil
}

// Backup snapshots every named session with its records.
func (s *SQLStore) Backup(ctx context.Context) (*domain.SessionBackup, error) {
	rows, err := s.query(ctx,
		`SELECT id, name, records, is_autosave, created_at, updated_at
		 FROM sessions WHERE is_autosave = ? ORDER BY created_at, id`, false)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to back up sessions", "backup", err)
	}
	defer rows.Close()

	backup := &domain.SessionBackup{Timestamp: s.now(), Sessions: make([]domain.Session, 0)}
	for rows.Next() {
		var (
			session domain.Session
			payload string
		)
		if err := rows.Scan(&session.ID, &session.Name, &payload, &session.IsAutosave, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, errors.NewPersistenceError("failed to scan session", "backup", err)
		}
		if session.Records, err = decodeRecords(payload); err != nil {
			return nil, err
		}
		backup.Sessions = append(backup.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("failed to back up sessions", "backup", err)
	}
	return backup, nil
}

func encodeRecords(records []domain.ScoredResult) (string, error) {
	if records == nil {
		records = []domain.ScoredResult{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", errors.NewPersistenceError("failed to encode records", "encode", err)
	}
	return string(payload), nil
}

func decodeRecords(payload string) ([]domain.ScoredResult, error) {
	records := make([]domain.ScoredResult, 0)
	if payload == "" {
		return records, nil
	}
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, errors.NewPersistenceError("failed to decode records", "decode", fmt.Errorf("session records: %w", err))
	}
	return records, nil
}
