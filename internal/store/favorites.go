package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

// AddFavorite stores record keyed by its normalized keyword. A keyword that is
// already a favorite yields a ConflictError.
func (s *SQLStore) AddFavorite(ctx context.Context, record domain.ScoredResult, notes string) error {
	kw := domain.NewKeyword(record.Keyword.String())
	if kw.IsEmpty() {
		return errors.NewValidationError("Keyword is required", "keyword", record.Keyword)
	}
	record.Keyword = kw

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.NewPersistenceError("failed to encode favorite", "add_favorite", err)
	}

	_, err = s.exec(ctx,
		`INSERT INTO favorites (keyword, record, notes, created_at) VALUES (?, ?, ?, ?)`,
		kw.String(), string(payload), notes, s.now())
	if isUniqueViolation(err) {
		return errors.NewConflictError("Keyword already in favorites", "favorite", kw.String())
	}
	if err != nil {
		return errors.NewPersistenceError("failed to add favorite", "add_favorite", err)
	}

	s.logger.Info("Favorite added", zap.String("keyword", kw.String()))
	return nil
}

func (s *SQLStore) RemoveFavorite(ctx context.Context, keyword string) error {
	kw := domain.NewKeyword(keyword)

	res, err := s.exec(ctx, `DELETE FROM favorites WHERE keyword = ?`, kw.String())
	if err != nil {
		return errors.NewPersistenceError("failed to remove favorite", "remove_favorite", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("favorite", kw.String())
	}
	return nil
}

// ListFavorites returns favorites newest first.
func (s *SQLStore) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	rows, err := s.query(ctx,
		`SELECT record, notes, created_at FROM favorites ORDER BY created_at DESC, keyword`)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to list favorites", "list_favorites", err)
	}
	defer rows.Close()

	favorites := make([]domain.Favorite, 0)
	for rows.Next() {
		var (
			fav     domain.Favorite
			payload string
		)
		if err := rows.Scan(&payload, &fav.Notes, &fav.CreatedAt); err != nil {
			return nil, errors.NewPersistenceError("failed to scan favorite", "list_favorites", err)
		}
		if err := json.Unmarshal([]byte(payload), &fav.Record); err != nil {
			return nil, errors.NewPersistenceError("failed to decode favorite", "list_favorites", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("failed to list favorites", "list_favorites", err)
	}
	return favorites, nil
}

func (s *SQLStore) IsFavorite(ctx context.Context, keyword string) (bool, error) {
	var one int
	err := s.queryRow(ctx,
		`SELECT 1 FROM favorites WHERE keyword = ?`,
		domain.NewKeyword(keyword).String(),
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewPersistenceError("failed to check favorite", "is_favorite", err)
	}
	return true, nil
}
