package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/vendo/internal/models"
)

// ListLinks возвращает блоки пользователя в сохранённом порядке.
func (s *Storage) ListLinks(ctx context.Context, userID string) ([]models.LinkBlock, error) {
	const op = "storage.ListLinks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, url, clicks, type, is_nsfw
			  FROM link_blocks
			  WHERE user_id = $1
			  ORDER BY position, created_at`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.LinkBlock, 0)
	for rows.Next() {
		var l models.LinkBlock
		if err = rows.Scan(&l.ID, &l.Title, &l.URL, &l.Clicks, &l.Type, &l.IsNSFW); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AddLink добавляет блок в конец списка пользователя.
func (s *Storage) AddLink(ctx context.Context, userID string, link models.LinkBlock) error {
	const op = "storage.AddLink"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO link_blocks (id, user_id, title, url, clicks, type, is_nsfw, position)
			  VALUES ($1, $2, $3, $4, $5, $6, $7,
			      (SELECT COALESCE(MAX(position) + 1, 0) FROM link_blocks WHERE user_id = $2))`
	if _, err := s.DB.ExecContext(ctx, query,
		link.ID, userID, link.Title, link.URL, link.Clicks, link.Type, link.IsNSFW); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// RemoveLink удаляет блок пользователя и возвращает количество удалённых строк.
func (s *Storage) RemoveLink(ctx context.Context, userID, id string) (int, error) {
	const op = "storage.RemoveLink"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM link_blocks WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}

// ReorderLinks сохраняет порядок блоков целиком: позиция равна индексу в ids.
func (s *Storage) ReorderLinks(ctx context.Context, userID string, ids []string) error {
	const op = "storage.ReorderLinks"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `UPDATE link_blocks SET position = $1 WHERE user_id = $2 AND id = $3`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, id := range ids {
		if _, err = stmt.ExecContext(ctx, i, userID, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementClicks атомарно увеличивает счётчик кликов на неотрицательную дельту.
func (s *Storage) IncrementClicks(ctx context.Context, userID, id string, delta int64) error {
	const op = "storage.IncrementClicks"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if delta < 0 {
		return fmt.Errorf("%s: negative delta %d", op, delta)
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE link_blocks SET clicks = clicks + $1 WHERE user_id = $2 AND id = $3`, delta, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, mapError(sql.ErrNoRows))
	}
	return nil
}

// LinkRef идентифицирует блок вместе с владельцем.
type LinkRef struct {
	UserID string
	LinkID string
}

// RandomLinks возвращает до limit случайных блоков всех пользователей.
func (s *Storage) RandomLinks(ctx context.Context, limit int) ([]LinkRef, error) {
	const op = "storage.RandomLinks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT user_id, id FROM link_blocks ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []LinkRef
	for rows.Next() {
		var ref LinkRef
		if err = rows.Scan(&ref.UserID, &ref.LinkID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
