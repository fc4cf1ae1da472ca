package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/vendo/internal/models"
)

// SaveCampaign создаёт кампанию или перезаписывает её целиком.
func (s *Storage) SaveCampaign(ctx context.Context, c models.AdCampaign) error {
	const op = "storage.SaveCampaign"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO campaigns (id, user_id, product_name, description, tone, status,
			      hook, script, avatar_name, thumbnail_url, video_uri, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  ON CONFLICT (id) DO UPDATE SET
			      status = EXCLUDED.status,
			      hook = EXCLUDED.hook,
			      script = EXCLUDED.script,
			      avatar_name = EXCLUDED.avatar_name,
			      thumbnail_url = EXCLUDED.thumbnail_url,
			      video_uri = EXCLUDED.video_uri`
	if _, err := s.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.ProductName, c.Description, c.Tone, c.Status,
		c.Hook, c.Script, c.AvatarName, c.ThumbnailURL, c.VideoURI, c.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// DeleteCampaign удаляет кампанию по ID.
func (s *Storage) DeleteCampaign(ctx context.Context, id string) error {
	const op = "storage.DeleteCampaign"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListCompletedScripts возвращает сценарии последних завершённых кампаний пользователя.
func (s *Storage) ListCompletedScripts(ctx context.Context, userID string, limit int) ([]string, error) {
	const op = "storage.ListCompletedScripts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT script FROM campaigns
			  WHERE user_id = $1 AND status = $2 AND script <> ''
			  ORDER BY created_at DESC
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, models.CampaignCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var script string
		if err = rows.Scan(&script); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, script)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteExpiredCampaigns удаляет кампании старше before у пользователей,
// включивших автоудаление, и возвращает количество удалённых строк.
func (s *Storage) DeleteExpiredCampaigns(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.DeleteExpiredCampaigns"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM campaigns c
			  USING users u
			  WHERE c.user_id = u.id
			    AND u.auto_delete_after_24_months
			    AND c.created_at < $1`
	res, err := s.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
