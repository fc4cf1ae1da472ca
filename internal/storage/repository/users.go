package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/vendo/internal/models"
)

const userColumns = `id, email, username, subscription, trial_ends_at, has_completed_onboarding,
			      auto_delete_after_24_months, facebook_pixel_id, google_analytics_id, hub_mode, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var fbPixel, gaID sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Subscription, &u.TrialEndsAt,
		&u.HasCompletedOnboarding, &u.PrivacySettings.AutoDeleteAfter24Months,
		&fbPixel, &gaID, &u.HubMode, &u.CreatedAt); err != nil {
		return nil, err
	}
	if fbPixel.Valid || gaID.Valid {
		u.TrackingPixels = &models.TrackingPixels{
			FacebookPixelID:   fbPixel.String,
			GoogleAnalyticsID: gaID.String,
		}
	}
	return u, nil
}

func pixelValues(p *models.TrackingPixels) (sql.NullString, sql.NullString) {
	if p == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: p.FacebookPixelID, Valid: p.FacebookPixelID != ""},
		sql.NullString{String: p.GoogleAnalyticsID, Valid: p.GoogleAnalyticsID != ""}
}

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	fbPixel, gaID := pixelValues(user.TrackingPixels)
	query := `INSERT INTO users (id, email, username, subscription, trial_ends_at,
			      has_completed_onboarding, auto_delete_after_24_months,
			      facebook_pixel_id, google_analytics_id, hub_mode)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.Subscription, user.TrialEndsAt,
		user.HasCompletedOnboarding, user.PrivacySettings.AutoDeleteAfter24Months,
		fbPixel, gaID, user.HubMode); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по e-mail.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// UpdateUser перезаписывает изменяемые поля пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	fbPixel, gaID := pixelValues(user.TrackingPixels)
	query := `UPDATE users
			  SET subscription = $1,
			      has_completed_onboarding = $2,
			      auto_delete_after_24_months = $3,
			      facebook_pixel_id = $4,
			      google_analytics_id = $5,
			      hub_mode = $6
			  WHERE id = $7`
	res, err := s.DB.ExecContext(ctx, query,
		user.Subscription, user.HasCompletedOnboarding, user.PrivacySettings.AutoDeleteAfter24Months,
		fbPixel, gaID, user.HubMode, user.ID)
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
