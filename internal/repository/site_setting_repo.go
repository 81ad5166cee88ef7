package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/robinhoot/robinhoot_api/internal/models"
)

// SiteSettingRepository handles site_settings key/value rows.
type SiteSettingRepository struct {
	db *sqlx.DB
}

// NewSiteSettingRepository creates a new SiteSettingRepository.
func NewSiteSettingRepository(db *sqlx.DB) *SiteSettingRepository {
	return &SiteSettingRepository{db: db}
}

// List returns all settings ordered by key.
func (r *SiteSettingRepository) List(ctx context.Context) ([]models.SiteSetting, error) {
	settings := []models.SiteSetting{}
	if err := r.db.SelectContext(ctx, &settings, `SELECT key, value, updated_at FROM site_settings ORDER BY key`); err != nil {
		return nil, err
	}
	return settings, nil
}

// Get returns one setting. Returns sql.ErrNoRows when missing.
func (r *SiteSettingRepository) Get(ctx context.Context, key string) (*models.SiteSetting, error) {
	var s models.SiteSetting
	if err := r.db.GetContext(ctx, &s, `SELECT key, value, updated_at FROM site_settings WHERE key = $1`, key); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts or replaces a setting value.
func (r *SiteSettingRepository) Upsert(ctx context.Context, key, value string) (*models.SiteSetting, error) {
	const q = `
		INSERT INTO site_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, updated_at`
	var s models.SiteSetting
	if err := r.db.GetContext(ctx, &s, q, key, value); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a setting and reports whether it existed.
func (r *SiteSettingRepository) Delete(ctx context.Context, key string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM site_settings WHERE key = $1`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
