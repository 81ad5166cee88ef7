package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/robinhoot/robinhoot_api/internal/models"
)

const bannerColumns = `id, title, image_key, link_url, position, is_active,
	moderation_status, moderation_note, created_at, updated_at`

// BannerRepository handles banners database operations.
type BannerRepository struct {
	db *sqlx.DB
}

// NewBannerRepository creates a new BannerRepository.
func NewBannerRepository(db *sqlx.DB) *BannerRepository {
	return &BannerRepository{db: db}
}

// ListAll returns every banner ordered by position.
func (r *BannerRepository) ListAll(ctx context.Context) ([]models.Banner, error) {
	banners := []models.Banner{}
	q := `SELECT ` + bannerColumns + ` FROM banners ORDER BY position, id`
	if err := r.db.SelectContext(ctx, &banners, q); err != nil {
		return nil, err
	}
	return banners, nil
}

// ListVisible returns active, approved banners ordered by position.
func (r *BannerRepository) ListVisible(ctx context.Context) ([]models.Banner, error) {
	banners := []models.Banner{}
	q := `SELECT ` + bannerColumns + ` FROM banners
		WHERE is_active = true AND moderation_status = 'approved'
		ORDER BY position, id`
	if err := r.db.SelectContext(ctx, &banners, q); err != nil {
		return nil, err
	}
	return banners, nil
}

// GetByID returns a banner. Returns sql.ErrNoRows when missing.
func (r *BannerRepository) GetByID(ctx context.Context, id int) (*models.Banner, error) {
	var b models.Banner
	if err := r.db.GetContext(ctx, &b, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a banner.
func (r *BannerRepository) Create(ctx context.Context, b *models.Banner) error {
	const q = `
		INSERT INTO banners (title, image_key, link_url, position, is_active, moderation_status, moderation_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q,
		b.Title, b.ImageKey, b.LinkURL, b.Position, b.IsActive, b.ModerationStatus, b.ModerationNote,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// Update writes all mutable banner columns.
func (r *BannerRepository) Update(ctx context.Context, b *models.Banner) error {
	const q = `
		UPDATE banners
		SET title = $1, image_key = $2, link_url = $3, position = $4, is_active = $5,
			moderation_status = $6, moderation_note = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, q,
		b.Title, b.ImageKey, b.LinkURL, b.Position, b.IsActive, b.ModerationStatus, b.ModerationNote, b.ID,
	).Scan(&b.UpdatedAt)
}

// Delete removes a banner.
func (r *BannerRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	return err
}
