package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robinhoot/robinhoot_api/internal/metrics"
	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// BannerStore is the banner persistence.
type BannerStore interface {
	ListAll(ctx context.Context) ([]models.Banner, error)
	ListVisible(ctx context.Context) ([]models.Banner, error)
	GetByID(ctx context.Context, id int) (*models.Banner, error)
	Create(ctx context.Context, b *models.Banner) error
	Update(ctx context.Context, b *models.Banner) error
	Delete(ctx context.Context, id int) error
}

// BannerRequest creates or updates a banner. On update nil fields are left unchanged.
type BannerRequest struct {
	Title    *string `json:"title"`
	ImageKey *string `json:"imageKey"`
	LinkURL  *string `json:"linkUrl"`
	Position *int    `json:"position"`
	IsActive *bool   `json:"isActive"`
}

// BannerService manages storefront banners.
type BannerService struct {
	repo      BannerStore
	moderator ImageModerator
}

// NewBannerService constructs a BannerService.
func NewBannerService(repo BannerStore, moderator ImageModerator) *BannerService {
	if moderator == nil {
		moderator = NopModerator{}
	}
	return &BannerService{repo: repo, moderator: moderator}
}

// ListPublic returns active approved banners by position.
func (s *BannerService) ListPublic(ctx context.Context) ([]models.Banner, error) {
	return s.repo.ListVisible(ctx)
}

// ListAll returns every banner for the admin panel.
func (s *BannerService) ListAll(ctx context.Context) ([]models.Banner, error) {
	return s.repo.ListAll(ctx)
}

// Get returns one banner.
func (s *BannerService) Get(ctx context.Context, id int) (*models.Banner, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrBannerNotFound
		}
		return nil, err
	}
	return b, nil
}

// Create stores a banner after moderating its image.
func (s *BannerService) Create(ctx context.Context, req *BannerRequest) (*models.Banner, error) {
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", utils.ErrValidation)
	}
	if req.ImageKey == nil || strings.TrimSpace(*req.ImageKey) == "" {
		return nil, fmt.Errorf("%w: imageKey is required", utils.ErrValidation)
	}

	b := &models.Banner{
		Title:            strings.TrimSpace(*req.Title),
		ImageKey:         strings.TrimSpace(*req.ImageKey),
		IsActive:         true,
		ModerationStatus: models.ModerationPending,
	}
	if req.LinkURL != nil {
		b.LinkURL = *req.LinkURL
	}
	if req.Position != nil {
		b.Position = *req.Position
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}

	s.moderate(ctx, b)

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	log.Info().Int("banner_id", b.ID).Str("status", string(b.ModerationStatus)).Msg("Banner created")
	return b, nil
}

// Update applies a partial update. A new image is moderated again.
func (s *BannerService) Update(ctx context.Context, id int, req *BannerRequest) (*models.Banner, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", utils.ErrValidation)
		}
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.LinkURL != nil {
		b.LinkURL = *req.LinkURL
	}
	if req.Position != nil {
		b.Position = *req.Position
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if req.ImageKey != nil {
		key := strings.TrimSpace(*req.ImageKey)
		if key == "" {
			return nil, fmt.Errorf("%w: imageKey must not be empty", utils.ErrValidation)
		}
		if key != b.ImageKey {
			b.ImageKey = key
			b.ModerationStatus = models.ModerationPending
			b.ModerationNote = nil
			s.moderate(ctx, b)
		}
	}

	if b.ModerationStatus == models.ModerationRejected && b.IsActive {
		return nil, fmt.Errorf("%w: a rejected banner cannot be activated", utils.ErrValidation)
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update banner: %w", err)
	}
	return b, nil
}

// Delete removes a banner.
func (s *BannerService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// moderate sets the moderation verdict on b. A failed check leaves the banner
// pending, which keeps it off the storefront.
func (s *BannerService) moderate(ctx context.Context, b *models.Banner) {
	res, err := s.moderator.Moderate(ctx, b.ImageKey)
	if err != nil {
		log.Error().Err(err).Str("image_key", b.ImageKey).Msg("Banner moderation failed")
		metrics.RecordModeration(string(models.ModerationPending))
		b.ModerationStatus = models.ModerationPending
		return
	}

	b.ModerationStatus = res.Status
	b.ModerationNote = res.Note()
	if res.Status == models.ModerationRejected {
		b.IsActive = false
		log.Warn().Str("image_key", b.ImageKey).Strs("labels", res.Labels).Msg("Banner image rejected")
	}
	metrics.RecordModeration(string(res.Status))
}
