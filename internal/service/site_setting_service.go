package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9_.\-]{1,100}$`)

// SiteSettingStore is the key/value settings persistence.
type SiteSettingStore interface {
	List(ctx context.Context) ([]models.SiteSetting, error)
	Get(ctx context.Context, key string) (*models.SiteSetting, error)
	Upsert(ctx context.Context, key, value string) (*models.SiteSetting, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// SiteSettingService manages storefront key/value settings.
type SiteSettingService struct {
	repo SiteSettingStore
}

// NewSiteSettingService constructs a SiteSettingService.
func NewSiteSettingService(repo SiteSettingStore) *SiteSettingService {
	return &SiteSettingService{repo: repo}
}

// List returns every setting.
func (s *SiteSettingService) List(ctx context.Context) ([]models.SiteSetting, error) {
	return s.repo.List(ctx)
}

// Map returns every setting as key to value.
func (s *SiteSettingService) Map(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

// Get returns one setting.
func (s *SiteSettingService) Get(ctx context.Context, key string) (*models.SiteSetting, error) {
	st, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrSettingNotFound
		}
		return nil, err
	}
	return st, nil
}

// Set creates or replaces a setting.
func (s *SiteSettingService) Set(ctx context.Context, key, value string) (*models.SiteSetting, error) {
	if !settingKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("%w: key must be 1-100 lowercase letters, digits, '.', '_' or '-'", utils.ErrValidation)
	}
	return s.repo.Upsert(ctx, key, value)
}

// Delete removes a setting.
func (s *SiteSettingService) Delete(ctx context.Context, key string) error {
	found, err := s.repo.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return utils.ErrSettingNotFound
	}
	return nil
}
