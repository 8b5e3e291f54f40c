package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type trainerSearcher interface {
	SearchTrainers(ctx context.Context, filter models.TrainerFilter) ([]models.TrainerSummary, error)
}

// DiscoveryService answers trainer search queries, optionally through the
// cache. Results are re-evaluated from scratch on every miss; there is no
// pagination cursor.
type DiscoveryService struct {
	repo   trainerSearcher
	cache  *CacheService
	logger *zap.Logger
}

// NewDiscoveryService constructs DiscoveryService.
func NewDiscoveryService(repo trainerSearcher, cache *CacheService, logger *zap.Logger) *DiscoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscoveryService{repo: repo, cache: cache, logger: logger}
}

// Search returns the filtered, ordered trainer list. The second return value
// reports whether the payload came from cache.
func (s *DiscoveryService) Search(ctx context.Context, filter models.TrainerFilter) ([]models.TrainerSummary, bool, error) {
	if filter.MinRate != nil && filter.MaxRate != nil && *filter.MinRate > *filter.MaxRate {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "minRate cannot exceed maxRate")
	}

	key := cacheKey(filter)
	var cached []models.TrainerSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	trainers, err := s.repo.SearchTrainers(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search trainers")
	}
	if trainers == nil {
		trainers = []models.TrainerSummary{}
	}

	if err := s.cache.Set(ctx, key, trainers, 0); err != nil {
		s.logger.Warn("failed to cache discovery results", zap.Error(err))
	}

	return trainers, false, nil
}

// InvalidateCache drops every cached discovery payload. Called when trainer
// profiles or ratings change.
func (s *DiscoveryService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "discovery:trainers:*"); err != nil {
		s.logger.Warn("failed to invalidate discovery cache", zap.Error(err))
	}
}

func cacheKey(filter models.TrainerFilter) string {
	parts := []string{
		strings.ToLower(filter.Language),
		floatPart(filter.MinRate),
		floatPart(filter.MaxRate),
		intPart(filter.MinExperience),
		strings.ToLower(filter.Specialization),
		floatPart(filter.MinRating),
		strings.ToLower(filter.Search),
		filter.SortBy,
	}
	return "discovery:trainers:" + strings.Join(parts, "|")
}

func floatPart(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func intPart(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
