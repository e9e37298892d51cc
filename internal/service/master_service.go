package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arifi89/inventory-optimization/internal/cache"
	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/internal/repository"
)

// MasterService serves the seeded master dataset to the API, with segment
// summaries cached in redis. Cache failures degrade to repository reads.
type MasterService struct {
	repo  repository.MasterRepository
	cache cache.SegmentCache
}

func NewMasterService(repo repository.MasterRepository, cacheImpl cache.SegmentCache) *MasterService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSegmentCache()
	}
	return &MasterService{repo: repo, cache: cacheImpl}
}

func (s *MasterService) GetSegmentSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, error) {
	if summaries, ok, err := s.cache.GetSummaries(ctx, filter); err == nil && ok {
		return summaries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("master: cache get segment summaries failed")
	}

	summaries, err := s.repo.GetSegmentSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummaries(ctx, filter, summaries); err != nil {
		log.Warn().Err(err).Msg("master: cache set segment summaries failed")
	}

	return summaries, nil
}

func (s *MasterService) GetRecords(ctx context.Context, filter domain.MasterFilter) ([]domain.KPIRecord, int, error) {
	return s.repo.GetMasterRecords(ctx, filter)
}

func (s *MasterService) GetDashboard(ctx context.Context, filter domain.MasterFilter) (*domain.SegmentDashboard, error) {
	segments, err := s.GetSegmentSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}
	if segments == nil {
		segments = make([]domain.SegmentSummary, 0)
	}

	vendors, err := s.repo.GetVendorPerformance(ctx, filter)
	if err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = make([]domain.VendorPerformance, 0)
	}

	quality, err := s.repo.GetQualitySummary(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.SegmentDashboard{
		Segments: segments,
		Vendors:  vendors,
		Quality:  quality,
	}, nil
}

func (s *MasterService) GetQualitySummary(ctx context.Context) (domain.QualitySummary, error) {
	return s.repo.GetQualitySummary(ctx)
}

func (s *MasterService) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.repo.GetAvailableDates(ctx, limit)
}

// InvalidateCache clears cached summaries, called after a dataset re-seed.
func (s *MasterService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
