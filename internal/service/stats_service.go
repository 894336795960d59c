package service

import (
	"context"

	"github.com/Trust-Mwendabai/CDIMS/internal/cache"
	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"golang.org/x/sync/singleflight"
)

// StatsService serves the dashboard aggregates. The numbers are placeholders
// until the ingestion pipeline lands; the cache/singleflight path is the one
// the real computation will plug into.
type StatsService struct {
	cache *cache.StatsCache
	sf    singleflight.Group
}

// NewStatsService creates a StatsService. If c is nil, caching is disabled.
func NewStatsService(c *cache.StatsCache) *StatsService {
	return &StatsService{cache: c}
}

// Summary returns the dashboard summary, collapsing concurrent cache misses
// into a single build.
func (s *StatsService) Summary(ctx context.Context) (dom.DashboardSummary, error) {
	if s.cache == nil {
		return buildSummary(), nil
	}
	v, err, _ := s.sf.Do("summary", func() (interface{}, error) {
		if cached, err := s.cache.GetSummary(ctx); err == nil && cached != nil {
			return *cached, nil
		}
		summary := buildSummary()
		_ = s.cache.SetSummary(ctx, summary)
		return summary, nil
	})
	if err != nil {
		return dom.DashboardSummary{}, err
	}
	return v.(dom.DashboardSummary), nil
}

func buildSummary() dom.DashboardSummary {
	return dom.DashboardSummary{
		Stations:        42,
		ActiveStations:  37,
		Datasets:        12,
		LastImport:      "2026-08-01",
		AvgTempC:        21.4,
		TotalRainfallMM: 1043.7,
		ByStation: []dom.StationStat{
			{Station: "Lusaka City Airport", Province: "Lusaka", AvgTempC: 21.9, RainfallMM: 836.2, Completeness: 0.97},
			{Station: "Ndola", Province: "Copperbelt", AvgTempC: 20.8, RainfallMM: 1201.5, Completeness: 0.93},
			{Station: "Livingstone", Province: "Southern", AvgTempC: 23.1, RainfallMM: 688.4, Completeness: 0.91},
			{Station: "Kasama", Province: "Northern", AvgTempC: 20.2, RainfallMM: 1394.0, Completeness: 0.88},
			{Station: "Mongu", Province: "Western", AvgTempC: 22.6, RainfallMM: 911.3, Completeness: 0.95},
		},
	}
}
