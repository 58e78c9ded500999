package metrics

import (
	"context"
	"fmt"
)

// Service coordinates metric resolution with the cache layer. It is the
// single entry point the HTTP handlers and warmup jobs call.
type Service struct {
	resolver  *Resolver
	assembler *Assembler
	cache     *Cache
}

// NewService wires a Resolver with a Cache helper.
func NewService(resolver *Resolver, cache *Cache) *Service {
	return &Service{resolver: resolver, assembler: NewAssembler(), cache: cache}
}

// GetMetric computes one headline card. The metric name accepts aliases;
// unknown names fail with ErrUnknownMetric before any query runs.
func (s *Service) GetMetric(ctx context.Context, metric string, scope Scope, spec PeriodSpec) (Card, error) {
	canonical, ok := CanonicalMetric(metric)
	if !ok {
		return Card{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	w, err := spec.Window()
	if err != nil {
		return Card{}, err
	}
	key, err := s.cache.BuildKey(ctx, keyCard(canonical, scope, spec))
	if err != nil {
		return Card{}, err
	}
	var card Card
	err = s.cache.FetchJSON(ctx, key, &card, func(ctx context.Context) (interface{}, error) {
		res, err := s.resolver.Resolve(ctx, canonical, scope, w)
		if err != nil {
			return nil, err
		}
		return s.assembler.Card(res), nil
	})
	return card, err
}

// GetBreakdown computes the modal payload for one metric. Ratio metrics
// fail with ErrNoBreakdown.
func (s *Service) GetBreakdown(ctx context.Context, metric string, scope Scope, spec PeriodSpec) (Breakdown, error) {
	canonical, ok := CanonicalMetric(metric)
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if !hasBreakdown(canonical) {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrNoBreakdown, canonical)
	}
	w, err := spec.Window()
	if err != nil {
		return Breakdown{}, err
	}
	key, err := s.cache.BuildKey(ctx, keyBreakdown(canonical, scope, spec))
	if err != nil {
		return Breakdown{}, err
	}
	var breakdown Breakdown
	err = s.cache.FetchJSON(ctx, key, &breakdown, func(ctx context.Context) (interface{}, error) {
		res, err := s.resolver.Resolve(ctx, canonical, scope, w)
		if err != nil {
			return nil, err
		}
		return s.assembler.Breakdown(res)
	})
	return breakdown, err
}

// GetTrend computes the chart payload for one metric over the given years.
func (s *Service) GetTrend(ctx context.Context, metric string, scope Scope, years []int) (Trend, error) {
	canonical, ok := CanonicalMetric(metric)
	if !ok {
		return Trend{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	key, err := s.cache.BuildKey(ctx, keyTrend(canonical, scope, years))
	if err != nil {
		return Trend{}, err
	}
	var trend Trend
	err = s.cache.FetchJSON(ctx, key, &trend, func(ctx context.Context) (interface{}, error) {
		data, err := s.resolver.Trend(ctx, canonical, scope, years)
		if err != nil {
			return nil, err
		}
		return s.assembler.Trend(data), nil
	})
	return trend, err
}

// InvalidateCache bumps the shared cache version after a data load.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
