package sites

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one site. Sentinel codes resolve like any other row so the
// head-office view stays reachable by explicit request.
func (s *Service) Get(ctx context.Context, code int) (Site, error) {
	if code < 0 {
		return Site{}, fmt.Errorf("sites: invalid code %d", code)
	}
	return s.repo.Get(ctx, code)
}

// ListActive returns the selectable sites for dropdowns and cache warmup,
// sentinels excluded.
func (s *Service) ListActive(ctx context.Context) ([]Site, error) {
	return s.repo.ListActive(ctx)
}
