package cache

import (
	"context"
	"time"

	"tutupbuku/backend/internal/domain"
)

// OverviewCache holds rendered day overviews. Any write touching a date must
// invalidate that date's entry, so Invalidate is part of the contract.
type OverviewCache interface {
	Get(ctx context.Context, key string) (*domain.DayOverview, bool, error)
	Set(ctx context.Context, key string, value *domain.DayOverview, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopOverviewCache struct{}

func (NoopOverviewCache) Get(_ context.Context, _ string) (*domain.DayOverview, bool, error) {
	return nil, false, nil
}

func (NoopOverviewCache) Set(_ context.Context, _ string, _ *domain.DayOverview, _ time.Duration) error {
	return nil
}

func (NoopOverviewCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
