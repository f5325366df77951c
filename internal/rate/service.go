package rate

import (
	"context"
	"errors"

	"stockfeed/internal/adapters"
	"stockfeed/internal/domain"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

var ErrHistoryDisabled = errors.New("rate history is not configured")

type View struct {
	Pair     domain.RatePair
	Snapshot domain.RateSnapshot
	State    State
}

type Service struct {
	resolver *Resolver
	repo     adapters.RateSnapshotRepository
}

func (s *Service) Current(ctx context.Context) View {
	snap := s.resolver.GetRate(ctx)
	return View{Pair: s.resolver.Pair(), Snapshot: snap, State: s.resolver.State()}
}

func (s *Service) Refresh(ctx context.Context) View {
	snap := s.resolver.ForceRefresh(ctx)
	return View{Pair: s.resolver.Pair(), Snapshot: snap, State: s.resolver.State()}
}

// History lists recorded snapshots, newest first. The limit is clamped to
// [1, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, limit int) ([]domain.RateSnapshot, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// GetRate lets the service stand in wherever only the snapshot is needed.
func (s *Service) GetRate(ctx context.Context) domain.RateSnapshot {
	return s.resolver.GetRate(ctx)
}

func NewService(resolver *Resolver, repo adapters.RateSnapshotRepository) *Service {
	return &Service{resolver: resolver, repo: repo}
}
