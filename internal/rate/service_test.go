package rate

import (
	"context"
	"testing"
	"time"

	"stockfeed/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_Current(t *testing.T) {
	p := &stubProvider{id: "yahoo", value: 83.5}
	svc := NewService(newTestResolver(t, []Provider{p.provider(1)}), nil)

	view := svc.Current(context.Background())

	require.Equal(t, "USD/INR", view.Pair.String())
	require.Equal(t, 83.5, view.Snapshot.Rate)
	require.Equal(t, StateCachedValid, view.State)
}

func TestService_Refresh_BypassesCache(t *testing.T) {
	p := &stubProvider{id: "yahoo", value: 83.5}
	svc := NewService(newTestResolver(t, []Provider{p.provider(1)}), nil)

	svc.Current(context.Background())
	p.set(84.1, nil)
	view := svc.Refresh(context.Background())

	require.Equal(t, 84.1, view.Snapshot.Rate)
	require.Equal(t, int32(2), p.calls.Load())
}

func TestService_History_Disabled(t *testing.T) {
	svc := NewService(newTestResolver(t, nil), nil)

	_, err := svc.History(context.Background(), 10)
	require.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestService_History_ClampsLimit(t *testing.T) {
	repo := new(MockSnapshotRepository)
	snaps := []domain.RateSnapshot{{Rate: 83, Source: "yahoo", FetchedAt: time.Now()}}
	repo.On("ListRecent", mock.Anything, DefaultHistoryLimit).Return(snaps, nil).Once()
	repo.On("ListRecent", mock.Anything, MaxHistoryLimit).Return(snaps, nil).Once()
	repo.On("ListRecent", mock.Anything, 7).Return(snaps, nil).Once()

	svc := NewService(newTestResolver(t, nil), repo)

	for _, limit := range []int{0, 10_000, 7} {
		got, err := svc.History(context.Background(), limit)
		require.NoError(t, err)
		require.Equal(t, snaps, got)
	}
	repo.AssertExpectations(t)
}
