package postgres

import (
	"context"
	"fmt"

	"stockfeed/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RateSnapshotRepository struct {
	pool *pgxpool.Pool
	pair domain.RatePair
}

// Save stores snap for the repository's pair. Saving the same fetch twice is a no-op.
func (r *RateSnapshotRepository) Save(ctx context.Context, snap domain.RateSnapshot) error {
	const q = `
        insert into rate_snapshots (base, quote, value, source, fetched_at)
        values ($1, $2, $3, $4, $5)
        on conflict (base, quote, fetched_at) do nothing;
    `

	if _, err := r.pool.Exec(ctx, q, r.pair.Base, r.pair.Quote, snap.Rate, string(snap.Source), snap.FetchedAt); err != nil {
		return fmt.Errorf("failed to insert snapshot for pair %q: %w", r.pair, err)
	}
	return nil
}

// ListRecent returns at most limit snapshots, newest first.
func (r *RateSnapshotRepository) ListRecent(ctx context.Context, limit int) ([]domain.RateSnapshot, error) {
	const q = `
        select value, source, fetched_at
        from rate_snapshots
        where base = $1 and quote = $2
        order by fetched_at desc
        limit $3;
    `

	rows, err := r.pool.Query(ctx, q, r.pair.Base, r.pair.Quote, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshots for pair %q: %w", r.pair, err)
	}

	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RateSnapshot, error) {
		var (
			s      domain.RateSnapshot
			source string
		)
		if scanErr := row.Scan(&s.Rate, &source, &s.FetchedAt); scanErr != nil {
			return s, scanErr
		}
		s.Source = domain.ProviderID(source)
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots for pair %q: %w", r.pair, err)
	}
	return snaps, nil
}

// Latest returns the newest recorded snapshot.
func (r *RateSnapshotRepository) Latest(ctx context.Context) (domain.RateSnapshot, error) {
	snaps, err := r.ListRecent(ctx, 1)
	if err != nil {
		return domain.RateSnapshot{}, err
	}
	if len(snaps) == 0 {
		return domain.RateSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snaps[0], nil
}

func NewRateSnapshotRepository(pool *pgxpool.Pool, pair domain.RatePair) *RateSnapshotRepository {
	return &RateSnapshotRepository{pool: pool, pair: pair}
}
