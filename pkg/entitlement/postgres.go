package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/entitlements/pkg/pg"
)

// PostgresSubscriptionStore persists subscriptions in Postgres via pgx.
type PostgresSubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriptionStore creates a subscription store on a pgx pool.
func NewPostgresSubscriptionStore(pool *pgxpool.Pool) *PostgresSubscriptionStore {
	if pool == nil {
		panic("entitlement: pgx pool is required")
	}
	return &PostgresSubscriptionStore{pool: pool}
}

func (s *PostgresSubscriptionStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, plan_id, status, provider_sub_id,
			trial_ends_at, canceled_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1`,
		userID).Scan(
		&sub.UserID, &sub.PlanID, &sub.Status, &sub.ProviderSubID,
		&sub.TrialEndsAt, &sub.CanceledAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	return &sub, nil
}

func (s *PostgresSubscriptionStore) Save(ctx context.Context, sub *Subscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions
			(user_id, plan_id, status, provider_sub_id,
			 trial_ends_at, canceled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			provider_sub_id = EXCLUDED.provider_sub_id,
			trial_ends_at = EXCLUDED.trial_ends_at,
			canceled_at = EXCLUDED.canceled_at,
			updated_at = EXCLUDED.updated_at`,
		sub.UserID, sub.PlanID, sub.Status, sub.ProviderSubID,
		sub.TrialEndsAt, sub.CanceledAt, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// NewPostgresPropertyCounter returns a PropertyCounterFunc counting committed
// property rows owned by the user. The count reflects committed state only,
// which is exactly what the check-then-act gate needs.
func NewPostgresPropertyCounter(pool *pgxpool.Pool) PropertyCounterFunc {
	return func(ctx context.Context, userID uuid.UUID) (int64, error) {
		var count int64
		err := pool.QueryRow(ctx,
			`SELECT count(*) FROM properties WHERE owner_id = $1`,
			userID).Scan(&count)
		if err != nil {
			return 0, err
		}
		return count, nil
	}
}
