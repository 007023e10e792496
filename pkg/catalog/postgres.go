package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/entitlements/pkg/pg"
)

// PostgresStorage is the production catalog store backed by pgx.
// Referential integrity between plans, features and plan_features is
// enforced by the schema, not re-checked here.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a catalog store on top of a pgx pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	if pool == nil {
		panic("catalog: pgx pool is required")
	}
	return &PostgresStorage{pool: pool}
}

const planColumns = `id, name, display_name, description,
	monthly_price_cents, yearly_price_cents, max_properties,
	is_popular, is_active, sort_order, provider_price_id`

func (s *PostgresStorage) ListActivePlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM plans
		WHERE is_active
		ORDER BY sort_order, name`)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	plans, err := scanPlans(rows)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	for i := range plans {
		if plans[i].Features, err = s.planFeatures(ctx, plans[i].ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (s *PostgresStorage) ListFeatures(ctx context.Context) ([]Feature, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, label, category
		FROM features
		ORDER BY category, label`)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	features, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Feature])
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return features, nil
}

func (s *PostgresStorage) PlanByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.planBy(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
}

func (s *PostgresStorage) PlanByName(ctx context.Context, name string) (*Plan, error) {
	return s.planBy(ctx, `SELECT `+planColumns+` FROM plans WHERE name = $1`, name)
}

func (s *PostgresStorage) PlanIDByPriceID(ctx context.Context, priceID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM plans WHERE provider_price_id = $1 AND provider_price_id <> ''`,
		priceID).Scan(&id)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, ErrPlanNotFound
		}
		return uuid.Nil, errors.Join(ErrStorageUnavailable, err)
	}
	return id, nil
}

func (s *PostgresStorage) CreateFeature(ctx context.Context, f Feature) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO features (key, label, category)
		VALUES ($1, $2, $3)`,
		f.Key, f.Label, f.Category)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrFeatureAlreadyExists
		}
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStorage) UpdateFeature(ctx context.Context, key string, f Feature) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE features SET label = $2, category = $3
		WHERE key = $1`,
		key, f.Label, f.Category)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeatureNotFound
	}
	return nil
}

func (s *PostgresStorage) CreatePlan(ctx context.Context, p *Plan) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO plans (`+planColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.Name, p.DisplayName, p.Description,
			p.MonthlyPriceCents, p.YearlyPriceCents, p.MaxProperties,
			p.IsPopular, p.IsActive, p.SortOrder, p.ProviderPriceID)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return ErrPlanAlreadyExists
			}
			return errors.Join(ErrStorageUnavailable, err)
		}
		return insertPlanFeatures(ctx, tx, p)
	})
}

func (s *PostgresStorage) UpdatePlan(ctx context.Context, p *Plan) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE plans SET
				name = $2, display_name = $3, description = $4,
				monthly_price_cents = $5, yearly_price_cents = $6,
				max_properties = $7, is_popular = $8, is_active = $9,
				sort_order = $10, provider_price_id = $11
			WHERE id = $1`,
			p.ID, p.Name, p.DisplayName, p.Description,
			p.MonthlyPriceCents, p.YearlyPriceCents, p.MaxProperties,
			p.IsPopular, p.IsActive, p.SortOrder, p.ProviderPriceID)
		if err != nil {
			return errors.Join(ErrStorageUnavailable, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPlanNotFound
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM plan_features WHERE plan_id = $1`, p.ID); err != nil {
			return errors.Join(ErrStorageUnavailable, err)
		}
		return insertPlanFeatures(ctx, tx, p)
	})
}

func (s *PostgresStorage) DeactivatePlan(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE plans SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PostgresStorage) planBy(ctx context.Context, query string, arg any) (*Plan, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	plan, err := pgx.CollectExactlyOneRow(rows, scanPlanRow)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPlanNotFound
		}
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	if plan.Features, err = s.planFeatures(ctx, plan.ID); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PostgresStorage) planFeatures(ctx context.Context, planID uuid.UUID) ([]Feature, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f.key, f.label, f.category
		FROM plan_features pf
		JOIN features f ON f.key = pf.feature_key
		WHERE pf.plan_id = $1
		ORDER BY f.category, f.label`,
		planID)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	features, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Feature])
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return features, nil
}

func (s *PostgresStorage) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func insertPlanFeatures(ctx context.Context, tx pgx.Tx, p *Plan) error {
	for _, f := range p.Features {
		if _, err := tx.Exec(ctx, `
			INSERT INTO plan_features (plan_id, feature_key)
			VALUES ($1, $2)`,
			p.ID, f.Key); err != nil {
			if pg.IsForeignKeyViolationError(err) {
				return ErrFeatureNotFound
			}
			return errors.Join(ErrStorageUnavailable, err)
		}
	}
	return nil
}

func scanPlanRow(row pgx.CollectableRow) (Plan, error) {
	var p Plan
	err := row.Scan(
		&p.ID, &p.Name, &p.DisplayName, &p.Description,
		&p.MonthlyPriceCents, &p.YearlyPriceCents, &p.MaxProperties,
		&p.IsPopular, &p.IsActive, &p.SortOrder, &p.ProviderPriceID)
	return p, err
}

func scanPlans(rows pgx.Rows) ([]Plan, error) {
	return pgx.CollectRows(rows, scanPlanRow)
}
