package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service is the administrative and read surface of the plan catalog.
// It validates input before touching storage; authorization of
// administrative calls is the transport layer's job.
type Service interface {
	ListActivePlans(ctx context.Context) ([]Plan, error)
	ListFeatures(ctx context.Context) ([]Feature, error)

	CreateFeature(ctx context.Context, f Feature) error
	UpdateFeature(ctx context.Context, key string, f Feature) error

	CreatePlan(ctx context.Context, p *Plan) (*Plan, error)
	UpdatePlan(ctx context.Context, p *Plan) error
	DeactivatePlan(ctx context.Context, id uuid.UUID) error
}

type service struct {
	storage Storage
}

// NewService creates a catalog Service backed by the given Storage.
// Panics on nil storage to fail fast during initialization.
func NewService(storage Storage) Service {
	if storage == nil {
		panic("catalog: Storage is required")
	}
	return &service{storage: storage}
}

// ListActivePlans returns the public catalog. Storage failures propagate;
// an empty catalog is a valid, distinguishable result.
func (s *service) ListActivePlans(ctx context.Context) ([]Plan, error) {
	return s.storage.ListActivePlans(ctx)
}

// ListFeatures returns the full feature registry sorted by category then label.
func (s *service) ListFeatures(ctx context.Context) ([]Feature, error) {
	return s.storage.ListFeatures(ctx)
}

func (s *service) CreateFeature(ctx context.Context, f Feature) error {
	if err := validateFeature(f); err != nil {
		return err
	}
	return s.storage.CreateFeature(ctx, f)
}

func (s *service) UpdateFeature(ctx context.Context, key string, f Feature) error {
	if key == "" {
		return errors.Join(ErrInvalidFeature, errors.New("feature key is required"))
	}
	if err := validateFeature(f); err != nil {
		return err
	}
	// Keys are immutable once referenced by a plan; reject renames outright.
	if f.Key != key {
		return errors.Join(ErrInvalidFeature, errors.New("feature key cannot be changed"))
	}
	return s.storage.UpdateFeature(ctx, key, f)
}

func (s *service) CreatePlan(ctx context.Context, p *Plan) (*Plan, error) {
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := s.storage.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) UpdatePlan(ctx context.Context, p *Plan) error {
	if p == nil || p.ID == uuid.Nil {
		return errors.Join(ErrInvalidPlan, errors.New("plan ID is required"))
	}
	if err := validatePlan(p); err != nil {
		return err
	}
	return s.storage.UpdatePlan(ctx, p)
}

func (s *service) DeactivatePlan(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.Join(ErrInvalidPlan, errors.New("plan ID is required"))
	}
	return s.storage.DeactivatePlan(ctx, id)
}

func validateFeature(f Feature) error {
	if strings.TrimSpace(f.Key) == "" {
		return errors.Join(ErrInvalidFeature, errors.New("feature key is required"))
	}
	if strings.TrimSpace(f.Label) == "" {
		return errors.Join(ErrInvalidFeature, errors.New("feature label is required"))
	}
	if strings.TrimSpace(f.Category) == "" {
		return errors.Join(ErrInvalidFeature, errors.New("feature category is required"))
	}
	return nil
}

func validatePlan(p *Plan) error {
	if p == nil {
		return errors.Join(ErrInvalidPlan, errors.New("plan is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidPlan, errors.New("plan name is required"))
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return errors.Join(ErrInvalidPlan, errors.New("plan display name is required"))
	}
	if p.MonthlyPriceCents < 0 || p.YearlyPriceCents < 0 {
		return errors.Join(ErrInvalidPlan, errors.New("plan prices must be non-negative"))
	}
	// -1 is the unlimited sentinel; anything below that is a typo.
	if p.MaxProperties < -1 {
		return errors.Join(ErrInvalidPlan,
			fmt.Errorf("invalid property ceiling %d: use -1 for unlimited", p.MaxProperties))
	}
	seen := make(map[string]struct{}, len(p.Features))
	for _, f := range p.Features {
		if _, dup := seen[f.Key]; dup {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("duplicate feature link %q", f.Key))
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}
