package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for tests and local development.
// All reads return deep copies so callers cannot mutate internal state.
type MemoryStorage struct {
	mu       sync.RWMutex
	plans    map[uuid.UUID]Plan
	features map[string]Feature
}

// NewMemoryStorage returns an empty in-memory catalog store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		plans:    make(map[uuid.UUID]Plan),
		features: make(map[string]Feature),
	}
}

func (m *MemoryStorage) ListActivePlans(_ context.Context) ([]Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Plan, 0, len(m.plans))
	for _, p := range m.plans {
		if p.IsActive {
			out = append(out, clonePlan(p))
		}
	}
	sortPlans(out)
	return out, nil
}

func (m *MemoryStorage) ListFeatures(_ context.Context) ([]Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Feature, 0, len(m.features))
	for _, f := range m.features {
		out = append(out, f)
	}
	sortFeatures(out)
	return out, nil
}

func (m *MemoryStorage) PlanByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := clonePlan(p)
	return &cp, nil
}

func (m *MemoryStorage) PlanByName(_ context.Context, name string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.Name == name {
			cp := clonePlan(p)
			return &cp, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (m *MemoryStorage) PlanIDByPriceID(_ context.Context, priceID string) (uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if priceID != "" {
		for _, p := range m.plans {
			if p.ProviderPriceID == priceID {
				return p.ID, nil
			}
		}
	}
	return uuid.Nil, ErrPlanNotFound
}

func (m *MemoryStorage) CreateFeature(_ context.Context, f Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.features[f.Key]; exists {
		return ErrFeatureAlreadyExists
	}
	m.features[f.Key] = f
	return nil
}

func (m *MemoryStorage) UpdateFeature(_ context.Context, key string, f Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.features[key]; !exists {
		return ErrFeatureNotFound
	}
	f.Key = key
	m.features[key] = f

	// Keep plan feature links in sync with the updated label/category.
	for id, p := range m.plans {
		for i := range p.Features {
			if p.Features[i].Key == key {
				p.Features[i] = f
			}
		}
		sortFeatures(p.Features)
		m.plans[id] = p
	}
	return nil
}

func (m *MemoryStorage) CreatePlan(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plans[p.ID]; exists {
		return ErrPlanAlreadyExists
	}
	for _, existing := range m.plans {
		if existing.Name == p.Name {
			return ErrPlanAlreadyExists
		}
	}
	cp := clonePlan(*p)
	sortFeatures(cp.Features)
	m.plans[p.ID] = cp
	return nil
}

func (m *MemoryStorage) UpdatePlan(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plans[p.ID]; !exists {
		return ErrPlanNotFound
	}
	cp := clonePlan(*p)
	sortFeatures(cp.Features)
	m.plans[p.ID] = cp
	return nil
}

func (m *MemoryStorage) DeactivatePlan(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.plans[id]
	if !exists {
		return ErrPlanNotFound
	}
	p.IsActive = false
	m.plans[id] = p
	return nil
}

func clonePlan(p Plan) Plan {
	p.Features = slices.Clone(p.Features)
	return p
}

func sortPlans(plans []Plan) {
	slices.SortFunc(plans, func(a, b Plan) int {
		if a.SortOrder != b.SortOrder {
			return int(a.SortOrder - b.SortOrder)
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func sortFeatures(features []Feature) {
	slices.SortFunc(features, func(a, b Feature) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}
