package catalog

import "github.com/google/uuid"

// Feature is a toggleable capability identified by a stable key.
// Keys are immutable once referenced by a plan; only the label and
// category may change afterwards.
type Feature struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Plan describes a subscription tier. Prices are stored in cents to avoid
// floating-point money. MaxProperties is the property-count ceiling;
// a value of -1 (entitlement.Unlimited) means no ceiling and is stored
// literally. Zero is a valid, literal ceiling of zero properties — the
// catalog never reinterprets it as unlimited.
type Plan struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	DisplayName       string    `json:"displayName"`
	Description       string    `json:"description"`
	MonthlyPriceCents int64     `json:"monthlyPriceCents"`
	YearlyPriceCents  int64     `json:"yearlyPriceCents"`
	MaxProperties     int32     `json:"maxProperties"`
	IsPopular         bool      `json:"isPopular"`
	IsActive          bool      `json:"isActive"`
	SortOrder         int32     `json:"sortOrder"`

	// ProviderPriceID is the billing provider's price identifier
	// (e.g. Paddle pri_xxx) used to map webhook events back to a plan.
	// Empty for free plans that never touch the provider.
	ProviderPriceID string `json:"-"`

	// Features resolved through the plan_features junction,
	// ordered by category then label.
	Features []Feature `json:"features"`
}

// FeatureKeys returns the plan's linked feature keys as a set.
func (p *Plan) FeatureKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(p.Features))
	for _, f := range p.Features {
		keys[f.Key] = struct{}{}
	}
	return keys
}

// HasFeature reports whether the plan links the given feature key.
func (p *Plan) HasFeature(key string) bool {
	for _, f := range p.Features {
		if f.Key == key {
			return true
		}
	}
	return false
}
