package entitlement

const (
	// Unlimited marks a plan without a property ceiling.
	// -1 chosen for SQL compatibility, matching the catalog column.
	Unlimited int32 = -1

	// DefaultFreeMaxProperties applies when no FREE plan row exists in the
	// catalog. One property keeps an unconfigured install usable without
	// giving anything away.
	DefaultFreeMaxProperties int32 = 1

	// FreePlanName is the internal name of the implicit default plan.
	FreePlanName = "free"

	// FreePlanDisplayName is the display name used when FREE is unconfigured.
	FreePlanDisplayName = "Free"
)

// FeatureGrant is one registry feature annotated with whether the resolved
// plan includes it.
type FeatureGrant struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Included bool   `json:"included"`
}

// Snapshot is the computed, per-user view of plan, limits and feature
// inclusion at a point in time. Features always cover the full registry,
// sorted by category then label, so two back-to-back resolutions with no
// intervening state change serialize identically.
type Snapshot struct {
	PlanName        string         `json:"planName"`
	PlanDisplayName string         `json:"planDisplayName"`
	MaxProperties   int32          `json:"maxProperties"`
	Features        []FeatureGrant `json:"features"`
}

// HasFeature reports whether the snapshot includes the given feature key.
func (s *Snapshot) HasFeature(key string) bool {
	for _, f := range s.Features {
		if f.Key == key {
			return f.Included
		}
	}
	return false
}

// PropertyLimit is the enforcement-point view for property creation.
// CanCreate false is a normal negative result, not an error.
type PropertyLimit struct {
	PropertyCount int64 `json:"propertyCount"`
	MaxProperties int32 `json:"maxProperties"`
	CanCreate     bool  `json:"canCreate"`
}
