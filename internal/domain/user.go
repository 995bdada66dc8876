package domain

import "time"

// SubscriptionTier is the billing plan attached to a user.
type SubscriptionTier string

// Subscription tiers.
const (
	TierFree       SubscriptionTier = "free"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Valid reports whether t is a recognized tier.
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// User is an account provisioned from an external identity provider subject.
type User struct {
	ID               string           `json:"id"`
	ExternalAuthID   string           `json:"external_auth_id"`
	Email            string           `json:"email,omitempty"`
	DisplayName      string           `json:"display_name,omitempty"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Email            *string
	DisplayName      *string
	SubscriptionTier *SubscriptionTier
}
