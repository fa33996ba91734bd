package model

import "time"

// Tier is the relationship tier between a principal and a property.
// Tiers are ordered: owner > occupier > interested.
type Tier string

const (
	TierOwner      Tier = "owner"
	TierOccupier   Tier = "occupier"
	TierInterested Tier = "interested"
)

// Rank returns the privilege order of the tier. Unknown tiers rank zero.
func (t Tier) Rank() int {
	switch t {
	case TierOwner:
		return 3
	case TierOccupier:
		return 2
	case TierInterested:
		return 1
	}
	return 0
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// Relationship associates a principal with a property under exactly one tier.
// The (principal, property, tier) triple is unique; a principal holding more
// than one tier on the same property holds one row per tier.
type Relationship struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	PrincipalID string    `json:"principal_id"`
	Tier        Tier      `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}
