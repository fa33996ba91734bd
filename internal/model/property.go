package model

import "time"

// Property is a physical asset claimed by one or more principals.
// Pure domain model with no database-specific dependencies or tags.
type Property struct {
	ID            string    `json:"id"`
	AddressLine1  string    `json:"address_line1"`
	AddressLine2  string    `json:"address_line2,omitempty"`
	City          string    `json:"city"`
	Postcode      string    `json:"postcode"`
	ReferenceCode string    `json:"reference_code"`
	Completion    int       `json:"completion_pct"`
	Public        bool      `json:"public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
