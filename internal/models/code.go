package models

import "time"

// Code modes.
const (
	CodeModeOneoff   = "oneoff"
	CodeModeReusable = "reusable"
	CodeModeSingle   = "single"
)

// Functions a code can grant.
const (
	FunctionIsAdmin         = "is_admin"
	FunctionIsPremiumMember = "is_premium_member"
)

// Redemption is one entry of a code's audit trail.
type Redemption struct {
	Username   string    `bson:"username" json:"username"`
	RedeemedAt time.Time `bson:"redeemedAt" json:"redeemedAt"`
}

// Code is a redeemable privilege code. The code string is the document id,
// which enforces uniqueness.
type Code struct {
	ID          string       `bson:"_id" json:"code"`
	Mode        string       `bson:"mode" json:"mode"`
	Function    string       `bson:"function" json:"function"`
	ExpiresAt   time.Time    `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	Redemptions []Redemption `bson:"redemptions" json:"redemptions"`

	// Global single-use bookkeeping (oneoff/single only).
	Consumed   bool       `bson:"consumed" json:"consumed"`
	ConsumedBy string     `bson:"consumedBy,omitempty" json:"consumedBy,omitempty"`
	ConsumedAt *time.Time `bson:"consumedAt,omitempty" json:"consumedAt,omitempty"`
}
