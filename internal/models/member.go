package models

import "time"

// Member is a gym member profile attached to a user account
type Member struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	TaxNumber      string    `json:"tax_number"`
	BalanceCents   int64     `json:"balance_cents"`
	RegularPayment bool      `json:"regular_payment"`
	PhotoRef       *string   `json:"photo_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MemberWithUser combines a member with their account
type MemberWithUser struct {
	Member Member `json:"member"`
	User   User   `json:"user"`
}
