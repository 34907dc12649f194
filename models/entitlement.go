package models

import "time"

// TokenGrant is a batch of prepaid session tokens held by a customer.
// One token covers exactly one communal, single-guest booking.
type TokenGrant struct {
	ID            string     `bson:"id" json:"id"`
	CustomerEmail string     `bson:"customerEmail" json:"customerEmail"`
	Remaining     int        `bson:"remaining" json:"remaining"`
	ExpiresAt     *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"` // nil = never expires
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
}

// Membership grants either a weekly session allowance or unlimited sessions.
type Membership struct {
	ID                string    `bson:"id" json:"id"`
	UserID            string    `bson:"userId" json:"userId"`
	Status            string    `bson:"status" json:"status"` // "active" | "paused" | "cancelled"
	SessionsPerWeek   int       `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	SessionsRemaining int       `bson:"sessionsRemaining" json:"sessionsRemaining"`
	Unlimited         bool      `bson:"unlimited" json:"unlimited"`
	EndDate           string    `bson:"endDate" json:"endDate"` // "2006-01-02"
	WeekResetAt       time.Time `bson:"weekResetAt" json:"weekResetAt"`
}

// StoreCredit is a monetary balance grant in pence, consumed
// oldest-expiry-first.
type StoreCredit struct {
	ID        string     `bson:"id" json:"id"`
	UserID    string     `bson:"userId" json:"userId"`
	Balance   int64      `bson:"balance" json:"balance"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	Source    string     `bson:"source,omitempty" json:"source,omitempty"` // e.g. "gift_card", "refund"
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}

// GiftCard converts to store credit on redemption.
type GiftCard struct {
	ID           string     `bson:"id" json:"id"`
	Code         string     `bson:"code" json:"code"`
	AmountPence  int64      `bson:"amountPence" json:"amountPence"`
	Redeemed     bool       `bson:"redeemed" json:"redeemed"`
	RedeemedBy   string     `bson:"redeemedBy,omitempty" json:"redeemedBy,omitempty"`
	RedeemedAt   *time.Time `bson:"redeemedAt,omitempty" json:"redeemedAt,omitempty"`
	ExpiresAt    *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreditExpiry int        `bson:"creditExpiryDays" json:"creditExpiryDays"` // validity of the granted credit, in days
}

// Discount kinds.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// DiscountCode covers both promo and partner codes.
type DiscountCode struct {
	ID             string     `bson:"id" json:"id"`
	Code           string     `bson:"code" json:"code"`
	Kind           string     `bson:"kind" json:"kind"` // "percentage" | "fixed"
	Value          int64      `bson:"value" json:"value"`
	Active         bool       `bson:"active" json:"active"`
	ValidFrom      *time.Time `bson:"validFrom,omitempty" json:"validFrom,omitempty"`
	ValidUntil     *time.Time `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
	UsageLimit     int        `bson:"usageLimit,omitempty" json:"usageLimit,omitempty"` // 0 = unlimited
	UsageCount     int        `bson:"usageCount" json:"usageCount"`
	MinAmountPence int64      `bson:"minAmountPence,omitempty" json:"minAmountPence,omitempty"`
}

// CreditDeduction records how much was taken from a single credit grant.
type CreditDeduction struct {
	CreditID string `bson:"creditId" json:"creditId"`
	Amount   int64  `bson:"amount" json:"amount"`
}
