package entitlement

import "errors"

var (
	ErrCodeNotFound      = errors.New("discount code not found")
	ErrCodeInactive      = errors.New("discount code is not active")
	ErrCodeExpired       = errors.New("discount code is outside its validity window")
	ErrCodeExhausted     = errors.New("discount code usage limit reached")
	ErrCodeMinAmount     = errors.New("booking amount below the code's minimum")
	ErrNoTokens          = errors.New("no usable session tokens")
	ErrNoSessions        = errors.New("no membership sessions remaining this week")
	ErrCreditRace        = errors.New("store credit changed while booking; retry")
	ErrGiftCardNotFound  = errors.New("gift card not found")
	ErrGiftCardExpired   = errors.New("gift card has expired")
	ErrGiftCardRedeemed  = errors.New("gift card already redeemed")
)
