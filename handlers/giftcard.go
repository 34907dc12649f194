package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"icehaus/services/entitlement"
	"icehaus/services/notification"
)

// GiftCardHandler exposes gift card redemption.
type GiftCardHandler struct {
	Svc      entitlement.EntitlementService
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// NewGiftCardHandler constructs a GiftCardHandler.
func NewGiftCardHandler(svc entitlement.EntitlementService, notifier notification.NotificationService, logger *zap.Logger) *GiftCardHandler {
	return &GiftCardHandler{Svc: svc, Notifier: notifier, Logger: logger}
}

// RedeemHandler handles POST /api/giftcards/redeem for the signed-in
// customer. A redeemed card becomes a store credit grant.
func (h *GiftCardHandler) RedeemHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	credit, err := h.Svc.RedeemGiftCard(c.Request.Context(), userID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrGiftCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "gift card not found"})
		case errors.Is(err, entitlement.ErrGiftCardExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "gift card has expired"})
		case errors.Is(err, entitlement.ErrGiftCardRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "gift card already redeemed"})
		default:
			h.Logger.Error("Gift card redemption failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	if email := c.GetString("userEmail"); email != "" && h.Notifier != nil {
		expires := ""
		if credit.ExpiresAt != nil {
			expires = credit.ExpiresAt.Format("2006-01-02")
		}
		go func() {
			if err := h.Notifier.SendGiftCardReceipt(context.Background(), email, credit.Balance, expires); err != nil {
				h.Logger.Warn("Failed to send gift card receipt", zap.Error(err))
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"creditId":     credit.ID,
		"balancePence": credit.Balance,
		"expiresAt":    credit.ExpiresAt,
	})
}
