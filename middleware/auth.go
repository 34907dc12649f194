package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"icehaus/utils"
)

// JWTAuthMiddleware authenticates the customer from a Bearer token. The
// token hash is cached in Redis so repeat requests skip signature
// verification bookkeeping; a cache outage falls back to validating the
// token alone.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, email, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		computedHash := utils.HashToken(tokenString)
		cacheKey := utils.AuthCachePrefix + userID

		authCache := utils.GetAuthCacheClient()
		if authCache != nil {
			ctx := context.Background()
			cachedHash, err := authCache.Get(ctx, cacheKey).Result()
			switch {
			case err == nil && cachedHash != computedHash:
				// A different token was issued since; this one is revoked.
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			case err == nil:
				_ = authCache.Expire(ctx, cacheKey, time.Hour).Err()
			case err == redis.Nil:
				_ = authCache.Set(ctx, cacheKey, computedHash, time.Hour).Err()
			default:
				zap.L().Warn("Auth cache lookup failed, accepting validated token", zap.Error(err))
			}
		}

		c.Set("userID", userID)
		c.Set("userEmail", email)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the customer identity when a valid token is
// present but lets anonymous requests through.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if userID, email, err := utils.ExtractIdentityFromToken(tokenString); err == nil && userID != "" {
				c.Set("userID", userID)
				c.Set("userEmail", email)
			}
		}
		c.Next()
	}
}
