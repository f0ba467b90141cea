package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

const (
	HeaderSessionID = "X-Session-ID"

	identityKey = "identity"
	reviewerKey = "reviewer"
)

// ResolveIdentity resolves the caller once per request. A bearer token wins
// over a guest session header; a request may carry neither.
func (h *Handlers) ResolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				handleError(c, errors.New(errors.CodeUnauthorized, "malformed authorization header"))
				return
			}
			claims, err := h.tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				handleError(c, err)
				return
			}
			switch claims.Role {
			case auth.RoleUser:
				c.Set(identityKey, models.UserIdentity{UserID: claims.Subject, Email: claims.Email})
			case auth.RoleReviewer:
				c.Set(reviewerKey, models.ReviewerIdentity{ReviewerID: claims.Subject})
			}
			c.Next()
			return
		}

		if sid := c.GetHeader(HeaderSessionID); sid != "" {
			if err := service.ValidateSessionID(sid); err != nil {
				handleError(c, err)
				return
			}
			c.Set(identityKey, models.GuestIdentity{SessionID: sid})
		}
		c.Next()
	}
}

// RequireShopper admits guests and users.
func RequireShopper() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identityFrom(c); !ok {
			abortUnauthorized(c, "a guest session or login is required")
			return
		}
		c.Next()
	}
}

// RequireUser admits authenticated customers only.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := userFrom(c); !ok {
			abortUnauthorized(c, "login required")
			return
		}
		c.Next()
	}
}

func RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := reviewerFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "reviewer access required",
				"code":    errors.CodeForbidden,
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"code":    errors.CodeUnauthorized,
	})
}

func identityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

func userFrom(c *gin.Context) (models.UserIdentity, bool) {
	id, ok := identityFrom(c)
	if !ok {
		return models.UserIdentity{}, false
	}
	u, ok := id.(models.UserIdentity)
	return u, ok
}

func reviewerFrom(c *gin.Context) (models.ReviewerIdentity, bool) {
	v, ok := c.Get(reviewerKey)
	if !ok {
		return models.ReviewerIdentity{}, false
	}
	r, ok := v.(models.ReviewerIdentity)
	return r, ok
}
