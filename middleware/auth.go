// middleware/auth.go
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"habit-ledger/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens issued by the auth collaborator.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// RevocationChecker answers whether a token id has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// tokenID is the jti, or a digest of the raw token when the issuer sets none.
func tokenID(claims *Claims, raw string) string {
	if claims.ID != "" {
		return claims.ID
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserContextMiddleware authenticates the caller and attaches user_id,
// username, token_id and token_expires to the request locals.
func UserContextMiddleware(secret string, revocations RevocationChecker) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			utils.LogWarn("🚫 [USER_CTX] missing bearer token on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}

		claims, err := ParseToken(key, raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token expired"})
			}
			utils.LogWarn("❌ [USER_CTX] invalid token on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		jti := tokenID(claims, raw)
		revoked, err := revocations.IsRevoked(c.UserContext(), jti)
		if err != nil {
			utils.LogError("[USER_CTX] revocation lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to verify token"})
		}
		if revoked {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token revoked"})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("token_id", jti)
		c.Locals("token_expires", claims.ExpiresAt.Time)
		return c.Next()
	}
}

// UserID returns the authenticated id set by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// TokenExpiry returns the current token's expiry.
func TokenExpiry(c *fiber.Ctx) time.Time {
	exp, _ := c.Locals("token_expires").(time.Time)
	return exp
}
