package middleware

import (
	"strconv"
	"strings"

	"tastify/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthRequired enforces a valid bearer token and stores the resolved user ID
// in c.Locals("userID"). Requests without a valid identity fail with 401
// before any handler runs.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := userIDFromRequest(c, secret)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// OptionalAuth resolves the user ID when a valid bearer token is present and
// leaves the request anonymous otherwise. Used on public reads that still
// personalize liked_by_me for signed-in viewers.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := userIDFromRequest(c, secret); err == nil {
			c.Locals("userID", userID)
		}
		return c.Next()
	}
}

func userIDFromRequest(c *fiber.Ctx, secret string) (uint, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, models.NewUnauthenticatedError("Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, models.NewUnauthenticatedError("Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, models.NewUnauthenticatedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, models.NewUnauthenticatedError("Invalid token claims")
	}

	// Refresh tokens carry use=refresh and a much longer TTL; only access
	// tokens may authenticate requests.
	if use, ok := claims["use"].(string); !ok || use != "access" {
		return 0, models.NewUnauthenticatedError("Not an access token")
	}

	// User ID travels in the "sub" claim (RFC 7519 subject).
	subClaim, ok := claims["sub"]
	if !ok {
		return 0, models.NewUnauthenticatedError("Invalid token structure - missing subject")
	}
	subStr, ok := subClaim.(string)
	if !ok {
		return 0, models.NewUnauthenticatedError("Invalid token subject type")
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, models.NewUnauthenticatedError("Invalid user ID in token")
	}

	return uint(userIDVal), nil
}
