package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-autograder/internal/utils"
)

const (
	userIDLocal   = "user_id"
	userRoleLocal = "user_role"
)

// Claims is the token payload issued to teachers. Subject carries the numeric user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProtected validates HS256 bearer tokens and stores the user id and role in locals.
// Websocket upgrades may pass the token as the access_token query parameter instead.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" && websocket.IsWebSocketUpgrade(c) {
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				authorization = "Bearer " + token
			}
		}
		if authorization == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "authorization header missing", nil)
		}

		scheme, token, found := strings.Cut(authorization, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "invalid authorization header", nil)
		}

		var claims Claims
		parsed, err := parser.ParseWithClaims(strings.TrimSpace(token), &claims, keyFunc)
		if err != nil || !parsed.Valid {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "invalid token", nil)
		}

		userID, err := strconv.ParseUint(strings.TrimSpace(claims.Subject), 10, 64)
		if err != nil || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "invalid token subject", nil)
		}

		c.Locals(userIDLocal, uint(userID))
		c.Locals(userRoleLocal, strings.ToLower(strings.TrimSpace(claims.Role)))
		return c.Next()
	}
}

// UserID returns the authenticated user id, or zero.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDLocal).(uint)
	return id
}

// UserRole returns the authenticated user's role, or an empty string.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(userRoleLocal).(string)
	return role
}
