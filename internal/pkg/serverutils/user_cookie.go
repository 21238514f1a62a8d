package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	UserCookieName = "user_id"
	userCookieAge  = 365 * 24 * time.Hour
)

// UserCookieMiddleware identifies the anonymous user. A valid user_id cookie
// is reused; anything else gets a fresh UUID with the cookie renewed for a
// year. The resolved id is stored in Locals for handlers.
func UserCookieMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userId, err := uuid.Parse(ctx.Cookies(UserCookieName))
		if err != nil {
			userId = uuid.New()
		}

		ctx.Cookie(&fiber.Cookie{
			Name:     UserCookieName,
			Value:    userId.String(),
			Expires:  time.Now().Add(userCookieAge),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		ctx.Locals(UserCookieName, userId.String())
		return ctx.Next()
	}
}

// UserId extracts the authenticated user id set by UserCookieMiddleware.
func UserId(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals(UserCookieName).(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}
