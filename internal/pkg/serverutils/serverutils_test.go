package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCookieMiddlewareIssuesAndReusesId(t *testing.T) {
	app := fiber.New()
	app.Use(UserCookieMiddleware())
	var seen uuid.UUID
	app.Get("/", func(ctx *fiber.Ctx) error {
		seen = UserId(ctx)
		return ctx.SendStatus(http.StatusOK)
	})

	// First request: no cookie, one gets issued.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, uuid.Nil, seen)
	first := seen

	var issued string
	for _, c := range resp.Cookies() {
		if c.Name == UserCookieName {
			issued = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	require.Equal(t, first.String(), issued)

	// Second request with the cookie: same identity.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: issued})
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, first, seen)

	// Garbage cookie: fresh identity instead of an error.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: "not-a-uuid"})
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, first, seen)
}

func TestErrorHandlerMiddlewareMapsAppErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(*fiber.Ctx) error {
		return NotFound("Chat session not found")
	})
	app.Get("/boom", func(*fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestValidateRequestCollectsFieldMessages(t *testing.T) {
	type payload struct {
		Message string `validate:"required"`
	}

	err := ValidateRequest(payload{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "this field is required", verr.Fields["message"])

	assert.NoError(t, ValidateRequest(payload{Message: "hi"}))
}
