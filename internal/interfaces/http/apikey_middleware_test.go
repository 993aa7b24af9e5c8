package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apphttp "github.com/jhoicas/Gym-api/internal/interfaces/http"
)

func apiKeyApp(hash string) *fiber.App {
	app := fiber.New()
	app.Post("/hook", apphttp.RequireAPIKey(hash), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func postHook(t *testing.T, app *fiber.App, key string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	if key != "" {
		req.Header.Set(apphttp.HeaderAPIKey, key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-gateway"), bcrypt.MinCost)
	require.NoError(t, err)
	app := apiKeyApp(string(hash))

	assert.Equal(t, http.StatusNoContent, postHook(t, app, "clave-gateway"))
	assert.Equal(t, http.StatusUnauthorized, postHook(t, app, "clave-equivocada"))
	assert.Equal(t, http.StatusUnauthorized, postHook(t, app, ""))
}

func TestRequireAPIKey_SinHashConfiguradoCierraElWebhook(t *testing.T) {
	app := apiKeyApp("")
	assert.Equal(t, http.StatusServiceUnavailable, postHook(t, app, "cualquiera"))
}
