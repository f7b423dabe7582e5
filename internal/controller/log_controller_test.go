package controller

import (
	"net/http"
	"path/filepath"
	"testing"

	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogs(t *testing.T) {
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "app.log"))
	log.Info("SessionService", "User signed in", nil)
	log.Error("SessionService", "Error signing in", nil)
	require.NoError(t, log.Sync())

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewLogController(log).RegisterRoutes(app.Group("/api"))

	code, body := do(t, app, http.MethodGet, "/api/logs?level=ERROR", "")
	require.Equal(t, http.StatusOK, code)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "Error signing in", entries[0].(map[string]interface{})["message"])

	code, _ = do(t, app, http.MethodGet, "/api/logs?level=LOUD", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
