package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

func TestWriteError_InternalHidesDetail(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New()
	app.Use(RequestLogger(logger.New(logger.Config{Env: "production", Level: "info", Output: &logs})))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return writeError(c, fmt.Errorf("listar etiquetas: %w", errors.New("dial tcp 10.0.0.3:5432: connection refused")))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "INTERNAL", body.Code)
	assert.Equal(t, internalErrorMessage, body.Message)
	assert.NotContains(t, body.Message, "10.0.0.3")

	assert.Contains(t, logs.String(), "10.0.0.3:5432")
	assert.Contains(t, logs.String(), `"error_detail"`)
}

func TestWriteError_DomainKeepsMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/stock", func(c *fiber.Ctx) error {
		return writeError(c, &domain.InsufficientStockError{ProductID: "p1", Available: 1, Requested: 3})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/stock", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Contains(t, body.Message, "p1")
}
