package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/davidkariuki5/car_rental/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return respondServiceError(c, err)
	})
	return app
}

func TestRespondServiceErrorConflict(t *testing.T) {
	app := errorApp(services.ErrConflict)

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "no longer available",
		"a lost booking race must tell the renter to pick new dates")
}

func TestRespondServiceErrorConflictWrapped(t *testing.T) {
	// The booking transaction surfaces the conflict wrapped; the mapping
	// must still recognize it.
	app := errorApp(fmt.Errorf("create booking: %w", services.ErrConflict))

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRespondServiceErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrNotFound, fiber.StatusNotFound},
		{"invalid transition", services.ErrInvalidTransition, fiber.StatusUnprocessableEntity},
		{"validation", services.NewValidationError("end_date", "must be after start_date"), fiber.StatusBadRequest},
		{"unknown", fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := errorApp(tc.err)
			resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRespondServiceErrorValidationNamesField(t *testing.T) {
	app := errorApp(services.NewValidationError("start_date", "must be a YYYY-MM-DD date"))

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Field string `json:"field"`
	}
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "start_date", payload.Field,
		"the client highlights the invalid field by name")
}

func TestPageParams(t *testing.T) {
	var limit, offset int
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		limit, offset = pageParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/items?page=3&page_size=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	_, err = app.Test(httptest.NewRequest("GET", "/items", nil))
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	_, err = app.Test(httptest.NewRequest("GET", "/items?page=-2&page_size=0", nil))
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}
