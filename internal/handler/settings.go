package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/config"
)

// SettingsHandler exposes client-facing runtime settings.
type SettingsHandler struct {
	Cfg config.Config
}

func NewSettingsHandler(cfg config.Config) *SettingsHandler {
	return &SettingsHandler{Cfg: cfg}
}

// Get returns the payment gateway base URL the browser client must use
// to tokenize card numbers before committing a reservation.
func (h *SettingsHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"payment_api": h.Cfg.PaymentAPI,
	})
}
