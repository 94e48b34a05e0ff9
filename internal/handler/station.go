package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/repository"
)

// StationHandler serves the station reference data.
type StationHandler struct {
	Stations *repository.StationRepo
}

func NewStationHandler(s *repository.StationRepo) *StationHandler {
	return &StationHandler{Stations: s}
}

// List returns every station in id order.  The payload is identical for
// all callers, so the route sits behind the response cache.
func (h *StationHandler) List(c echo.Context) error {
	stations, err := h.Stations.ListByID(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stations)
}
