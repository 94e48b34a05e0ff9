// Package handler implements the HTTP endpoints of the reservation API.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

var errNoUser = errors.New("no authenticated user in context")

// getUserID extracts the authenticated user's id injected by the JWT
// middleware.  JWT numeric claims decode as float64; string subjects are
// parsed for robustness.
func getUserID(c echo.Context) (int64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, errNoUser
}

// jst anchors the timetable calendar.  Service days and the booking
// window are defined in this zone regardless of server locale.
var jst = time.FixedZone("JST", 9*60*60)

// timetableEpoch is the first service day in the timetable data.
var timetableEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, jst)

// withinBookingWindow reports whether the service day is inside the
// bookable range: strictly before the epoch plus availableDays.
func withinBookingWindow(date time.Time, availableDays int) bool {
	limit := timetableEpoch.AddDate(0, 0, availableDays)
	return date.Before(limit)
}

// parseServiceDay accepts a service day in canonical form.
func parseServiceDay(s string) (time.Time, error) {
	return time.Parse(model.DateFormat, s)
}
