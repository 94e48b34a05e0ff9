package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestWithinBookingWindow(t *testing.T) {
	cases := []struct {
		date string
		days int
		want bool
	}{
		{"2020-01-01", 30, true},
		{"2020-01-30", 30, true},
		{"2020-01-31", 30, false}, // the limit day itself is not bookable
		{"2020-06-01", 30, false},
		{"2019-12-31", 30, true}, // days before the epoch are still inside the window
	}
	for _, tc := range cases {
		date, err := parseServiceDay(tc.date)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.date, err)
		}
		// Service days parse as UTC midnight; the window is JST-anchored.
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, jst)
		if got := withinBookingWindow(date, tc.days); got != tc.want {
			t.Errorf("withinBookingWindow(%s, %d) = %v, want %v", tc.date, tc.days, got, tc.want)
		}
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	newCtx := func() echo.Context {
		req := httptest.NewRequest("GET", "/", nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	c := newCtx()
	c.Set("user_id", float64(7)) // JWT numeric claims decode as float64
	if id, err := getUserID(c); err != nil || id != 7 {
		t.Errorf("float64 claim: id=%d err=%v", id, err)
	}

	c = newCtx()
	c.Set("user_id", "42")
	if id, err := getUserID(c); err != nil || id != 42 {
		t.Errorf("string claim: id=%d err=%v", id, err)
	}

	c = newCtx()
	if _, err := getUserID(c); err == nil {
		t.Error("missing claim must error")
	}

	c = newCtx()
	c.Set("user_id", "not-a-number")
	if _, err := getUserID(c); err == nil {
		t.Error("garbage claim must error")
	}
}
