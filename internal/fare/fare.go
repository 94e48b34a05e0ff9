// Package fare prices a journey from the distance fare table and the
// seasonal multiplier rules.
package fare

import (
	"errors"
	"time"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// ErrNoRule is returned when no multiplier row matches the requested
// train class, seat class and travel date.
var ErrNoRule = errors.New("fare: no matching fare rule")

// ForDistance resolves the base fare for a journey of the given length.
// Bands must be ordered ascending by Distance and start at 0.  The scan
// keeps the fare of the last band passed and stops once the distance
// falls strictly between two thresholds.  A distance landing exactly on
// a threshold never matches a gap, so it prices at the final band.
func ForDistance(bands []model.DistanceFare, distance float64) int {
	lastDistance := 0.0
	lastFare := 0
	for _, band := range bands {
		if lastDistance < distance && distance < band.Distance {
			break
		}
		lastDistance = band.Distance
		lastFare = band.Fare
	}
	return lastFare
}

// Multiplier picks the seasonal multiplier for the travel date.  Rules
// must be ordered ascending by StartDate; the last rule already in
// effect on the date wins.
func Multiplier(rules []model.FareRule, date time.Time) (float64, error) {
	if len(rules) == 0 {
		return 0, ErrNoRule
	}
	selected := rules[0]
	for _, rule := range rules {
		if !rule.StartDate.After(date) {
			selected = rule
		}
	}
	return selected.FareMultiplier, nil
}

// Ticket is the per-adult fare: the distance fare scaled by the seasonal
// multiplier, truncated to yen.
func Ticket(distanceFare int, multiplier float64) int {
	return int(float64(distanceFare) * multiplier)
}

// Total prices a whole party.  Children ride at half the adult ticket,
// floored.
func Total(ticket, adult, child int) int {
	return adult*ticket + child*ticket/2
}
