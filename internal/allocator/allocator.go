// Package allocator picks concrete seats for a fuzzy reservation
// request, walking the cars of a train in order until one car can hold
// the whole party.
package allocator

import (
	"errors"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// ErrNoVacancy is returned when no single car can seat the whole party.
var ErrNoVacancy = errors.New("allocator: no car with enough free seats")

// SeatKey identifies a physical seat within a train run.
type SeatKey struct {
	CarNumber  int
	SeatRow    int
	SeatColumn string
}

// OccupiedSet is the set of seats already held on a train run.
type OccupiedSet map[SeatKey]struct{}

// NewOccupiedSet builds the occupancy set from existing seat
// reservations.  Sentinel rows from non-reserved bookings carry car 0
// and are skipped.
func NewOccupiedSet(held []model.SeatReservation) OccupiedSet {
	occ := make(OccupiedSet, len(held))
	for _, s := range held {
		if s.CarNumber == 0 {
			continue
		}
		occ[SeatKey{CarNumber: s.CarNumber, SeatRow: s.SeatRow, SeatColumn: s.SeatColumn}] = struct{}{}
	}
	return occ
}

// Taken reports whether the seat is already held.
func (o OccupiedSet) Taken(s model.Seat) bool {
	_, ok := o[SeatKey{CarNumber: s.CarNumber, SeatRow: s.SeatRow, SeatColumn: s.SeatColumn}]
	return ok
}

// Request is a fuzzy allocation request: how many seats of which class,
// with an optional column preference for exactly one of them.
type Request struct {
	SeatClass       string
	IsSmokingSeat   bool
	Count           int
	PreferredColumn string
}

// Choose picks Count free seats from one car's seat list, which must be
// ordered by row then column.  When a preferred column is set, the first
// free seat in that column comes first and the rest fill in row order;
// an exhausted column degrades to plain row-order filling.  Returns nil
// when the car cannot seat the whole party.
func Choose(carSeats []model.Seat, occ OccupiedSet, req Request) []model.Seat {
	free := make([]model.Seat, 0, len(carSeats))
	for _, s := range carSeats {
		if s.SeatClass != req.SeatClass || s.IsSmokingSeat != req.IsSmokingSeat {
			continue
		}
		if occ.Taken(s) {
			continue
		}
		free = append(free, s)
	}
	if len(free) < req.Count {
		return nil
	}

	chosen := make([]model.Seat, 0, req.Count)
	if req.PreferredColumn != "" {
		for i, s := range free {
			if s.SeatColumn == req.PreferredColumn {
				chosen = append(chosen, s)
				free = append(free[:i], free[i+1:]...)
				break
			}
		}
	}
	for _, s := range free {
		if len(chosen) == req.Count {
			break
		}
		chosen = append(chosen, s)
	}
	if len(chosen) < req.Count {
		return nil
	}
	return chosen
}

// CarSeats returns the seats of one car, preserving input order.
func CarSeats(seats []model.Seat, carNumber int) []model.Seat {
	out := make([]model.Seat, 0, len(seats))
	for _, s := range seats {
		if s.CarNumber == carNumber {
			out = append(out, s)
		}
	}
	return out
}

// ResolveFuzzy walks cars 1 through MaxCarNumber and returns the first
// car's worth of seats satisfying the request.  Seats must be ordered
// by car, row, column.
func ResolveFuzzy(seats []model.Seat, occ OccupiedSet, req Request) ([]model.Seat, error) {
	for car := 1; car <= model.MaxCarNumber; car++ {
		if chosen := Choose(CarSeats(seats, car), occ, req); chosen != nil {
			return chosen, nil
		}
	}
	return nil, ErrNoVacancy
}
