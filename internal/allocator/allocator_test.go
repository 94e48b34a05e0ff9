package allocator

import (
	"testing"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

func car(n int, rows int, cols ...string) []model.Seat {
	seats := make([]model.Seat, 0, rows*len(cols))
	for r := 1; r <= rows; r++ {
		for _, c := range cols {
			seats = append(seats, model.Seat{
				TrainClass: model.TrainClassExpress,
				CarNumber:  n,
				SeatRow:    r,
				SeatColumn: c,
				SeatClass:  model.SeatClassReserved,
			})
		}
	}
	return seats
}

func held(carNumber, row int, col string) model.SeatReservation {
	return model.SeatReservation{CarNumber: carNumber, SeatRow: row, SeatColumn: col}
}

func TestNewOccupiedSetSkipsSentinels(t *testing.T) {
	occ := NewOccupiedSet([]model.SeatReservation{
		held(1, 2, "A"),
		{CarNumber: 0, SeatRow: 0, SeatColumn: ""},
	})
	if len(occ) != 1 {
		t.Fatalf("occupied set size = %d, want 1", len(occ))
	}
	if !occ.Taken(model.Seat{CarNumber: 1, SeatRow: 2, SeatColumn: "A"}) {
		t.Fatal("held seat not marked taken")
	}
	if occ.Taken(model.Seat{CarNumber: 1, SeatRow: 2, SeatColumn: "B"}) {
		t.Fatal("free seat marked taken")
	}
}

func TestChooseFillsInRowOrder(t *testing.T) {
	seats := car(1, 3, "A", "B")
	occ := NewOccupiedSet([]model.SeatReservation{held(1, 1, "A")})

	got := Choose(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 2})
	if len(got) != 2 {
		t.Fatalf("chose %d seats, want 2", len(got))
	}
	if got[0].SeatRow != 1 || got[0].SeatColumn != "B" {
		t.Errorf("first seat = %d%s, want 1B", got[0].SeatRow, got[0].SeatColumn)
	}
	if got[1].SeatRow != 2 || got[1].SeatColumn != "A" {
		t.Errorf("second seat = %d%s, want 2A", got[1].SeatRow, got[1].SeatColumn)
	}
}

func TestChoosePreferredColumn(t *testing.T) {
	seats := car(1, 3, "A", "B")
	occ := NewOccupiedSet([]model.SeatReservation{held(1, 1, "B")})

	got := Choose(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 2, PreferredColumn: "B"})
	if len(got) != 2 {
		t.Fatalf("chose %d seats, want 2", len(got))
	}
	// The first free B seat comes first, then row order fills the rest.
	if got[0].SeatRow != 2 || got[0].SeatColumn != "B" {
		t.Errorf("preferred seat = %d%s, want 2B", got[0].SeatRow, got[0].SeatColumn)
	}
	if got[1].SeatRow != 1 || got[1].SeatColumn != "A" {
		t.Errorf("fill seat = %d%s, want 1A", got[1].SeatRow, got[1].SeatColumn)
	}
}

func TestChoosePreferredColumnExhaustedFallsBack(t *testing.T) {
	seats := append(car(1, 3, "A", "B"), car(2, 3, "A", "B")...)
	// Every B seat on the train is held; plenty of A seats remain.
	occ := NewOccupiedSet([]model.SeatReservation{
		held(1, 1, "B"), held(1, 2, "B"), held(1, 3, "B"),
		held(2, 1, "B"), held(2, 2, "B"), held(2, 3, "B"),
	})

	got, err := ResolveFuzzy(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 2, PreferredColumn: "B"})
	if err != nil {
		t.Fatalf("ResolveFuzzy: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("chose %d seats, want 2", len(got))
	}
	// Fallback fills the first car in row order.
	if got[0].CarNumber != 1 || got[0].SeatRow != 1 || got[0].SeatColumn != "A" {
		t.Errorf("first seat = car %d %d%s, want car 1 1A", got[0].CarNumber, got[0].SeatRow, got[0].SeatColumn)
	}
	if got[1].CarNumber != 1 || got[1].SeatRow != 2 || got[1].SeatColumn != "A" {
		t.Errorf("second seat = car %d %d%s, want car 1 2A", got[1].CarNumber, got[1].SeatRow, got[1].SeatColumn)
	}
}

func TestChooseRejections(t *testing.T) {
	seats := car(1, 2, "A", "B")

	// Not enough free seats.
	occ := NewOccupiedSet([]model.SeatReservation{held(1, 1, "A"), held(1, 1, "B"), held(1, 2, "A")})
	if got := Choose(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 2}); got != nil {
		t.Fatalf("undersized car produced seats: %v", got)
	}

	// Wrong seat class never matches.
	if got := Choose(seats, NewOccupiedSet(nil), Request{SeatClass: model.SeatClassPremium, Count: 1}); got != nil {
		t.Fatalf("mismatched class produced seats: %v", got)
	}
}

func TestResolveFuzzyAdvancesCars(t *testing.T) {
	seats := append(car(1, 2, "A", "B"), car(2, 2, "A", "B")...)
	// Car 1 has one free seat left, not enough for two.
	occ := NewOccupiedSet([]model.SeatReservation{held(1, 1, "A"), held(1, 1, "B"), held(1, 2, "A")})

	got, err := ResolveFuzzy(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 2})
	if err != nil {
		t.Fatalf("ResolveFuzzy: %v", err)
	}
	for _, s := range got {
		if s.CarNumber != 2 {
			t.Fatalf("seat allocated in car %d, want 2", s.CarNumber)
		}
	}
}

func TestResolveFuzzyExhausted(t *testing.T) {
	seats := car(1, 1, "A")
	occ := NewOccupiedSet([]model.SeatReservation{held(1, 1, "A")})
	if _, err := ResolveFuzzy(seats, occ, Request{SeatClass: model.SeatClassReserved, Count: 1}); err != ErrNoVacancy {
		t.Fatalf("err = %v, want ErrNoVacancy", err)
	}
}
