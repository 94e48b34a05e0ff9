package fare

import (
	"testing"
	"time"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

func bands() []model.DistanceFare {
	return []model.DistanceFare{
		{Distance: 0, Fare: 1000},
		{Distance: 50, Fare: 2500},
		{Distance: 100, Fare: 4500},
		{Distance: 200, Fare: 8000},
	}
}

func TestForDistance(t *testing.T) {
	cases := []struct {
		distance float64
		want     int
	}{
		{25, 1000},
		{49.9, 1000},
		{75, 2500},
		{150, 4500},
		{250, 8000},
		// Distances landing exactly on a threshold never match a gap
		// and fall through to the final band.
		{0, 8000},
		{50, 8000},
		{100, 8000},
		{200, 8000},
	}
	for _, tc := range cases {
		if got := ForDistance(bands(), tc.distance); got != tc.want {
			t.Errorf("ForDistance(%.1f) = %d, want %d", tc.distance, got, tc.want)
		}
	}
}

func TestMultiplier(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(model.DateFormat, s)
		if err != nil {
			t.Fatalf("bad date %q: %v", s, err)
		}
		return d
	}
	rules := []model.FareRule{
		{TrainClass: model.TrainClassExpress, SeatClass: model.SeatClassReserved, StartDate: day("2020-01-01"), FareMultiplier: 1.0},
		{TrainClass: model.TrainClassExpress, SeatClass: model.SeatClassReserved, StartDate: day("2020-04-01"), FareMultiplier: 1.2},
		{TrainClass: model.TrainClassExpress, SeatClass: model.SeatClassReserved, StartDate: day("2020-08-01"), FareMultiplier: 1.5},
	}

	cases := []struct {
		date string
		want float64
	}{
		{"2020-02-15", 1.0},
		{"2020-04-01", 1.2}, // a rule takes effect on its start date
		{"2020-07-31", 1.2},
		{"2020-12-24", 1.5},
	}
	for _, tc := range cases {
		got, err := Multiplier(rules, day(tc.date))
		if err != nil {
			t.Fatalf("Multiplier(%s): %v", tc.date, err)
		}
		if got != tc.want {
			t.Errorf("Multiplier(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}

	// A date before every rule still resolves to the first rule.
	got, err := Multiplier(rules, day("2019-06-01"))
	if err != nil || got != 1.0 {
		t.Errorf("Multiplier before first rule = %v, %v; want 1.0, nil", got, err)
	}

	if _, err := Multiplier(nil, day("2020-02-15")); err != ErrNoRule {
		t.Errorf("empty rules: err = %v, want ErrNoRule", err)
	}
}

func TestTicketAndTotal(t *testing.T) {
	ticket := Ticket(4500, 1.2)
	if ticket != 5400 {
		t.Fatalf("Ticket = %d, want 5400", ticket)
	}
	// Fractional yen truncate.
	if got := Ticket(2500, 1.1); got != 2750 {
		t.Fatalf("Ticket = %d, want 2750", got)
	}

	// 2 adults and 3 children, child fare halved then floored.
	odd := Ticket(2501, 1.0)
	if got := Total(odd, 2, 3); got != 2*2501+3*2501/2 {
		t.Fatalf("Total = %d, want %d", got, 2*2501+3*2501/2)
	}
	if got := Total(5400, 1, 0); got != 5400 {
		t.Fatalf("Total single adult = %d, want 5400", got)
	}
	if got := Total(5400, 0, 0); got != 0 {
		t.Fatalf("Total empty party = %d, want 0", got)
	}
}
