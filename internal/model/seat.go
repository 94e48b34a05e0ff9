package model

// Seat describes one physical seat in a car.  Seat layout is static per
// train class: every express train shares the same cars and seats, only
// the reservations differ per day and run.
//
// Fields:
//  TrainClass    – class whose layout this seat belongs to.
//  CarNumber     – 1-based car number.
//  SeatRow       – row within the car.
//  SeatColumn    – column letter (A..E).
//  SeatClass     – premium, reserved or non_reserved.
//  IsSmokingSeat – smoking section flag.
type Seat struct {
	TrainClass    string `json:"train_class"`
	CarNumber     int    `json:"car_number"`
	SeatRow       int    `json:"seat_row"`
	SeatColumn    string `json:"seat_column"`
	SeatClass     string `json:"seat_class"`
	IsSmokingSeat bool   `json:"is_smoking_seat"`
}

// Seat classes.  Non-reserved seating has no per-seat occupancy tracking.
const (
	SeatClassPremium     = "premium"
	SeatClassReserved    = "reserved"
	SeatClassNonReserved = "non_reserved"
)

// MaxCarNumber caps the fuzzy-allocation car walk.  No train class in the
// seat master has more cars than this.
const MaxCarNumber = 16
