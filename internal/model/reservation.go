package model

import "time"

// Reservation statuses.  A reservation is created as requesting, becomes
// done when the payment is captured, and is deleted outright on
// cancellation.  Rejected is a terminal error state written by external
// reconciliation, never by this service.
const (
	StatusRequesting = "requesting"
	StatusDone       = "done"
	StatusRejected   = "rejected"
)

// Reservation is one booking of a user on one train run.  The occupied
// segment is the (Departure, Arrival) station pair; the physical seats
// live in SeatReservation rows owned by this record.
//
// Fields:
//  ID         – generated reservation id.
//  UserID     – owner of the booking.
//  Date       – service day of the train.
//  TrainClass – class of the booked train.
//  TrainName  – name of the booked train.
//  Departure  – boarding station name.
//  Arrival    – alighting station name.
//  Status     – requesting, done or rejected.
//  PaymentID  – gateway payment id once captured ("a" placeholder before).
//  Adult      – number of adult tickets.
//  Child      – number of child tickets (half fare, floored).
//  Amount     – total fare for the whole party.
type Reservation struct {
	ID         int64     `json:"reservation_id"`
	UserID     int64     `json:"user_id"`
	Date       time.Time `json:"date"`
	TrainClass string    `json:"train_class"`
	TrainName  string    `json:"train_name"`
	Departure  string    `json:"departure"`
	Arrival    string    `json:"arrival"`
	Status     string    `json:"status"`
	PaymentID  string    `json:"payment_id,omitempty"`
	Adult      int       `json:"adult"`
	Child      int       `json:"child"`
	Amount     int       `json:"amount"`
}

// SeatReservation pins one physical seat for a reservation.  A
// non-reserved booking stores a single sentinel row with CarNumber 0 and
// no seat coordinates, since free seating tracks no occupancy.
type SeatReservation struct {
	ReservationID int64  `json:"reservation_id,omitempty"`
	CarNumber     int    `json:"car_number"`
	SeatRow       int    `json:"seat_row"`
	SeatColumn    string `json:"seat_column"`
}

// NonReservedSeat is the sentinel seat row stored for free-seating
// bookings.
func NonReservedSeat(reservationID int64) SeatReservation {
	return SeatReservation{ReservationID: reservationID, CarNumber: 0, SeatRow: 0, SeatColumn: ""}
}
