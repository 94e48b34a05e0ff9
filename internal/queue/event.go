// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCompletedEvent is published when a reservation's payment is
// captured.  It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type ReservationCompletedEvent struct {
	ReservationID int64    `json:"reservation_id"`
	UserID        int64    `json:"user_id"`
	Date          string   `json:"date"`
	TrainClass    string   `json:"train_class"`
	TrainName     string   `json:"train_name"`
	Departure     string   `json:"departure"`
	Arrival       string   `json:"arrival"`
	SeatLabels    []string `json:"seats"`
	Adult         int      `json:"adult"`
	Child         int      `json:"child"`
	Amount        int      `json:"amount"`
	PaymentID     string   `json:"payment_id"`
	CompletedAt   string   `json:"completed_at"`
}
