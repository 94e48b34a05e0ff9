package model

import "time"

// DistanceFare is one band of the distance-based base fare table,
// ordered ascending by Distance.
type DistanceFare struct {
	Distance float64 `json:"distance"`
	Fare     int     `json:"fare"`
}

// FareRule is one seasonal multiplier row for a (train class, seat class)
// pair.  The row with the latest StartDate not after the travel date wins.
type FareRule struct {
	TrainClass     string    `json:"train_class"`
	SeatClass      string    `json:"seat_class"`
	StartDate      time.Time `json:"start_date"`
	FareMultiplier float64   `json:"fare_multiplier"`
}
