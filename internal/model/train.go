package model

import "time"

// Train identifies one service run on one calendar day.  A train is
// reference data and immutable once the timetable is published.  The
// triple (Date, TrainClass, TrainName) is the natural key.
//
// Fields:
//  Date         – service day.
//  DepartureAt  – time-of-day the train leaves its start station (HH:MM:SS).
//  TrainClass   – express, semi_express or local.
//  TrainName    – number/name unique within a class and day.
//  StartStation – name of the first station on the run.
//  LastStation  – name of the terminal station.
//  IsInbound    – true when the run travels toward decreasing distance.
type Train struct {
	Date         time.Time `json:"date"`
	DepartureAt  string    `json:"departure_at"`
	TrainClass   string    `json:"train_class"`
	TrainName    string    `json:"train_name"`
	StartStation string    `json:"start_station"`
	LastStation  string    `json:"last_station"`
	IsInbound    bool      `json:"is_inbound"`
}

// TimetableEntry records the arrival and departure time-of-day of a train
// at one of its stops.
type TimetableEntry struct {
	Date       time.Time `json:"date"`
	TrainClass string    `json:"train_class"`
	TrainName  string    `json:"train_name"`
	Station    string    `json:"station"`
	Arrival    string    `json:"arrival"`
	Departure  string    `json:"departure"`
}

// DateFormat is the canonical textual form for service days in queries
// and API payloads.
const DateFormat = "2006-01-02"
