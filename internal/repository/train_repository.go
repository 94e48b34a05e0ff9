package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// TrainRepo reads the train_master and train_timetable_master tables.
type TrainRepo struct{ DB *sql.DB }

func NewTrainRepo(db *sql.DB) *TrainRepo { return &TrainRepo{DB: db} }

// Get fetches one train run by its natural key. Returns sql.ErrNoRows
// when no such train operates on the date.
func (r *TrainRepo) Get(ctx context.Context, date time.Time, trainClass, trainName string) (model.Train, error) {
	const q = `SELECT date, departure_at, train_class, train_name, start_station, last_station, is_inbound
	           FROM train_master
	           WHERE date = ? AND train_class = ? AND train_name = ?`
	var t model.Train
	err := r.DB.QueryRowContext(ctx, q, date.Format(model.DateFormat), trainClass, trainName).Scan(
		&t.Date, &t.DepartureAt, &t.TrainClass, &t.TrainName, &t.StartStation, &t.LastStation, &t.IsInbound,
	)
	return t, err
}

// Search returns the trains of the given classes running in the given
// direction on the date, ordered by departure time.  classes must be
// non-empty; the caller derives it from the endpoints' stop flags.
func (r *TrainRepo) Search(ctx context.Context, date time.Time, classes []string, isInbound bool) ([]model.Train, error) {
	q := `SELECT date, departure_at, train_class, train_name, start_station, last_station, is_inbound
	      FROM train_master
	      WHERE date = ? AND is_inbound = ? AND train_class IN (`
	args := []interface{}{date.Format(model.DateFormat), isInbound}
	for i, tc := range classes {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, tc)
	}
	q += `) ORDER BY departure_at`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trains := make([]model.Train, 0)
	for rows.Next() {
		var t model.Train
		if err := rows.Scan(&t.Date, &t.DepartureAt, &t.TrainClass, &t.TrainName, &t.StartStation, &t.LastStation, &t.IsInbound); err != nil {
			return nil, err
		}
		trains = append(trains, t)
	}
	return trains, rows.Err()
}

// TimetableEntry fetches the arrival and departure times of one train
// at one station. Returns sql.ErrNoRows when the train does not call
// there.
func (r *TrainRepo) TimetableEntry(ctx context.Context, date time.Time, trainClass, trainName, station string) (model.TimetableEntry, error) {
	const q = `SELECT date, train_class, train_name, station, departure, arrival
	           FROM train_timetable_master
	           WHERE date = ? AND train_class = ? AND train_name = ? AND station = ?`
	var e model.TimetableEntry
	err := r.DB.QueryRowContext(ctx, q, date.Format(model.DateFormat), trainClass, trainName, station).Scan(
		&e.Date, &e.TrainClass, &e.TrainName, &e.Station, &e.Departure, &e.Arrival,
	)
	return e, err
}
