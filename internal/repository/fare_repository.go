package repository

import (
	"context"
	"database/sql"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// FareRepo reads the tariff tables: distance_fare_master for the
// distance bands and fare_master for the seasonal multipliers.
type FareRepo struct{ DB *sql.DB }

func NewFareRepo(db *sql.DB) *FareRepo { return &FareRepo{DB: db} }

// DistanceFares returns the fare bands ordered ascending by distance,
// the order the band scan requires.
func (r *FareRepo) DistanceFares(ctx context.Context) ([]model.DistanceFare, error) {
	const q = `SELECT distance, fare FROM distance_fare_master ORDER BY distance`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bands := make([]model.DistanceFare, 0)
	for rows.Next() {
		var b model.DistanceFare
		if err := rows.Scan(&b.Distance, &b.Fare); err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

// Rules returns the multiplier rows for a (train class, seat class)
// pair ordered ascending by start date, so the last applicable row wins.
func (r *FareRepo) Rules(ctx context.Context, trainClass, seatClass string) ([]model.FareRule, error) {
	const q = `SELECT train_class, seat_class, start_date, fare_multiplier FROM fare_master
	           WHERE train_class = ? AND seat_class = ?
	           ORDER BY start_date`
	rows, err := r.DB.QueryContext(ctx, q, trainClass, seatClass)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rules := make([]model.FareRule, 0)
	for rows.Next() {
		var f model.FareRule
		if err := rows.Scan(&f.TrainClass, &f.SeatClass, &f.StartDate, &f.FareMultiplier); err != nil {
			return nil, err
		}
		rules = append(rules, f)
	}
	return rules, rows.Err()
}
