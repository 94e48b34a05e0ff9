package repository

import (
	"context"
	"database/sql"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// SeatRepo reads the seat_master table.  The layout is static per train
// class, so no method takes a date.
type SeatRepo struct{ DB *sql.DB }

func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{DB: db} }

const seatCols = `train_class, car_number, seat_row, seat_column, seat_class, is_smoking_seat`

// ListByClass returns every seat of a train class matching the seat
// class and smoking flag, ordered by car, row, column.  This is the
// order fuzzy allocation walks.
func (r *SeatRepo) ListByClass(ctx context.Context, trainClass, seatClass string, isSmoking bool) ([]model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seat_master
	           WHERE train_class = ? AND seat_class = ? AND is_smoking_seat = ?
	           ORDER BY car_number, seat_row, seat_column`
	return r.list(ctx, q, trainClass, seatClass, isSmoking)
}

// ListForCar returns every seat of one car ordered by row then column.
func (r *SeatRepo) ListForCar(ctx context.Context, trainClass string, carNumber int) ([]model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seat_master
	           WHERE train_class = ? AND car_number = ?
	           ORDER BY seat_row, seat_column`
	return r.list(ctx, q, trainClass, carNumber)
}

// Get fetches one seat by exact coordinates. Returns sql.ErrNoRows when
// the train class has no such seat.
func (r *SeatRepo) Get(ctx context.Context, trainClass string, carNumber, seatRow int, seatColumn string) (model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seat_master
	           WHERE train_class = ? AND car_number = ? AND seat_row = ? AND seat_column = ?`
	var s model.Seat
	err := r.DB.QueryRowContext(ctx, q, trainClass, carNumber, seatRow, seatColumn).Scan(
		&s.TrainClass, &s.CarNumber, &s.SeatRow, &s.SeatColumn, &s.SeatClass, &s.IsSmokingSeat,
	)
	return s, err
}

// CarInfo summarizes one car for the simple car listing.
type CarInfo struct {
	CarNumber int    `json:"car_number"`
	SeatClass string `json:"seat_class"`
}

// ListCars returns the cars of a train class with their seat class,
// ordered by car number.
func (r *SeatRepo) ListCars(ctx context.Context, trainClass string) ([]CarInfo, error) {
	const q = `SELECT DISTINCT car_number, seat_class FROM seat_master
	           WHERE train_class = ? ORDER BY car_number`
	rows, err := r.DB.QueryContext(ctx, q, trainClass)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cars := make([]CarInfo, 0)
	for rows.Next() {
		var c CarInfo
		if err := rows.Scan(&c.CarNumber, &c.SeatClass); err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func (r *SeatRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Seat, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.TrainClass, &s.CarNumber, &s.SeatRow, &s.SeatColumn, &s.SeatClass, &s.IsSmokingSeat); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
