package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// seats.  A reservation groups the seats one party holds on one train
// run; the physical seats live in the seat_reservations table.  Every
// write happens inside a caller-owned transaction so that conflict
// evaluation and the insert stay atomic.
type ReservationRepo struct{ DB *sql.DB }

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

// SegmentedReservation is a reservation with its journey endpoints
// resolved to station ordinals and its held seats loaded.  The ordinals
// feed the overlap predicate directly.
type SegmentedReservation struct {
	model.Reservation
	FromID int                     `json:"-"`
	ToID   int                     `json:"-"`
	Seats  []model.SeatReservation `json:"seats"`
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Tx is the transaction handle the write paths run under.  Begin hands
// out a *sql.Tx, which implements it; the payment lifecycle can also be
// driven against in-memory storage through the same surface.
type Tx interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Begin opens the transaction a booking or lifecycle flow runs under.
func (r *ReservationRepo) Begin(ctx context.Context) (Tx, error) {
	return r.DB.BeginTx(ctx, nil)
}

const segmentedQ = `SELECT r.reservation_id, r.user_id, r.date, r.train_class, r.train_name,
                           r.departure, r.arrival, r.status, r.payment_id, r.adult, r.child, r.amount,
                           dep.id, arr.id
                    FROM reservations r
                    JOIN station_master dep ON dep.name = r.departure
                    JOIN station_master arr ON arr.name = r.arrival`

// ListForTrainTx returns every reservation on one train run with the
// rows locked FOR UPDATE.  Callers take this lock before evaluating
// seat conflicts so that two concurrent bookings of the same run
// serialize.
func (r *ReservationRepo) ListForTrainTx(ctx context.Context, tx Tx, date time.Time, trainClass, trainName string) ([]SegmentedReservation, error) {
	const q = segmentedQ + `
	                    WHERE r.date = ? AND r.train_class = ? AND r.train_name = ?
	                    FOR UPDATE`
	return r.listSegmented(ctx, tx, q, date.Format(model.DateFormat), trainClass, trainName)
}

// ListForTrain is the lock-free variant used for availability display.
func (r *ReservationRepo) ListForTrain(ctx context.Context, date time.Time, trainClass, trainName string) ([]SegmentedReservation, error) {
	const q = segmentedQ + `
	                    WHERE r.date = ? AND r.train_class = ? AND r.train_name = ?`
	return r.listSegmented(ctx, r.DB, q, date.Format(model.DateFormat), trainClass, trainName)
}

// ListByUser returns the user's reservations newest first, seats
// included.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID int64) ([]SegmentedReservation, error) {
	const q = segmentedQ + `
	                    WHERE r.user_id = ?
	                    ORDER BY r.reservation_id DESC`
	return r.listSegmented(ctx, r.DB, q, userID)
}

// GetByIDForUser returns one reservation with seats, enforcing
// ownership.  Returns sql.ErrNoRows when the id is unknown and
// ErrForbidden when it belongs to a different user.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID int64) (SegmentedReservation, error) {
	const q = segmentedQ + `
	                    WHERE r.reservation_id = ?`
	list, err := r.listSegmented(ctx, r.DB, q, reservationID)
	if err != nil {
		return SegmentedReservation{}, err
	}
	if len(list) == 0 {
		return SegmentedReservation{}, sql.ErrNoRows
	}
	if list[0].UserID != userID {
		return SegmentedReservation{}, ErrForbidden
	}
	return list[0], nil
}

func (r *ReservationRepo) listSegmented(ctx context.Context, db querier, q string, args ...interface{}) ([]SegmentedReservation, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]SegmentedReservation, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var sr SegmentedReservation
		var paymentID sql.NullString
		if err := rows.Scan(
			&sr.ID, &sr.UserID, &sr.Date, &sr.TrainClass, &sr.TrainName,
			&sr.Departure, &sr.Arrival, &sr.Status, &paymentID, &sr.Adult, &sr.Child, &sr.Amount,
			&sr.FromID, &sr.ToID,
		); err != nil {
			return nil, err
		}
		sr.PaymentID = paymentID.String
		sr.Seats = []model.SeatReservation{}
		index[sr.ID] = len(list)
		list = append(list, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	// Populate seats for all reservations in one query.
	ids := make([]interface{}, 0, len(list))
	placeholders := make([]string, 0, len(list))
	for _, sr := range list {
		ids = append(ids, sr.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT reservation_id, car_number, seat_row, seat_column
	          FROM seat_reservations
	          WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY reservation_id, car_number, seat_row, seat_column`
	srows, err := db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var s model.SeatReservation
		if err := srows.Scan(&s.ReservationID, &s.CarNumber, &s.SeatRow, &s.SeatColumn); err != nil {
			return nil, err
		}
		idx, ok := index[s.ReservationID]
		if !ok {
			continue
		}
		list[idx].Seats = append(list[idx].Seats, s)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateTx inserts a reservation in status requesting and populates the
// generated id on the record.  The caller must commit or rollback the
// transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (user_id, date, train_class, train_name, departure, arrival, status, payment_id, adult, child, amount)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.Date.Format(model.DateFormat), res.TrainClass, res.TrainName,
		res.Departure, res.Arrival, res.Status, res.PaymentID, res.Adult, res.Child, res.Amount,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

// CreateSeatsBulkTx inserts the seat rows of one reservation in a
// single statement.  Passing an empty slice has no effect.
func (r *ReservationRepo) CreateSeatsBulkTx(ctx context.Context, tx Tx, seats []model.SeatReservation) error {
	if len(seats) == 0 {
		return nil
	}
	q := `INSERT INTO seat_reservations (reservation_id, car_number, seat_row, seat_column) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?)"
		args = append(args, s.ReservationID, s.CarNumber, s.SeatRow, s.SeatColumn)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// GetForUserTx fetches one reservation FOR UPDATE, enforcing ownership.
// Returns sql.ErrNoRows when the id is unknown and ErrForbidden when it
// belongs to a different user.  Commit and cancel both start here.
func (r *ReservationRepo) GetForUserTx(ctx context.Context, tx Tx, reservationID, userID int64) (model.Reservation, error) {
	const q = `SELECT reservation_id, user_id, date, train_class, train_name,
	                  departure, arrival, status, payment_id, adult, child, amount
	           FROM reservations WHERE reservation_id = ? FOR UPDATE`
	var res model.Reservation
	var paymentID sql.NullString
	err := tx.QueryRowContext(ctx, q, reservationID).Scan(
		&res.ID, &res.UserID, &res.Date, &res.TrainClass, &res.TrainName,
		&res.Departure, &res.Arrival, &res.Status, &paymentID, &res.Adult, &res.Child, &res.Amount,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.PaymentID = paymentID.String
	if res.UserID != userID {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// MarkDoneTx records the captured payment id and flips the reservation
// to done.
func (r *ReservationRepo) MarkDoneTx(ctx context.Context, tx Tx, reservationID int64, paymentID string) error {
	const q = `UPDATE reservations SET status = ?, payment_id = ? WHERE reservation_id = ?`
	_, err := tx.ExecContext(ctx, q, model.StatusDone, paymentID, reservationID)
	return err
}

// DeleteTx removes a reservation and its seat rows.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx Tx, reservationID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_reservations WHERE reservation_id = ?`, reservationID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE reservation_id = ?`, reservationID)
	return err
}
