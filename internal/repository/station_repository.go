package repository

import (
	"context"
	"database/sql"

	"github.com/hokurail/train-seat-reservation/internal/model"
)

// StationRepo reads the station_master table. The table is static
// reference data, so every method is a plain read.
type StationRepo struct{ DB *sql.DB }

func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{DB: db} }

const stationCols = `id, name, distance, is_stop_express, is_stop_semi_express, is_stop_local`

func scanStation(row *sql.Row) (model.Station, error) {
	var s model.Station
	err := row.Scan(&s.ID, &s.Name, &s.Distance, &s.IsStopExpress, &s.IsStopSemiExpress, &s.IsStopLocal)
	return s, err
}

// GetByName fetches one station by its display name. Returns
// sql.ErrNoRows when the name is unknown.
func (r *StationRepo) GetByName(ctx context.Context, name string) (model.Station, error) {
	const q = `SELECT ` + stationCols + ` FROM station_master WHERE name = ?`
	return scanStation(r.DB.QueryRowContext(ctx, q, name))
}

// GetByID fetches one station by id.
func (r *StationRepo) GetByID(ctx context.Context, id int) (model.Station, error) {
	const q = `SELECT ` + stationCols + ` FROM station_master WHERE id = ?`
	return scanStation(r.DB.QueryRowContext(ctx, q, id))
}

// ListByID returns every station ordered by id, the order the public
// station listing presents them in.
func (r *StationRepo) ListByID(ctx context.Context) ([]model.Station, error) {
	const q = `SELECT ` + stationCols + ` FROM station_master ORDER BY id`
	return r.list(ctx, q)
}

// ListByDistance returns every station ordered ascending by distance
// from the line origin, the order topology calculations expect.
func (r *StationRepo) ListByDistance(ctx context.Context) ([]model.Station, error) {
	const q = `SELECT ` + stationCols + ` FROM station_master ORDER BY distance`
	return r.list(ctx, q)
}

func (r *StationRepo) list(ctx context.Context, q string) ([]model.Station, error) {
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stations := make([]model.Station, 0)
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Distance, &s.IsStopExpress, &s.IsStopSemiExpress, &s.IsStopLocal); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}
