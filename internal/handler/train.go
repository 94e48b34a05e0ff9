package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/config"
	"github.com/hokurail/train-seat-reservation/internal/fare"
	"github.com/hokurail/train-seat-reservation/internal/model"
	"github.com/hokurail/train-seat-reservation/internal/repository"
	"github.com/hokurail/train-seat-reservation/internal/topology"
)

// TrainHandler serves timetable search and per-car seat maps.
type TrainHandler struct {
	Cfg          config.Config
	Stations     *repository.StationRepo
	Trains       *repository.TrainRepo
	Seats        *repository.SeatRepo
	Fares        *repository.FareRepo
	Reservations *repository.ReservationRepo
}

func NewTrainHandler(cfg config.Config, st *repository.StationRepo, tr *repository.TrainRepo, se *repository.SeatRepo, fa *repository.FareRepo, re *repository.ReservationRepo) *TrainHandler {
	return &TrainHandler{Cfg: cfg, Stations: st, Trains: tr, Seats: se, Fares: fa, Reservations: re}
}

// searchResult is one train in the search listing.  SeatAvailability and
// SeatFare are keyed by premium, premium_smoke, reserved, reserved_smoke
// and non_reserved.
type searchResult struct {
	TrainClass       string            `json:"train_class"`
	TrainName        string            `json:"train_name"`
	Start            string            `json:"start"`
	Last             string            `json:"last"`
	Departure        string            `json:"departure"`
	Arrival          string            `json:"arrival"`
	DepartureTime    string            `json:"departure_time"`
	ArrivalTime      string            `json:"arrival_time"`
	SeatAvailability map[string]string `json:"seat_availability"`
	SeatFare         map[string]int    `json:"seat_fare"`
}

const maxSearchResults = 10

// Search handles GET /api/train/search.  It lists up to ten trains that
// serve the requested journey after the requested time, with per-class
// availability symbols and party fares.
func (h *TrainHandler) Search(c echo.Context) error {
	useAt, err := time.Parse(time.RFC3339, c.QueryParam("use_at"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid use_at"})
	}
	useAt = useAt.In(jst)
	date := time.Date(useAt.Year(), useAt.Month(), useAt.Day(), 0, 0, 0, 0, jst)
	if !withinBookingWindow(date, h.Cfg.AvailableDays) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "date outside the booking window"})
	}

	adult, _ := strconv.Atoi(c.QueryParam("adult"))
	child, _ := strconv.Atoi(c.QueryParam("child"))
	classFilter := c.QueryParam("train_class")

	ctx := c.Request().Context()

	fromSt, err := h.Stations.GetByName(ctx, c.QueryParam("from"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown departure station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	toSt, err := h.Stations.GetByName(ctx, c.QueryParam("to"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown arrival station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	classes := topology.UsableTrainClasses(fromSt, toSt)
	if classFilter != "" {
		filtered := classes[:0]
		for _, tc := range classes {
			if tc == classFilter {
				filtered = append(filtered, tc)
			}
		}
		classes = filtered
	}
	if len(classes) == 0 {
		return c.JSON(http.StatusOK, []searchResult{})
	}

	direction := topology.DirectionBetween(fromSt, toSt)

	byDistance, err := h.Stations.ListByDistance(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	travelOrder := topology.StationsInTravelOrder(byDistance, direction)

	trains, err := h.Trains.Search(ctx, date, classes, direction == topology.Inbound)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	fares, err := h.partyFares(ctx, fromSt, toSt, classes, date, adult, child)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fare lookup failed"})
	}

	seg := topology.Segment{From: fromSt.ID, To: toSt.ID}
	results := make([]searchResult, 0, maxSearchResults)
	for _, train := range trains {
		if !topology.RouteContains(travelOrder, train.StartStation, train.LastStation, fromSt.ID, toSt.ID) {
			continue
		}

		dep, err := h.Trains.TimetableEntry(ctx, date, train.TrainClass, train.TrainName, fromSt.Name)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		arr, err := h.Trains.TimetableEntry(ctx, date, train.TrainClass, train.TrainName, toSt.Name)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		// Skip trains that already left the boarding station.
		depAt, err := atServiceTime(date, dep.Departure)
		if err != nil || depAt.Before(useAt) {
			continue
		}

		avail, err := h.availability(ctx, train, direction, seg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		results = append(results, searchResult{
			TrainClass:       train.TrainClass,
			TrainName:        train.TrainName,
			Start:            train.StartStation,
			Last:             train.LastStation,
			Departure:        fromSt.Name,
			Arrival:          toSt.Name,
			DepartureTime:    dep.Departure,
			ArrivalTime:      arr.Arrival,
			SeatAvailability: avail,
			SeatFare:         fares[train.TrainClass],
		})
		if len(results) >= maxSearchResults {
			break
		}
	}
	return c.JSON(http.StatusOK, results)
}

// atServiceTime combines a service day with a HH:MM:SS timetable string.
func atServiceTime(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, jst), nil
}

// availability computes the per-class vacancy symbol for one train over
// the requested segment.  Non-reserved seating never sells out.
func (h *TrainHandler) availability(ctx context.Context, train model.Train, d topology.Direction, seg topology.Segment) (map[string]string, error) {
	held, err := h.Reservations.ListForTrain(ctx, train.Date, train.TrainClass, train.TrainName)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]struct{})
	for _, res := range held {
		if !topology.Overlaps(d, seg, topology.Segment{From: res.FromID, To: res.ToID}) {
			continue
		}
		for _, s := range res.Seats {
			if s.CarNumber == 0 {
				continue
			}
			occupied[seatLabel(s.CarNumber, s.SeatRow, s.SeatColumn)] = struct{}{}
		}
	}

	avail := map[string]string{"non_reserved": "○"}
	variants := []struct {
		key       string
		seatClass string
		smoking   bool
	}{
		{"premium", model.SeatClassPremium, false},
		{"premium_smoke", model.SeatClassPremium, true},
		{"reserved", model.SeatClassReserved, false},
		{"reserved_smoke", model.SeatClassReserved, true},
	}
	for _, v := range variants {
		seats, err := h.Seats.ListByClass(ctx, train.TrainClass, v.seatClass, v.smoking)
		if err != nil {
			return nil, err
		}
		free := 0
		for _, s := range seats {
			if _, taken := occupied[seatLabel(s.CarNumber, s.SeatRow, s.SeatColumn)]; !taken {
				free++
			}
		}
		switch {
		case free == 0:
			avail[v.key] = "×"
		case free < 10:
			avail[v.key] = "△"
		default:
			avail[v.key] = "○"
		}
	}
	return avail, nil
}

func seatLabel(car, row int, column string) string {
	return strconv.Itoa(car) + ":" + strconv.Itoa(row) + column
}

// partyFares prices the whole party per train class and seat class.  The
// smoking variants cost the same as their base class.
func (h *TrainHandler) partyFares(ctx context.Context, from, to model.Station, classes []string, date time.Time, adult, child int) (map[string]map[string]int, error) {
	bands, err := h.Fares.DistanceFares(ctx)
	if err != nil {
		return nil, err
	}
	distance := to.Distance - from.Distance
	if distance < 0 {
		distance = -distance
	}
	base := fare.ForDistance(bands, distance)

	out := make(map[string]map[string]int, len(classes))
	for _, tc := range classes {
		perClass := make(map[string]int, 5)
		for _, sc := range []string{model.SeatClassPremium, model.SeatClassReserved, model.SeatClassNonReserved} {
			rules, err := h.Fares.Rules(ctx, tc, sc)
			if err != nil {
				return nil, err
			}
			mult, err := fare.Multiplier(rules, date)
			if err != nil {
				return nil, err
			}
			total := fare.Total(fare.Ticket(base, mult), adult, child)
			switch sc {
			case model.SeatClassPremium:
				perClass["premium"] = total
				perClass["premium_smoke"] = total
			case model.SeatClassReserved:
				perClass["reserved"] = total
				perClass["reserved_smoke"] = total
			default:
				perClass["non_reserved"] = total
			}
		}
		out[tc] = perClass
	}
	return out, nil
}

// seatMapEntry is one seat in the per-car map.
type seatMapEntry struct {
	Row           int    `json:"row"`
	Column        string `json:"column"`
	Class         string `json:"class"`
	IsSmokingSeat bool   `json:"is_smoking_seat"`
	IsOccupied    bool   `json:"is_occupied"`
}

// Seats handles GET /api/train/seats.  It returns the seat map of one
// car with per-seat occupancy relative to the requested journey, plus
// the simple car listing of the train class.
func (h *TrainHandler) SeatMap(c echo.Context) error {
	date, err := parseServiceDay(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if !withinBookingWindow(date, h.Cfg.AvailableDays) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "date outside the booking window"})
	}
	carNumber, err := strconv.Atoi(c.QueryParam("car_number"))
	if err != nil || carNumber < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car_number"})
	}
	trainClass := c.QueryParam("train_class")
	trainName := c.QueryParam("train_name")

	ctx := c.Request().Context()

	train, err := h.Trains.Get(ctx, date, trainClass, trainName)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	fromSt, err := h.Stations.GetByName(ctx, c.QueryParam("from"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown departure station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	toSt, err := h.Stations.GetByName(ctx, c.QueryParam("to"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown arrival station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	direction := topology.Outbound
	if train.IsInbound {
		direction = topology.Inbound
	}
	byDistance, err := h.Stations.ListByDistance(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	travelOrder := topology.StationsInTravelOrder(byDistance, direction)
	if !topology.RouteContains(travelOrder, train.StartStation, train.LastStation, fromSt.ID, toSt.ID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train does not serve this journey"})
	}

	seats, err := h.Seats.ListForCar(ctx, trainClass, carNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no such car"})
	}

	held, err := h.Reservations.ListForTrain(ctx, date, trainClass, trainName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seg := topology.Segment{From: fromSt.ID, To: toSt.ID}
	occupied := make(map[string]struct{})
	for _, res := range held {
		if !topology.Overlaps(direction, seg, topology.Segment{From: res.FromID, To: res.ToID}) {
			continue
		}
		for _, s := range res.Seats {
			if s.CarNumber == carNumber {
				occupied[strconv.Itoa(s.SeatRow)+s.SeatColumn] = struct{}{}
			}
		}
	}

	entries := make([]seatMapEntry, 0, len(seats))
	for _, s := range seats {
		_, taken := occupied[strconv.Itoa(s.SeatRow)+s.SeatColumn]
		entries = append(entries, seatMapEntry{
			Row:           s.SeatRow,
			Column:        s.SeatColumn,
			Class:         s.SeatClass,
			IsSmokingSeat: s.IsSmokingSeat,
			IsOccupied:    taken,
		})
	}

	cars, err := h.Seats.ListCars(ctx, trainClass)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"date":        date.Format(model.DateFormat),
		"train_class": trainClass,
		"train_name":  trainName,
		"car_number":  carNumber,
		"seats":       entries,
		"cars":        cars,
	})
}
