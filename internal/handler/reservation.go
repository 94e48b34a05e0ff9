package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/allocator"
	"github.com/hokurail/train-seat-reservation/internal/config"
	"github.com/hokurail/train-seat-reservation/internal/fare"
	"github.com/hokurail/train-seat-reservation/internal/model"
	"github.com/hokurail/train-seat-reservation/internal/payment"
	"github.com/hokurail/train-seat-reservation/internal/queue"
	"github.com/hokurail/train-seat-reservation/internal/repository"
	queue_publisher "github.com/hokurail/train-seat-reservation/internal/service"
	"github.com/hokurail/train-seat-reservation/internal/topology"
)

// ReservationHandler implements the booking lifecycle: reserve seats,
// commit the payment, cancel, and list.  Reserve and the state changes
// run inside a transaction so conflict evaluation, inserts and status
// flips stay atomic under concurrent requests for the same train.
type ReservationHandler struct {
	Cfg          config.Config
	Stations     *repository.StationRepo
	Trains       *repository.TrainRepo
	Seats        *repository.SeatRepo
	Fares        *repository.FareRepo
	Reservations *repository.ReservationRepo
	Payment      *payment.Client

	store   reservationStore
	publish func(ctx context.Context, ev queue.ReservationCompletedEvent) error
}

// reservationStore is the slice of reservation storage the payment
// lifecycle runs against.  *repository.ReservationRepo implements it.
type reservationStore interface {
	Begin(ctx context.Context) (repository.Tx, error)
	GetForUserTx(ctx context.Context, tx repository.Tx, reservationID, userID int64) (model.Reservation, error)
	MarkDoneTx(ctx context.Context, tx repository.Tx, reservationID int64, paymentID string) error
	DeleteTx(ctx context.Context, tx repository.Tx, reservationID int64) error
	GetByIDForUser(ctx context.Context, reservationID, userID int64) (repository.SegmentedReservation, error)
}

func NewReservationHandler(cfg config.Config, st *repository.StationRepo, tr *repository.TrainRepo, se *repository.SeatRepo, fa *repository.FareRepo, re *repository.ReservationRepo, pay *payment.Client) *ReservationHandler {
	if st == nil || tr == nil || se == nil || fa == nil || re == nil || pay == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Cfg: cfg, Stations: st, Trains: tr, Seats: se, Fares: fa, Reservations: re, Payment: pay,
		store:   re,
		publish: queue_publisher.PublishReservationCompleted,
	}
}

type seatSelection struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

type reserveReq struct {
	Date          string          `json:"date"`
	TrainClass    string          `json:"train_class"`
	TrainName     string          `json:"train_name"`
	SeatClass     string          `json:"seat_class"`
	IsSmokingSeat bool            `json:"is_smoking_seat"`
	CarNumber     int             `json:"car_number"`
	Departure     string          `json:"departure"`
	Arrival       string          `json:"arrival"`
	Adult         int             `json:"adult"`
	Child         int             `json:"child"`
	Column        string          `json:"column"`
	Seats         []seatSelection `json:"seats"`
}

// Reserve handles POST /api/train/reservation.  It validates the
// journey against the timetable, locks the train's reservations, picks
// seats (explicit, fuzzy or the non-reserved sentinel), prices the
// party and inserts the reservation in status requesting.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Adult+req.Child <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty party"})
	}
	date, err := parseServiceDay(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if !withinBookingWindow(date, h.Cfg.AvailableDays) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "date outside the booking window"})
	}
	switch req.SeatClass {
	case model.SeatClassPremium, model.SeatClassReserved, model.SeatClassNonReserved:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown seat class"})
	}

	ctx := c.Request().Context()

	train, err := h.Trains.Get(ctx, date, req.TrainClass, req.TrainName)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	fromSt, err := h.Stations.GetByName(ctx, req.Departure)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown departure station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	toSt, err := h.Stations.GetByName(ctx, req.Arrival)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown arrival station"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !topology.Usable(req.TrainClass, fromSt, toSt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train class does not stop at both stations"})
	}

	direction := topology.Outbound
	if train.IsInbound {
		direction = topology.Inbound
	}
	if topology.DirectionBetween(fromSt, toSt) != direction {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train runs the other way"})
	}
	startSt, err := h.Stations.GetByName(ctx, train.StartStation)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	lastSt, err := h.Stations.GetByName(ctx, train.LastStation)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reqSeg := topology.Segment{From: fromSt.ID, To: toSt.ID}
	if !topology.WithinOperatingSpan(direction, startSt.ID, lastSt.ID, reqSeg) {
		log.Printf("reserve: journey %s -> %s outside operating span of %s/%s", fromSt.Name, toSt.Name, train.TrainClass, train.TrainName)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train does not serve this journey"})
	}

	amount, err := h.price(ctx, fromSt, toSt, req.TrainClass, req.SeatClass, date, req.Adult, req.Child)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fare lookup failed"})
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock every reservation on this run before looking at seats.
	existing, err := h.Reservations.ListForTrainTx(ctx, tx, date, req.TrainClass, req.TrainName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var chosen []model.SeatReservation
	if req.SeatClass == model.SeatClassNonReserved {
		chosen = nil // sentinel row added after insert
	} else {
		occ := occupiedOverlapping(existing, direction, reqSeg)
		chosen, err = h.pickSeats(ctx, req, occ)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "requested seats are taken"})
			}
			if errors.Is(err, allocator.ErrNoVacancy) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "no seats available"})
			}
			if errors.Is(err, errBadSeat) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat selection"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	res := model.Reservation{
		UserID:     userID,
		Date:       date,
		TrainClass: req.TrainClass,
		TrainName:  req.TrainName,
		Departure:  fromSt.Name,
		Arrival:    toSt.Name,
		Status:     model.StatusRequesting,
		PaymentID:  "a", // placeholder until the payment is captured
		Adult:      req.Adult,
		Child:      req.Child,
		Amount:     amount,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}

	if req.SeatClass == model.SeatClassNonReserved {
		chosen = []model.SeatReservation{model.NonReservedSeat(res.ID)}
	} else {
		for i := range chosen {
			chosen[i].ReservationID = res.ID
		}
	}
	if err := h.Reservations.CreateSeatsBulkTx(ctx, tx, chosen); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store seats"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"amount":         amount,
		"is_ok":          true,
	})
}

var errBadSeat = errors.New("invalid seat selection")

// occupiedOverlapping collects the seats held by reservations whose
// journey overlaps the requested segment.  Reservations on disjoint
// stretches of the same run do not block a seat.
func occupiedOverlapping(existing []repository.SegmentedReservation, d topology.Direction, seg topology.Segment) allocator.OccupiedSet {
	held := make([]model.SeatReservation, 0)
	for _, res := range existing {
		if !topology.Overlaps(d, seg, topology.Segment{From: res.FromID, To: res.ToID}) {
			continue
		}
		held = append(held, res.Seats...)
	}
	return allocator.NewOccupiedSet(held)
}

// pickSeats resolves the requested seats: explicit coordinates are
// validated against the layout and the occupancy set; otherwise fuzzy
// allocation walks the cars.
func (h *ReservationHandler) pickSeats(ctx context.Context, req reserveReq, occ allocator.OccupiedSet) ([]model.SeatReservation, error) {
	if len(req.Seats) > 0 {
		if len(req.Seats) != req.Adult+req.Child {
			return nil, errBadSeat
		}
		chosen := make([]model.SeatReservation, 0, len(req.Seats))
		for _, sel := range req.Seats {
			seat, err := h.Seats.Get(ctx, req.TrainClass, req.CarNumber, sel.Row, sel.Column)
			if err != nil {
				if err == sql.ErrNoRows {
					return nil, errBadSeat
				}
				return nil, err
			}
			if seat.SeatClass != req.SeatClass || seat.IsSmokingSeat != req.IsSmokingSeat {
				return nil, errBadSeat
			}
			if occ.Taken(seat) {
				return nil, repository.ErrConflict
			}
			chosen = append(chosen, model.SeatReservation{CarNumber: seat.CarNumber, SeatRow: seat.SeatRow, SeatColumn: seat.SeatColumn})
		}
		return chosen, nil
	}

	layout, err := h.Seats.ListByClass(ctx, req.TrainClass, req.SeatClass, req.IsSmokingSeat)
	if err != nil {
		return nil, err
	}
	seats, err := allocator.ResolveFuzzy(layout, occ, allocator.Request{
		SeatClass:       req.SeatClass,
		IsSmokingSeat:   req.IsSmokingSeat,
		Count:           req.Adult + req.Child,
		PreferredColumn: req.Column,
	})
	if err != nil {
		return nil, err
	}
	chosen := make([]model.SeatReservation, 0, len(seats))
	for _, s := range seats {
		chosen = append(chosen, model.SeatReservation{CarNumber: s.CarNumber, SeatRow: s.SeatRow, SeatColumn: s.SeatColumn})
	}
	return chosen, nil
}

// price computes the whole party's fare for the journey.
func (h *ReservationHandler) price(ctx context.Context, from, to model.Station, trainClass, seatClass string, date time.Time, adult, child int) (int, error) {
	bands, err := h.Fares.DistanceFares(ctx)
	if err != nil {
		return 0, err
	}
	distance := to.Distance - from.Distance
	if distance < 0 {
		distance = -distance
	}
	rules, err := h.Fares.Rules(ctx, trainClass, seatClass)
	if err != nil {
		return 0, err
	}
	mult, err := fare.Multiplier(rules, date)
	if err != nil {
		return 0, err
	}
	return fare.Total(fare.Ticket(fare.ForDistance(bands, distance), mult), adult, child), nil
}

type commitReq struct {
	ReservationID int64  `json:"reservation_id"`
	CardToken     string `json:"card_token"`
}

// Commit handles POST /api/train/reservation/commit.  It captures the
// payment through the gateway and flips the reservation to done.  An
// already-done reservation is rejected before the gateway is called; a
// rejected one cannot be committed at all.
func (h *ReservationHandler) Commit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req commitReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 || req.CardToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id and card_token required"})
	}

	ctx := c.Request().Context()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.store.GetForUserTx(ctx, tx, req.ReservationID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	switch res.Status {
	case model.StatusRequesting:
	case model.StatusDone:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "already committed"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation in unpayable state"})
	}

	paymentID, err := h.Payment.Authorize(ctx, req.CardToken, res.ID, res.Amount)
	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
		}
		log.Printf("commit: payment authorize failed for reservation %d: %v", res.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}

	if err := h.store.MarkDoneTx(ctx, tx, res.ID, paymentID); err != nil {
		h.refund(paymentID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	if err := tx.Commit(); err != nil {
		h.refund(paymentID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	h.publishCompleted(res, paymentID)

	return c.JSON(http.StatusOK, echo.Map{"is_ok": true})
}

// refund reverses a captured payment after a storage failure.  Best
// effort: the gateway error is only logged.
func (h *ReservationHandler) refund(paymentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Payment.Cancel(ctx, paymentID); err != nil {
		log.Printf("commit: compensating refund of %s failed: %v", paymentID, err)
	}
}

func (h *ReservationHandler) publishCompleted(res model.Reservation, paymentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seats, err := h.store.GetByIDForUser(ctx, res.ID, res.UserID)
	labels := make([]string, 0)
	if err == nil {
		for _, s := range seats.Seats {
			if s.CarNumber == 0 {
				continue
			}
			labels = append(labels, strconv.Itoa(s.CarNumber)+"-"+strconv.Itoa(s.SeatRow)+s.SeatColumn)
		}
	}

	ev := queue.ReservationCompletedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Date:          res.Date.Format(model.DateFormat),
		TrainClass:    res.TrainClass,
		TrainName:     res.TrainName,
		Departure:     res.Departure,
		Arrival:       res.Arrival,
		SeatLabels:    labels,
		Adult:         res.Adult,
		Child:         res.Child,
		Amount:        res.Amount,
		PaymentID:     paymentID,
		CompletedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.publish(ctx, ev); err != nil {
		log.Printf("commit: publish completed event failed for reservation %d: %v", res.ID, err)
	}
}

// Cancel handles POST /api/user/reservations/:item_id/cancel.  Paid
// reservations are refunded through the gateway before the rows are
// deleted; a refund failure aborts the cancellation.  Cancelling the
// same reservation twice yields 404 since the first call removed it.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || reservationID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.store.GetForUserTx(ctx, tx, reservationID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	switch res.Status {
	case model.StatusRejected:
		// Written by external reconciliation; the money never moved.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fail"})
	case model.StatusDone:
		if err := h.Payment.Cancel(ctx, res.PaymentID); err != nil {
			log.Printf("cancel: refund failed for reservation %d payment %s: %v", res.ID, res.PaymentID, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
		}
	case model.StatusRequesting:
		// Nothing captured yet.
	}

	if err := h.store.DeleteTx(ctx, tx, res.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"is_ok": true})
}

// reservationResp is the client-facing shape of one reservation.
type reservationResp struct {
	ReservationID int64                   `json:"reservation_id"`
	Date          string                  `json:"date"`
	TrainClass    string                  `json:"train_class"`
	TrainName     string                  `json:"train_name"`
	Departure     string                  `json:"departure"`
	Arrival       string                  `json:"arrival"`
	DepartureTime string                  `json:"departure_time"`
	ArrivalTime   string                  `json:"arrival_time"`
	Status        string                  `json:"status"`
	PaymentID     string                  `json:"payment_id,omitempty"`
	Adult         int                     `json:"adult"`
	Child         int                     `json:"child"`
	Amount        int                     `json:"amount"`
	Seats         []model.SeatReservation `json:"seats"`
}

func (h *ReservationHandler) toResp(ctx context.Context, sr repository.SegmentedReservation) reservationResp {
	resp := reservationResp{
		ReservationID: sr.ID,
		Date:          sr.Date.Format(model.DateFormat),
		TrainClass:    sr.TrainClass,
		TrainName:     sr.TrainName,
		Departure:     sr.Departure,
		Arrival:       sr.Arrival,
		Status:        sr.Status,
		PaymentID:     sr.PaymentID,
		Adult:         sr.Adult,
		Child:         sr.Child,
		Amount:        sr.Amount,
		Seats:         sr.Seats,
	}
	if dep, err := h.Trains.TimetableEntry(ctx, sr.Date, sr.TrainClass, sr.TrainName, sr.Departure); err == nil {
		resp.DepartureTime = dep.Departure
	}
	if arr, err := h.Trains.TimetableEntry(ctx, sr.Date, sr.TrainClass, sr.TrainName, sr.Arrival); err == nil {
		resp.ArrivalTime = arr.Arrival
	}
	return resp
}

// List handles GET /api/user/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	list, err := h.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]reservationResp, 0, len(list))
	for _, sr := range list {
		out = append(out, h.toResp(ctx, sr))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/user/reservations/:item_id.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || reservationID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	sr, err := h.store.GetByIDForUser(ctx, reservationID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, h.toResp(ctx, sr))
}
