package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hokurail/train-seat-reservation/internal/model"
	"github.com/hokurail/train-seat-reservation/internal/payment"
	"github.com/hokurail/train-seat-reservation/internal/queue"
	"github.com/hokurail/train-seat-reservation/internal/repository"
)

type memTx struct{}

func (memTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (memTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (memTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (memTx) Commit() error   { return nil }
func (memTx) Rollback() error { return nil }

// memStore keeps reservations in a map so the commit and cancel flows
// can run without a database.
type memStore struct {
	res map[int64]model.Reservation
}

func (m *memStore) Begin(context.Context) (repository.Tx, error) { return memTx{}, nil }

func (m *memStore) GetForUserTx(_ context.Context, _ repository.Tx, reservationID, userID int64) (model.Reservation, error) {
	r, ok := m.res[reservationID]
	if !ok {
		return model.Reservation{}, sql.ErrNoRows
	}
	if r.UserID != userID {
		return model.Reservation{}, repository.ErrForbidden
	}
	return r, nil
}

func (m *memStore) MarkDoneTx(_ context.Context, _ repository.Tx, reservationID int64, paymentID string) error {
	r := m.res[reservationID]
	r.Status = model.StatusDone
	r.PaymentID = paymentID
	m.res[reservationID] = r
	return nil
}

func (m *memStore) DeleteTx(_ context.Context, _ repository.Tx, reservationID int64) error {
	delete(m.res, reservationID)
	return nil
}

func (m *memStore) GetByIDForUser(_ context.Context, reservationID, userID int64) (repository.SegmentedReservation, error) {
	r, ok := m.res[reservationID]
	if !ok {
		return repository.SegmentedReservation{}, sql.ErrNoRows
	}
	if r.UserID != userID {
		return repository.SegmentedReservation{}, repository.ErrForbidden
	}
	return repository.SegmentedReservation{Reservation: r}, nil
}

// gatewayStub counts how often the payment gateway is reached.
type gatewayStub struct {
	srv        *httptest.Server
	authorizes int32
	refunds    int32
}

func newGatewayStub(t *testing.T) *gatewayStub {
	t.Helper()
	g := &gatewayStub{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payment":
			atomic.AddInt32(&g.authorizes, 1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"payment_id": "pay_1", "is_ok": true})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/payment/"):
			atomic.AddInt32(&g.refunds, 1)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gatewayStub) authorized() int32 { return atomic.LoadInt32(&g.authorizes) }
func (g *gatewayStub) refunded() int32   { return atomic.LoadInt32(&g.refunds) }

func newLifecycleHandler(store *memStore, gw *gatewayStub) *ReservationHandler {
	return &ReservationHandler{
		Payment: payment.New(gw.srv.URL),
		store:   store,
		publish: func(context.Context, queue.ReservationCompletedEvent) error { return nil },
	}
}

func pendingReservation(id, userID int64) model.Reservation {
	return model.Reservation{
		ID:         id,
		UserID:     userID,
		Date:       time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
		TrainClass: model.TrainClassExpress,
		TrainName:  "5",
		Departure:  "東京",
		Arrival:    "大阪",
		Status:     model.StatusRequesting,
		PaymentID:  "a",
		Adult:      1,
		Amount:     4500,
	}
}

func doCommit(t *testing.T, h *ReservationHandler, userID, reservationID int64) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"reservation_id":%d,"card_token":"tok"}`, reservationID)
	req := httptest.NewRequest(http.MethodPost, "/api/train/reservation/commit", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", float64(userID))
	if err := h.Commit(c); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return rec
}

func doCancel(t *testing.T, h *ReservationHandler, userID int64, reservationID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/user/reservations/"+reservationID+"/cancel", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("item_id")
	c.SetParamValues(reservationID)
	c.Set("user_id", float64(userID))
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	return rec
}

func doGet(t *testing.T, h *ReservationHandler, userID int64, reservationID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/user/reservations/"+reservationID, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("item_id")
	c.SetParamValues(reservationID)
	c.Set("user_id", float64(userID))
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	return rec
}

func TestCommitTwiceChargesOnce(t *testing.T) {
	gw := newGatewayStub(t)
	store := &memStore{res: map[int64]model.Reservation{7: pendingReservation(7, 1)}}
	h := newLifecycleHandler(store, gw)

	if rec := doCommit(t, h, 1, 7); rec.Code != http.StatusOK {
		t.Fatalf("first commit = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	if gw.authorized() != 1 {
		t.Fatalf("gateway authorized %d times, want 1", gw.authorized())
	}
	if got := store.res[7]; got.Status != model.StatusDone || got.PaymentID != "pay_1" {
		t.Fatalf("after commit: status=%s payment_id=%s", got.Status, got.PaymentID)
	}

	if rec := doCommit(t, h, 1, 7); rec.Code != http.StatusForbidden {
		t.Fatalf("second commit = %d, want 403", rec.Code)
	}
	if gw.authorized() != 1 {
		t.Fatalf("second commit reached the gateway (%d authorizations)", gw.authorized())
	}
}

func TestCommitRejectedReservation(t *testing.T) {
	gw := newGatewayStub(t)
	res := pendingReservation(7, 1)
	res.Status = model.StatusRejected
	store := &memStore{res: map[int64]model.Reservation{7: res}}
	h := newLifecycleHandler(store, gw)

	if rec := doCommit(t, h, 1, 7); rec.Code != http.StatusInternalServerError {
		t.Fatalf("commit of rejected reservation = %d, want 500", rec.Code)
	}
	if gw.authorized() != 0 {
		t.Fatalf("rejected reservation reached the gateway")
	}
}

func TestCommitWrongUser(t *testing.T) {
	gw := newGatewayStub(t)
	store := &memStore{res: map[int64]model.Reservation{7: pendingReservation(7, 1)}}
	h := newLifecycleHandler(store, gw)

	if rec := doCommit(t, h, 2, 7); rec.Code != http.StatusForbidden {
		t.Fatalf("commit by other user = %d, want 403", rec.Code)
	}
	if gw.authorized() != 0 {
		t.Fatalf("foreign reservation reached the gateway")
	}
}

func TestCancelThenGetAndRepeat(t *testing.T) {
	gw := newGatewayStub(t)
	store := &memStore{res: map[int64]model.Reservation{7: pendingReservation(7, 1)}}
	h := newLifecycleHandler(store, gw)

	if rec := doCancel(t, h, 1, "7"); rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	// Nothing was captured, so nothing is refunded.
	if gw.refunded() != 0 {
		t.Fatalf("unpaid cancellation refunded %d times", gw.refunded())
	}
	if rec := doGet(t, h, 1, "7"); rec.Code != http.StatusNotFound {
		t.Fatalf("get after cancel = %d, want 404", rec.Code)
	}
	if rec := doCancel(t, h, 1, "7"); rec.Code != http.StatusNotFound {
		t.Fatalf("repeated cancel = %d, want 404", rec.Code)
	}
}

func TestCancelPaidReservationRefundsOnce(t *testing.T) {
	gw := newGatewayStub(t)
	res := pendingReservation(7, 1)
	res.Status = model.StatusDone
	res.PaymentID = "pay_9"
	store := &memStore{res: map[int64]model.Reservation{7: res}}
	h := newLifecycleHandler(store, gw)

	if rec := doCancel(t, h, 1, "7"); rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	if gw.refunded() != 1 {
		t.Fatalf("gateway refunded %d times, want 1", gw.refunded())
	}
	if rec := doCancel(t, h, 1, "7"); rec.Code != http.StatusNotFound {
		t.Fatalf("repeated cancel = %d, want 404", rec.Code)
	}
	if gw.refunded() != 1 {
		t.Fatalf("repeated cancel refunded again (%d refunds)", gw.refunded())
	}
}

func TestCancelRejectedReservation(t *testing.T) {
	gw := newGatewayStub(t)
	res := pendingReservation(7, 1)
	res.Status = model.StatusRejected
	store := &memStore{res: map[int64]model.Reservation{7: res}}
	h := newLifecycleHandler(store, gw)

	if rec := doCancel(t, h, 1, "7"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("cancel of rejected reservation = %d, want 500", rec.Code)
	}
	if _, ok := store.res[7]; !ok {
		t.Fatal("rejected reservation was deleted")
	}
}
