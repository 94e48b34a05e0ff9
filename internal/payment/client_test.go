package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payment" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req authorizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PaymentInformation.CardToken != "tok-1" {
			t.Errorf("card_token = %q", req.PaymentInformation.CardToken)
		}
		if req.PaymentInformation.ReservationID != "42" {
			t.Errorf("reservation_id = %q, want string \"42\"", req.PaymentInformation.ReservationID)
		}
		if req.PaymentInformation.Amount != 10800 {
			t.Errorf("amount = %d", req.PaymentInformation.Amount)
		}
		_ = json.NewEncoder(w).Encode(authorizeResponse{PaymentID: "pay-9", IsOK: true})
	}))
	defer srv.Close()

	pid, err := New(srv.URL).Authorize(context.Background(), "tok-1", 42, 10800)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if pid != "pay-9" {
		t.Fatalf("payment id = %q, want pay-9", pid)
	}
}

func TestAuthorizeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(authorizeResponse{IsOK: false})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Authorize(context.Background(), "tok-1", 1, 100)
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
}

func TestAuthorizeGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Authorize(context.Background(), "tok-1", 1, 100); err == nil {
		t.Fatal("expected error on gateway 500")
	}
}

func TestCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/payment/pay-9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL).Cancel(context.Background(), "pay-9"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
}
