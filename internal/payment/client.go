// Package payment talks to the external payment gateway.  The gateway
// captures a card token against an amount and returns a payment id that
// can later be refunded.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrDeclined is returned when the gateway processes the request but
// refuses the payment.
var ErrDeclined = errors.New("payment: declined by gateway")

// Client is a thin HTTP client for the payment gateway.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for the gateway at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type paymentInformation struct {
	CardToken     string `json:"card_token"`
	ReservationID string `json:"reservation_id"`
	Amount        int    `json:"amount"`
}

type authorizeRequest struct {
	PaymentInformation paymentInformation `json:"payment_information"`
}

type authorizeResponse struct {
	PaymentID string `json:"payment_id"`
	IsOK      bool   `json:"is_ok"`
}

// Authorize captures amount against the card token for one reservation.
// The reservation id travels as a string on the wire.  Returns the
// gateway's payment id, or ErrDeclined when the gateway says no.
func (c *Client) Authorize(ctx context.Context, cardToken string, reservationID int64, amount int) (string, error) {
	body, err := json.Marshal(authorizeRequest{
		PaymentInformation: paymentInformation{
			CardToken:     cardToken,
			ReservationID: strconv.FormatInt(reservationID, 10),
			Amount:        amount,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment: gateway returned status %d", resp.StatusCode)
	}

	var out authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if !out.IsOK {
		return "", ErrDeclined
	}
	return out.PaymentID, nil
}

// Cancel refunds a captured payment.
func (c *Client) Cancel(ctx context.Context, paymentID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/payment/"+paymentID, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("payment: refund returned status %d", resp.StatusCode)
	}
	return nil
}
