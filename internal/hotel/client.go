package hotel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/table-booker/internal/metrics"
)

const (
	branchPath      = "/api/v1/hotel/branch"
	tablePath       = "/api/v1/hotel/table"
	reservationPath = "/api/v1/hotel/reservation"
	customerPath    = "/api/v1/hotel/customer"
)

// APIError is a non-2xx answer from the reservation API. Message carries
// whatever the body's message/error field said, so callers can route on it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("reservation api: status %d", e.Status)
	}
	return fmt.Sprintf("reservation api: status %d: %s", e.Status, e.Message)
}

// Client talks to the hotel reservation API. Every request runs under the
// client timeout in addition to the caller's context deadline.
type Client struct {
	base string
	hc   *http.Client
	log  zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *Client) Branches(ctx context.Context) ([]Branch, error) {
	var out []Branch
	if err := c.getJSON(ctx, branchPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return out, nil
}

func (c *Client) Tables(ctx context.Context, branchID string) ([]Table, error) {
	q := url.Values{"branchId": {branchID}}
	var out []Table
	if err := c.getJSON(ctx, tablePath, q, &out); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return out, nil
}

// ReservationsByTableAndDate queries with the backend's date filter. The
// date string is passed through untouched; callers own the encoding.
func (c *Client) ReservationsByTableAndDate(ctx context.Context, tableID, date string) ([]Reservation, error) {
	q := url.Values{"tableId": {tableID}, "date": {date}}
	var out []Reservation
	if err := c.getJSON(ctx, reservationPath, q, &out); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func (c *Client) ReservationsByTable(ctx context.Context, tableID string) ([]Reservation, error) {
	q := url.Values{"tableId": {tableID}}
	var out []Reservation
	if err := c.getJSON(ctx, reservationPath, q, &out); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func (c *Client) AllReservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := c.getJSON(ctx, reservationPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// CreateReservation posts one payload variant verbatim. A non-2xx answer
// comes back as *APIError; transport failures are returned as-is.
func (c *Client) CreateReservation(ctx context.Context, payload map[string]any) (*Reservation, error) {
	status, body, err := c.do(ctx, http.MethodPost, reservationPath, nil, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Message: errorText(body)}
	}
	var r Reservation
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode reservation: %w", err)
	}
	return &r, nil
}

func (c *Client) CreateCustomer(ctx context.Context, name, phone, email string) (string, error) {
	payload := map[string]any{"name": name, "phone": phone, "email": email}
	status, body, err := c.do(ctx, http.MethodPost, customerPath, nil, payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &APIError{Status: status, Message: errorText(body)}
	}
	var cust Customer
	if err := json.Unmarshal(body, &cust); err != nil {
		return "", fmt.Errorf("decode customer: %w", err)
	}
	if cust.CustomerID() == "" {
		return "", fmt.Errorf("customer response carried no id")
	}
	return cust.CustomerID(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: errorText(body)}
	}
	return json.Unmarshal(body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(path, metrics.StatusClass(0)).Inc()
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("api request failed")
		return 0, nil, err
	}
	defer res.Body.Close()

	metrics.APIRequests.WithLabelValues(path, metrics.StatusClass(res.StatusCode)).Inc()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, body, nil
}

// errorText digs the human-readable part out of an error body {message?, error?}.
func errorText(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
