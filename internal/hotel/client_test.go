package hotel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, zerolog.Nop())
}

func TestBranches(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/hotel/branch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"b1","name":"Downtown","address":"1 Main St"}]`))
	})

	got, err := c.Branches(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Branch{ID: "b1", Name: "Downtown", Address: "1 Main St"}, got[0])
}

func TestTablesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/hotel/table", r.URL.Path)
		assert.Equal(t, "b1", r.URL.Query().Get("branchId"))
		w.Write([]byte(`[{"_id":"t1","number":4,"capacity":2,"location":"window"}]`))
	})

	got, err := c.Tables(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "4", string(got[0].Number))
}

func TestReservationsByTableAndDatePassesDateVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/hotel/reservation", r.URL.Path)
		assert.Equal(t, "t1", r.URL.Query().Get("tableId"))
		assert.Equal(t, "9/5/2026", r.URL.Query().Get("date"))
		w.Write([]byte(`[]`))
	})

	got, err := c.ReservationsByTableAndDate(context.Background(), "t1", "9/5/2026")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetJSONAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad date"}`))
	})

	_, err := c.AllReservations(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "bad date", apiErr.Message)
}

func TestCreateReservation(t *testing.T) {
	var received map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/hotel/reservation", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"r1","tableId":"t1","timeSlot":"07:00 PM - 08:00 PM","status":"confirmed"}`))
	})

	rec, err := c.CreateReservation(context.Background(), map[string]any{"tableId": "t1", "timeSlot": "07:00 PM - 08:00 PM"})
	require.NoError(t, err)
	assert.Equal(t, "r1", string(rec.ID))
	assert.Equal(t, "t1", received["tableId"])
}

func TestCreateCustomerIDFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/hotel/customer", r.URL.Path)
		w.Write([]byte(`{"id":"c9"}`))
	})

	id, err := c.CreateCustomer(context.Background(), "Ada", "555-0100", "")
	require.NoError(t, err)
	assert.Equal(t, "c9", id)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "nope", errorText([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "nope", errorText([]byte(`{"error":"nope"}`)))
	assert.Equal(t, "plain text", errorText([]byte(" plain text ")))

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, errorText(long), 200)
}
