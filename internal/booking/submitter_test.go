package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/table-booker/internal/hotel"
)

type fakeAPI struct {
	existing []hotel.Reservation
	listErr  error

	// respond is consulted per POST, in order; the slice length caps attempts.
	respond []func(payload map[string]any) (*hotel.Reservation, error)
	posts   []map[string]any

	customerID   string
	customerErr  error
	customerPost int
}

func (f *fakeAPI) ReservationsByTableAndDate(_ context.Context, _, _ string) ([]hotel.Reservation, error) {
	return f.existing, f.listErr
}

func (f *fakeAPI) CreateReservation(_ context.Context, payload map[string]any) (*hotel.Reservation, error) {
	i := len(f.posts)
	f.posts = append(f.posts, payload)
	if i >= len(f.respond) {
		return nil, errors.New("unexpected reservation POST")
	}
	return f.respond[i](payload)
}

func (f *fakeAPI) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	f.customerPost++
	return f.customerID, f.customerErr
}

type fakeDirectory struct {
	known map[string]string
	saved map[string]string
}

func (d *fakeDirectory) CustomerID(_ context.Context, phone string) (string, error) {
	if id, ok := d.known[phone]; ok {
		return id, nil
	}
	return "", errors.New("unknown phone")
}

func (d *fakeDirectory) SaveCustomerID(_ context.Context, phone, customerID string) error {
	if d.saved == nil {
		d.saved = map[string]string{}
	}
	d.saved[phone] = customerID
	return nil
}

func accept(id string) func(map[string]any) (*hotel.Reservation, error) {
	return func(map[string]any) (*hotel.Reservation, error) {
		return &hotel.Reservation{ID: hotel.FlexID(id), Status: "confirmed"}, nil
	}
}

func reject(status int, message string) func(map[string]any) (*hotel.Reservation, error) {
	return func(map[string]any) (*hotel.Reservation, error) {
		return nil, &hotel.APIError{Status: status, Message: message}
	}
}

func validInput() FormInput {
	return FormInput{
		CustomerName:    "Ada Lovelace",
		PhoneNumber:     "555-0100",
		NumberOfGuests:  2,
		BookingDate:     time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "07:00 PM - 08:00 PM",
		SpecialRequests: "window seat",
		TableID:         "t1",
		BranchID:        "b1",
	}
}

func TestSubmitValidation(t *testing.T) {
	api := &fakeAPI{}
	s := NewSubmitter(api, nil, zerolog.Nop())

	tests := []struct {
		name   string
		mutate func(*FormInput)
	}{
		{"missing name", func(in *FormInput) { in.CustomerName = "  " }},
		{"missing phone", func(in *FormInput) { in.PhoneNumber = "" }},
		{"missing slot", func(in *FormInput) { in.TimeSlot = " " }},
		{"missing table", func(in *FormInput) { in.TableID = "" }},
		{"missing branch", func(in *FormInput) { in.BranchID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := s.Submit(context.Background(), in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
	assert.Empty(t, api.posts, "validation failures must not reach the network")
}

func TestSubmitSlotConflict(t *testing.T) {
	api := &fakeAPI{
		existing: []hotel.Reservation{
			{TimeSlot: "07:00 PM - 08:00 PM", Status: "confirmed"},
		},
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	_, err := s.Submit(context.Background(), validInput())
	var cErr *SlotConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "t1", cErr.TableID)
	assert.Empty(t, api.posts)
}

func TestSubmitConflictIgnoresCancelledAndFuzzyVariants(t *testing.T) {
	api := &fakeAPI{
		existing: []hotel.Reservation{
			{TimeSlot: "07:00 PM - 08:00 PM", Status: "cancelled"},
			// The pre-check is an exact string comparison; a drifted form of
			// the same hour does not trigger it.
			{TimeSlot: "7:00 pm - 8:00 pm", Status: "confirmed"},
		},
		respond: []func(map[string]any) (*hotel.Reservation, error){accept("r1")},
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	rec, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "r1", string(rec.ID))
}

func TestSubmitPrecheckFailureDoesNotBlock(t *testing.T) {
	api := &fakeAPI{
		listErr: errors.New("api down"),
		respond: []func(map[string]any) (*hotel.Reservation, error){accept("r1")},
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	_, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	require.Len(t, api.posts, 1)
}

func TestSubmitFullPayloadFirstTry(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){accept("r1")},
	}
	dir := &fakeDirectory{known: map[string]string{"555-0100": "c7"}}
	s := NewSubmitter(api, dir, zerolog.Nop())

	rec, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "r1", string(rec.ID))

	require.Len(t, api.posts, 1)
	p := api.posts[0]
	assert.Equal(t, "t1", p["tableId"])
	assert.Equal(t, "b1", p["branchId"])
	assert.Equal(t, "Ada Lovelace", p["customerName"])
	assert.Equal(t, "2026-09-05", p["reservationDate"])
	assert.Equal(t, "07:00 PM - 08:00 PM", p["timeSlot"])
	assert.Equal(t, "confirmed", p["status"])
	assert.Equal(t, "c7", p["customerId"])
}

func TestSubmitUnknownCustomerRetriesWithoutID(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){
			reject(404, "customer not found"),
			accept("r2"),
		},
	}
	dir := &fakeDirectory{known: map[string]string{"555-0100": "stale"}}
	s := NewSubmitter(api, dir, zerolog.Nop())

	rec, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "r2", string(rec.ID))

	require.Len(t, api.posts, 2)
	assert.Contains(t, api.posts[0], "customerId")
	assert.NotContains(t, api.posts[1], "customerId")
	assert.NotContains(t, api.posts[1], "customerEmail")
}

func TestSubmitNonCustomer404SkipsTrimmedVariant(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){
			reject(400, "guestCount must be a string"),
			accept("r3"),
		},
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	rec, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "r3", string(rec.ID))

	require.Len(t, api.posts, 2)
	// The second attempt is the minimal shape, not the customer-less one.
	assert.NotContains(t, api.posts[1], "notes")
	assert.NotContains(t, api.posts[1], "customerEmail")
	assert.Equal(t, "confirmed", api.posts[1]["status"])
}

func TestSubmitExhaustsLadderThenRegistersCustomer(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){
			reject(500, "internal"),
			reject(400, "bad shape"),
			reject(400, "bad shape"),
			accept("r4"),
		},
		customerID: "c-new",
	}
	dir := &fakeDirectory{}
	s := NewSubmitter(api, dir, zerolog.Nop())

	rec, err := s.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "r4", string(rec.ID))

	require.Len(t, api.posts, 4)
	assert.Equal(t, 1, api.customerPost)
	assert.Equal(t, "c-new", api.posts[3]["customerId"])
	assert.Equal(t, "c-new", dir.saved["555-0100"], "fresh customer id is remembered")

	// alt-names is the third shape tried.
	assert.Equal(t, "Ada Lovelace", api.posts[2]["name"])
	assert.Equal(t, "555-0100", api.posts[2]["phone"])
	assert.Equal(t, 2, api.posts[2]["guests"])
	assert.Equal(t, "07:00 PM - 08:00 PM", api.posts[2]["time"])
}

func TestSubmitCustomerCreationFailureEndsLadder(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){
			reject(500, "internal"),
			reject(400, "bad shape"),
			reject(400, "bad shape"),
		},
		customerErr: &hotel.APIError{Status: 409, Message: "phone already registered"},
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	_, err := s.Submit(context.Background(), validInput())
	var fErr *FailedError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, "phone already registered", fErr.Message)
	require.Len(t, api.posts, 3)
	assert.Equal(t, 1, api.customerPost)
}

func TestSubmitAllVariantsRejected(t *testing.T) {
	api := &fakeAPI{
		respond: []func(map[string]any) (*hotel.Reservation, error){
			reject(500, "internal"),
			reject(400, "bad shape"),
			reject(400, "bad shape"),
			reject(422, "table is fully booked"),
		},
		customerID: "c-new",
	}
	s := NewSubmitter(api, nil, zerolog.Nop())

	_, err := s.Submit(context.Background(), validInput())
	var fErr *FailedError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, "table is fully booked", fErr.Message)
	assert.Contains(t, err.Error(), "booking failed: ")
}

func TestUnknownCustomer(t *testing.T) {
	assert.True(t, unknownCustomer(&hotel.APIError{Status: 404, Message: "Customer not found"}))
	assert.True(t, unknownCustomer(&hotel.APIError{Status: 404, Message: "record not found"}))
	assert.False(t, unknownCustomer(&hotel.APIError{Status: 404, Message: "no such route"}))
	assert.False(t, unknownCustomer(&hotel.APIError{Status: 400, Message: "customer not found"}))
	assert.False(t, unknownCustomer(errors.New("dial tcp: refused")))
}
