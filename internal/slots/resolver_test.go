package slots

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

type fakeSource struct {
	byTableAndDate func(tableID, date string) ([]hotel.Reservation, error)
	byTable        func(tableID string) ([]hotel.Reservation, error)
	all            func() ([]hotel.Reservation, error)

	dateCalls  []string
	tableCalls int
	allCalls   int
}

func (f *fakeSource) ReservationsByTableAndDate(_ context.Context, tableID, date string) ([]hotel.Reservation, error) {
	f.dateCalls = append(f.dateCalls, date)
	if f.byTableAndDate == nil {
		return nil, nil
	}
	return f.byTableAndDate(tableID, date)
}

func (f *fakeSource) ReservationsByTable(_ context.Context, tableID string) ([]hotel.Reservation, error) {
	f.tableCalls++
	if f.byTable == nil {
		return nil, nil
	}
	return f.byTable(tableID)
}

func (f *fakeSource) AllReservations(_ context.Context) ([]hotel.Reservation, error) {
	f.allCalls++
	if f.all == nil {
		return nil, nil
	}
	return f.all()
}

func TestDateEncodings(t *testing.T) {
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	got := DateEncodings(date)
	require.Len(t, got, 5)
	assert.Equal(t, "2026-09-05", got[0])
	assert.Equal(t, "9/5/2026", got[1])
	assert.Equal(t, "5/9/2026", got[2])
	assert.Equal(t, "2026-09-05T00:00:00.000Z", got[3])
	assert.Equal(t, "2026-09-05", got[4])
}

func TestResolveFirstEncodingWins(t *testing.T) {
	src := &fakeSource{
		byTableAndDate: func(_, date string) ([]hotel.Reservation, error) {
			if date != "2026-09-05" {
				t.Fatalf("unexpected encoding %q reached the source", date)
			}
			return []hotel.Reservation{
				{TimeSlot: "7:00 pm - 8:00 pm", Status: "confirmed"},
				{TimeSlot: "09:00 AM - 10:00 AM", Status: "cancelled"},
				{TimeSlot: "brunch", Status: "confirmed"},
			}, nil
		},
	}
	r := NewResolver(src, zerolog.Nop())

	res := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))

	assert.True(t, res.Taken("07:00 PM - 08:00 PM"))
	assert.False(t, res.Taken("09:00 AM - 10:00 AM"), "cancelled reservations do not block")
	assert.Len(t, res.Unavailable, 1, "unmatchable slot strings are dropped")
	assert.Equal(t, []string{"2026-09-05"}, src.dateCalls)
	assert.Zero(t, src.tableCalls)
	assert.Zero(t, src.allCalls)
}

func TestResolveFallsBackToTableScan(t *testing.T) {
	src := &fakeSource{
		byTableAndDate: func(_, _ string) ([]hotel.Reservation, error) {
			return nil, nil // the filter recognizes none of the encodings
		},
		byTable: func(string) ([]hotel.Reservation, error) {
			return []hotel.Reservation{
				{Date: "2026-09-05", TimeSlot: "12:00 PM - 01:00 PM", Status: "confirmed"},
				{Date: "2026-09-06", TimeSlot: "01:00 PM - 02:00 PM", Status: "confirmed"},
				{Date: "gibberish", TimeSlot: "02:00 PM - 03:00 PM", Status: "confirmed"},
			}, nil
		},
	}
	r := NewResolver(src, zerolog.Nop())

	res := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))

	assert.True(t, res.Taken("12:00 PM - 01:00 PM"))
	assert.False(t, res.Taken("01:00 PM - 02:00 PM"), "other days do not block")
	assert.Len(t, res.Unavailable, 1)
	assert.Len(t, src.dateCalls, 5, "every encoding tried before widening")
	assert.Equal(t, 1, src.tableCalls)
	assert.Zero(t, src.allCalls)
}

func TestResolveFallsBackToFullScan(t *testing.T) {
	src := &fakeSource{
		byTableAndDate: func(_, _ string) ([]hotel.Reservation, error) {
			return nil, errors.New("boom")
		},
		byTable: func(string) ([]hotel.Reservation, error) {
			return nil, errors.New("boom")
		},
		all: func() ([]hotel.Reservation, error) {
			return []hotel.Reservation{
				{TableID: "t1", Date: "2026-09-05T18:00:00.000Z", TimeSlot: "06:00 PM - 07:00 PM", Status: ""},
				{TableID: "t2", Date: "2026-09-05", TimeSlot: "07:00 PM - 08:00 PM", Status: ""},
			}, nil
		},
	}
	r := NewResolver(src, zerolog.Nop())

	res := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))

	assert.True(t, res.Taken("06:00 PM - 07:00 PM"))
	assert.False(t, res.Taken("07:00 PM - 08:00 PM"), "other tables do not block")
	assert.Equal(t, 1, src.allCalls)
}

func TestResolveTotalFailureMeansAllFree(t *testing.T) {
	src := &fakeSource{
		byTableAndDate: func(_, _ string) ([]hotel.Reservation, error) { return nil, errors.New("down") },
		byTable:        func(string) ([]hotel.Reservation, error) { return nil, errors.New("down") },
		all:            func() ([]hotel.Reservation, error) { return nil, errors.New("down") },
	}
	r := NewResolver(src, zerolog.Nop())

	res := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, res.Unavailable)
}

func TestLatest(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src, zerolog.Nop())

	first := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))
	assert.True(t, r.Latest(first.Gen))

	second := r.Resolve(context.Background(), "t1", time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC))
	assert.False(t, r.Latest(first.Gen), "an overlapping newer lookup wins")
	assert.True(t, r.Latest(second.Gen))
}
