package slots

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/table-booker/internal/hotel"
	"github.com/example/table-booker/internal/metrics"
)

// ReservationSource is the slice of the API client the resolver consumes.
type ReservationSource interface {
	ReservationsByTableAndDate(ctx context.Context, tableID, date string) ([]hotel.Reservation, error)
	ReservationsByTable(ctx context.Context, tableID string) ([]hotel.Reservation, error)
	AllReservations(ctx context.Context) ([]hotel.Reservation, error)
}

// Result is one availability answer. Gen identifies the Resolve call that
// produced it; callers holding shared state apply a Result only while
// Latest(Gen) still holds, so an overlapping newer lookup wins.
type Result struct {
	Unavailable map[string]bool
	Gen         uint64
}

func (r Result) Taken(value string) bool { return r.Unavailable[value] }

// Resolver computes which catalog slots are already booked for a table and
// date. It never returns an error: any failure in the ladder means "no data
// at this tier, try the next", and total failure degrades to an empty set.
type Resolver struct {
	src ReservationSource
	log zerolog.Logger
	gen atomic.Uint64
}

func NewResolver(src ReservationSource, log zerolog.Logger) *Resolver {
	return &Resolver{src: src, log: log}
}

// DateEncodings is the ordered list of date strings the backend has been
// observed to accept in its date filter. The backend's format is not under
// our control; the ladder exists purely to tolerate that.
func DateEncodings(date time.Time) []string {
	return []string{
		date.Format("2006-01-02"),
		date.Format("1/2/2006"),
		date.Format("2/1/2006"),
		date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		fmt.Sprintf("%04d-%02d-%02d", date.Year(), int(date.Month()), date.Day()),
	}
}

func (r *Resolver) Resolve(ctx context.Context, tableID string, date time.Time) Result {
	gen := r.gen.Add(1)

	unavailable := make(map[string]bool)
	for _, rec := range r.fetch(ctx, tableID, date) {
		if rec.Cancelled() {
			continue
		}
		if value, ok := Match(rec.TimeSlot); ok {
			unavailable[value] = true
		}
	}
	return Result{Unavailable: unavailable, Gen: gen}
}

// Latest reports whether gen is still the newest Resolve issued.
func (r *Resolver) Latest(gen uint64) bool { return r.gen.Load() == gen }

type tier struct {
	name string
	run  func(ctx context.Context) []hotel.Reservation
}

// fetch walks the fallback ladder: a strict ordered search stopping at the
// first tier that yields reservations, never a merge across tiers.
func (r *Resolver) fetch(ctx context.Context, tableID string, date time.Time) []hotel.Reservation {
	for _, t := range r.tiers(tableID, date) {
		recs := t.run(ctx)
		if len(recs) > 0 {
			metrics.ResolverFallbacks.WithLabelValues(t.name).Inc()
			return recs
		}
	}
	metrics.ResolverFallbacks.WithLabelValues("none").Inc()
	return nil
}

func (r *Resolver) tiers(tableID string, date time.Time) []tier {
	var out []tier
	for _, enc := range DateEncodings(date) {
		enc := enc
		out = append(out, tier{
			name: "date-filter",
			run: func(ctx context.Context) []hotel.Reservation {
				recs, err := r.src.ReservationsByTableAndDate(ctx, tableID, enc)
				if err != nil {
					r.log.Debug().Str("table", tableID).Str("date", enc).Err(err).Msg("date-filtered query failed")
					return nil
				}
				return recs
			},
		})
	}

	out = append(out, tier{
		name: "table-scan",
		run: func(ctx context.Context) []hotel.Reservation {
			recs, err := r.src.ReservationsByTable(ctx, tableID)
			if err != nil {
				r.log.Debug().Str("table", tableID).Err(err).Msg("table query failed")
				return nil
			}
			return filterByDate(recs, date)
		},
	})

	out = append(out, tier{
		name: "full-scan",
		run: func(ctx context.Context) []hotel.Reservation {
			recs, err := r.src.AllReservations(ctx)
			if err != nil {
				r.log.Debug().Err(err).Msg("full reservation query failed")
				return nil
			}
			var kept []hotel.Reservation
			for _, rec := range recs {
				if string(rec.TableID) != tableID {
					continue
				}
				kept = append(kept, rec)
			}
			return filterByDate(kept, date)
		},
	})
	return out
}

func filterByDate(recs []hotel.Reservation, date time.Time) []hotel.Reservation {
	var out []hotel.Reservation
	for _, rec := range recs {
		t, ok := hotel.ParseDate(rec.Date)
		if !ok {
			continue
		}
		if hotel.SameDay(t, date) {
			out = append(out, rec)
		}
	}
	return out
}
