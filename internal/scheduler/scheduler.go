package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/table-booker/internal/booking"
	"github.com/example/table-booker/internal/slots"
	"github.com/example/table-booker/internal/watch"
)

// Scheduler polls for due watches and books their slot once the resolver
// stops reporting it as taken.
type Scheduler struct {
	Repo      *watch.Repo
	Resolver  *slots.Resolver
	Submitter *booking.Submitter
	Interval  time.Duration
	Log       zerolog.Logger

	wg sync.WaitGroup
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	ws, err := s.Repo.DueWatches(ctx, 25)
	if err != nil {
		s.Log.Error().Err(err).Msg("due watches query failed")
		return
	}

	now := time.Now()
	for _, w := range ws {
		if w.NextAttemptAt(now).After(now) {
			continue
		}

		w := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runAttempt(ctx, w)
		}()
	}
}

func (s *Scheduler) runAttempt(ctx context.Context, w watch.Watch) {
	res := s.Resolver.Resolve(ctx, w.TableID, w.Date)
	if res.Taken(w.TimeSlot) {
		msg := fmt.Sprintf("slot %s still booked", w.TimeSlot)
		_ = s.Repo.MarkAttempt(ctx, w.ID, false, "resolve", &msg)
		s.expireIfPastWindow(ctx, w)
		return
	}

	_, err := s.Submitter.Submit(ctx, booking.FormInput{
		CustomerName:    w.CustomerName,
		PhoneNumber:     w.CustomerPhone,
		NumberOfGuests:  w.GuestCount,
		BookingDate:     w.Date,
		TimeSlot:        w.TimeSlot,
		SpecialRequests: w.Notes,
		TableID:         w.TableID,
		BranchID:        w.BranchID,
	})
	if err == nil {
		s.Log.Info().Int64("watch", w.ID).Str("slot", w.TimeSlot).Msg("watch booked")
		_ = s.Repo.MarkAttempt(ctx, w.ID, true, "booked", nil)
		return
	}

	// Invalid input can never succeed on a retry; everything else gets
	// another attempt while the window is open.
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Error()
		_ = s.Repo.SetStatus(ctx, w.ID, "failed", &msg)
		return
	}

	msg := err.Error()
	_ = s.Repo.MarkAttempt(ctx, w.ID, false, "submit", &msg)
	s.expireIfPastWindow(ctx, w)
}

func (s *Scheduler) expireIfPastWindow(ctx context.Context, w watch.Watch) {
	if time.Now().After(w.WindowEndAt) {
		msg := "attempt window ended without success"
		_ = s.Repo.SetStatus(ctx, w.ID, "expired", &msg)
	}
}
