package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/table-booker/internal/hotel"
	"github.com/example/table-booker/internal/metrics"
)

// FormInput is the user-entered booking form, validated before any request.
type FormInput struct {
	CustomerName    string
	PhoneNumber     string
	NumberOfGuests  int
	BookingDate     time.Time
	TimeSlot        string
	SpecialRequests string
	TableID         string
	BranchID        string

	// CustomerID is the remote customer id when the caller already knows it;
	// when empty the directory is consulted.
	CustomerID string
}

// API is the slice of the hotel client the submitter consumes.
type API interface {
	ReservationsByTableAndDate(ctx context.Context, tableID, date string) ([]hotel.Reservation, error)
	CreateReservation(ctx context.Context, payload map[string]any) (*hotel.Reservation, error)
	CreateCustomer(ctx context.Context, name, phone, email string) (string, error)
}

// CustomerDirectory remembers remote customer ids between sessions. Both
// methods are best-effort from the submitter's point of view.
type CustomerDirectory interface {
	CustomerID(ctx context.Context, phone string) (string, error)
	SaveCustomerID(ctx context.Context, phone, customerID string) error
}

// Submitter creates reservations by trying progressively simplified and
// renamed payloads until the backend accepts one. The backend's accepted
// body shape is inconsistent across deployments; the ladder is ordered and
// stops at the first 2xx.
type Submitter struct {
	api API
	dir CustomerDirectory // optional
	log zerolog.Logger
}

func NewSubmitter(api API, dir CustomerDirectory, log zerolog.Logger) *Submitter {
	return &Submitter{api: api, dir: dir, log: log}
}

func (s *Submitter) Submit(ctx context.Context, input FormInput) (*hotel.Reservation, error) {
	name := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.PhoneNumber)
	slot := strings.TrimSpace(input.TimeSlot)

	switch {
	case name == "":
		return nil, &ValidationError{Message: "customer name is required"}
	case phone == "":
		return nil, &ValidationError{Message: "phone number is required"}
	case slot == "":
		return nil, &ValidationError{Message: "a time slot must be selected"}
	case input.TableID == "":
		return nil, &ValidationError{Message: "a table must be selected"}
	case input.BranchID == "":
		return nil, &ValidationError{Message: "a branch must be selected"}
	}

	dateStr := input.BookingDate.Format("2006-01-02")

	if err := s.precheck(ctx, input.TableID, dateStr, slot, input.BookingDate); err != nil {
		return nil, err
	}

	customerID := input.CustomerID
	if customerID == "" && s.dir != nil {
		if id, err := s.dir.CustomerID(ctx, phone); err == nil {
			customerID = id
		}
	}

	full := map[string]any{
		"tableId":         input.TableID,
		"branchId":        input.BranchID,
		"customerName":    name,
		"customerPhone":   phone,
		"guestCount":      input.NumberOfGuests,
		"reservationDate": dateStr,
		"timeSlot":        slot,
		"status":          "confirmed",
		"notes":           input.SpecialRequests,
		"customerEmail":   "",
	}
	if customerID != "" {
		full["customerId"] = customerID
	}

	rec, err := s.attempt(ctx, "full", full)
	if err == nil {
		return rec, nil
	}
	lastErr := err

	// A 404 naming the customer means the id we attached does not exist on
	// the server; the same payload without it has a chance.
	if unknownCustomer(lastErr) {
		trimmed := clonePayload(full)
		delete(trimmed, "customerId")
		delete(trimmed, "customerEmail")
		rec, err = s.attempt(ctx, "no-customer", trimmed)
		if err == nil {
			return rec, nil
		}
		lastErr = err
	}

	minimal := map[string]any{
		"tableId":         input.TableID,
		"branchId":        input.BranchID,
		"customerName":    name,
		"customerPhone":   phone,
		"guestCount":      input.NumberOfGuests,
		"reservationDate": dateStr,
		"timeSlot":        slot,
		"status":          "confirmed",
	}
	rec, err = s.attempt(ctx, "minimal", minimal)
	if err == nil {
		return rec, nil
	}
	lastErr = err

	alt := map[string]any{
		"tableId":  input.TableID,
		"branchId": input.BranchID,
		"name":     name,
		"phone":    phone,
		"guests":   input.NumberOfGuests,
		"date":     dateStr,
		"time":     slot,
		"status":   "confirmed",
		"notes":    input.SpecialRequests,
	}
	rec, err = s.attempt(ctx, "alt-names", alt)
	if err == nil {
		return rec, nil
	}
	lastErr = err

	// Last resort: register the customer, then replay the full payload with
	// the fresh id. A failed registration ends the ladder.
	newID, cerr := s.api.CreateCustomer(ctx, name, phone, "")
	if cerr != nil {
		s.log.Debug().Err(cerr).Msg("customer creation failed, giving up")
		return nil, &FailedError{Message: failureText(cerr)}
	}
	if s.dir != nil {
		_ = s.dir.SaveCustomerID(ctx, phone, newID)
	}
	retry := clonePayload(full)
	retry["customerId"] = newID
	rec, err = s.attempt(ctx, "full-new-customer", retry)
	if err == nil {
		return rec, nil
	}
	return nil, &FailedError{Message: failureText(err)}
}

// precheck fails fast when a non-cancelled reservation holds exactly the
// requested slot string. Exact match only: deliberately weaker than the
// resolver's fuzzy matching, preserving observed behavior. A failed lookup
// does not block submission.
func (s *Submitter) precheck(ctx context.Context, tableID, dateStr, slot string, date time.Time) error {
	recs, err := s.api.ReservationsByTableAndDate(ctx, tableID, dateStr)
	if err != nil {
		s.log.Debug().Str("table", tableID).Err(err).Msg("conflict pre-check lookup failed")
		return nil
	}
	for _, rec := range recs {
		if rec.Cancelled() {
			continue
		}
		if rec.TimeSlot == slot {
			return &SlotConflictError{TableID: tableID, Slot: slot, Date: date}
		}
	}
	return nil
}

func (s *Submitter) attempt(ctx context.Context, variant string, payload map[string]any) (*hotel.Reservation, error) {
	rec, err := s.api.CreateReservation(ctx, payload)
	if err != nil {
		metrics.BookingAttempts.WithLabelValues(variant, "fail").Inc()
		s.log.Debug().Str("variant", variant).Err(err).Msg("submission variant rejected")
		return nil, err
	}
	metrics.BookingAttempts.WithLabelValues(variant, "ok").Inc()
	return rec, nil
}

func unknownCustomer(err error) bool {
	var apiErr *hotel.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 404 {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "customer") || strings.Contains(msg, "not found")
}

func failureText(err error) string {
	var apiErr *hotel.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func clonePayload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
