package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/example/table-booker/internal/db"
	"github.com/example/table-booker/internal/slots"
)

// Watch is a standing request to book a table slot the moment it is free:
// the scheduler re-checks availability during the attempt window and submits
// the booking when the wanted slot is no longer taken.
type Watch struct {
	ID     int64
	UserID int64
	Name   string

	BranchID      string
	TableID       string
	Date          time.Time
	TimeSlot      string // catalog Value
	CustomerName  string
	CustomerPhone string
	GuestCount    int
	Notes         string

	WindowStartAt time.Time
	WindowEndAt   time.Time
	IntervalSec   int

	Status        string
	LastAttemptAt *time.Time
	BookedAt      *time.Time
	LastError     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w Watch) NextAttemptAt(now time.Time) time.Time {
	if w.LastAttemptAt == nil {
		return w.WindowStartAt
	}
	return w.LastAttemptAt.Add(time.Duration(w.IntervalSec) * time.Second)
}

func (w Watch) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("name required")
	}
	if w.BranchID == "" {
		return fmt.Errorf("branch_id required")
	}
	if w.TableID == "" {
		return fmt.Errorf("table_id required")
	}
	if w.Date.IsZero() {
		return fmt.Errorf("reservation_date required")
	}
	if !slots.Valid(w.TimeSlot) {
		return fmt.Errorf("time_slot must be one of the catalog values")
	}
	if w.CustomerName == "" {
		return fmt.Errorf("customer_name required")
	}
	if w.CustomerPhone == "" {
		return fmt.Errorf("customer_phone required")
	}
	if w.GuestCount < 1 {
		return fmt.Errorf("guest_count must be >= 1")
	}
	if !w.WindowEndAt.After(w.WindowStartAt) {
		return fmt.Errorf("window_end_at must be after window_start_at")
	}
	if w.IntervalSec < 1 {
		return fmt.Errorf("interval_seconds must be >= 1")
	}
	return nil
}

const watchColumns = `id,user_id,name,branch_id,table_id,reservation_date,time_slot,customer_name,customer_phone,guest_count,notes,window_start_at,window_end_at,interval_seconds,status,last_attempt_at,booked_at,last_error,created_at,updated_at`

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, w Watch) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO watches(user_id,name,branch_id,table_id,reservation_date,time_slot,customer_name,customer_phone,guest_count,notes,window_start_at,window_end_at,interval_seconds,status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,'active')
RETURNING id`,
		w.UserID, w.Name, w.BranchID, w.TableID, w.Date, w.TimeSlot, w.CustomerName, w.CustomerPhone, w.GuestCount, w.Notes,
		w.WindowStartAt, w.WindowEndAt, w.IntervalSec,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Watch, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+watchColumns+`
FROM watches
WHERE user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *Repo) GetByIDForUser(ctx context.Context, id, userID int64) (Watch, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+watchColumns+`
FROM watches
WHERE id=$1 AND user_id=$2`, id, userID)
	w, err := scanOne(row)
	if err != nil {
		return Watch{}, db.WrapNotFound(err)
	}
	return w, nil
}

func (r *Repo) SetStatus(ctx context.Context, watchID int64, status string, lastErr *string) error {
	return r.db.Exec(ctx, `UPDATE watches SET status=$2, last_error=$3, updated_at=now() WHERE id=$1`, watchID, status, lastErr)
}

func (r *Repo) MarkAttempt(ctx context.Context, watchID int64, success bool, detail string, lastErr *string) error {
	if err := r.db.Exec(ctx, `INSERT INTO watch_attempts(watch_id, success, detail) VALUES ($1,$2,$3)`,
		watchID, success, detail); err != nil {
		return err
	}
	if success {
		return r.db.Exec(ctx, `UPDATE watches SET last_attempt_at=now(), booked_at=now(), status='booked', last_error=NULL, updated_at=now() WHERE id=$1`, watchID)
	}
	return r.db.Exec(ctx, `UPDATE watches SET last_attempt_at=now(), last_error=$2, updated_at=now() WHERE id=$1`, watchID, lastErr)
}

func (r *Repo) DueWatches(ctx context.Context, limit int) ([]Watch, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+watchColumns+`
FROM watches
WHERE status='active'
  AND now() >= window_start_at
  AND now() <= window_end_at
ORDER BY window_start_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

func scanAll(rows db.Rows) ([]Watch, error) {
	var out []Watch
	for rows.Next() {
		w, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanOne(row db.Row) (Watch, error) {
	var w Watch
	err := row.Scan(
		&w.ID, &w.UserID, &w.Name, &w.BranchID, &w.TableID, &w.Date, &w.TimeSlot,
		&w.CustomerName, &w.CustomerPhone, &w.GuestCount, &w.Notes,
		&w.WindowStartAt, &w.WindowEndAt, &w.IntervalSec, &w.Status,
		&w.LastAttemptAt, &w.BookedAt, &w.LastError, &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}
