// Package profile stores remote customer ids handed out by the reservation
// API, keyed by phone number. The submitter attaches a saved id to its full
// payload and records ids it had to create along the way.
package profile

import (
	"context"

	"github.com/example/table-booker/internal/db"
)

type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

func (s *Store) CustomerID(ctx context.Context, phone string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT customer_id FROM customer_profiles WHERE phone=$1`, phone).Scan(&id)
	if err != nil {
		return "", db.WrapNotFound(err)
	}
	return id, nil
}

func (s *Store) SaveCustomerID(ctx context.Context, phone, customerID string) error {
	return s.db.Exec(ctx, `
INSERT INTO customer_profiles(phone, customer_id)
VALUES ($1,$2)
ON CONFLICT (phone) DO UPDATE SET customer_id=EXCLUDED.customer_id, updated_at=now()`,
		phone, customerID)
}
