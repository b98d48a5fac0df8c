package hotel

import (
	"encoding/json"
	"strings"
	"time"
)

type Branch struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Table struct {
	ID       string `json:"_id"`
	Number   FlexID `json:"number"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

// Reservation is owned by the backend and read-only here. Its timeSlot is
// free text and its reservationDate arrives in whatever format the writer
// happened to use; both are reconciled by the caller, not trusted.
type Reservation struct {
	ID       FlexID `json:"_id"`
	TableID  FlexID `json:"tableId"`
	Date     string `json:"reservationDate"`
	TimeSlot string `json:"timeSlot"`
	Status   string `json:"status"`
}

func (r Reservation) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "cancelled")
}

// Customer is the /customer creation response. The backend answers with
// either _id or id depending on the code path that served the request.
type Customer struct {
	ID    FlexID `json:"_id"`
	AltID FlexID `json:"id"`
}

func (c Customer) CustomerID() string {
	if c.ID != "" {
		return string(c.ID)
	}
	return string(c.AltID)
}

// FlexID decodes an id field the backend serializes inconsistently: a plain
// string, an embedded object carrying _id, or a bare number. Unknown shapes
// decode to the empty string rather than failing the whole document.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var obj struct {
		ID FlexID `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && obj.ID != "" {
		*f = obj.ID
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}
	*f = ""
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// ParseDate parses a stored reservationDate against the formats the backend
// is known to emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameDay compares year, month and day only.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
