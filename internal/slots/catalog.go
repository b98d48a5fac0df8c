package slots

import (
	"fmt"
	"strings"
)

// Slot is one bookable hour. Value is the authoritative stored form, the
// only string a reservation's timeSlot is supposed to hold; Label is the
// unpadded form screens render.
type Slot struct {
	Value string
	Label string
}

// Catalog is the fixed set of bookable hours: one-hour slots starting 9:00 AM
// through 10:00 PM, fourteen in all.
var Catalog = buildCatalog()

func buildCatalog() []Slot {
	out := make([]Slot, 0, 14)
	for h := 9; h <= 22; h++ {
		out = append(out, Slot{
			Value: clockPadded(h) + " - " + clockPadded(h+1),
			Label: clock(h) + " - " + clock(h+1),
		})
	}
	return out
}

func clockPadded(h int) string {
	hh, mer := hour12(h)
	return fmt.Sprintf("%02d:00 %s", hh, mer)
}

func clock(h int) string {
	hh, mer := hour12(h)
	return fmt.Sprintf("%d:00 %s", hh, mer)
}

func hour12(h int) (int, string) {
	h = h % 24
	mer := "AM"
	if h >= 12 {
		mer = "PM"
	}
	hh := h % 12
	if hh == 0 {
		hh = 12
	}
	return hh, mer
}

// Valid reports whether value is a catalog Value verbatim.
func Valid(value string) bool {
	for _, s := range Catalog {
		if s.Value == value {
			return true
		}
	}
	return false
}

// Match maps a raw stored time-slot string onto a catalog Value: exact
// equality on the normalized form first, then a case-insensitive comparison
// with all whitespace stripped. The catalog Value, never the raw string, is
// what gets reported.
func Match(raw string) (string, bool) {
	n := Normalize(raw)
	for _, s := range Catalog {
		if n == s.Value {
			return s.Value, true
		}
	}
	sq := squash(n)
	for _, s := range Catalog {
		if sq == squash(s.Value) {
			return s.Value, true
		}
	}
	return "", false
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
