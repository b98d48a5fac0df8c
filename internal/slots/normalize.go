package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	meridiemGlue = regexp.MustCompile(`(?i)(\d)(am|pm)`)
	meridiemWord = regexp.MustCompile(`(?i)\b(am|pm)\b`)
	dashRun      = regexp.MustCompile(`\s*[-–—]\s*`)
	spaceRun     = regexp.MustCompile(`\s+`)
	rangeShape   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))? (AM|PM) - (\d{1,2})(?::(\d{2}))? (AM|PM)$`)
)

// Normalize cleans a stored time-slot string into a form comparable with
// catalog values. The backend writes these by hand, so casing, spacing,
// dash characters and zero padding all drift; normalization is the one
// place that drift is absorbed. Idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = meridiemGlue.ReplaceAllString(s, "$1 $2")
	s = meridiemWord.ReplaceAllStringFunc(s, strings.ToUpper)
	s = dashRun.ReplaceAllString(s, " - ")
	s = spaceRun.ReplaceAllString(s, " ")

	if m := rangeShape.FindStringSubmatch(s); m != nil {
		s = renderHalf(m[1], m[2], m[3]) + " - " + renderHalf(m[4], m[5], m[6])
	}
	return s
}

func renderHalf(hour, minute, meridiem string) string {
	h, _ := strconv.Atoi(hour)
	if minute == "" {
		minute = "00"
	}
	return fmt.Sprintf("%02d:%s %s", h, minute, meridiem)
}
