package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timeOfDayRe matches "at H", "at H:MM", "at Hpm", "at H:MM am".
var timeOfDayRe = regexp.MustCompile(`(?i)at (\d{1,2})(:(\d{2}))? ?(am|pm)?`)

// Resolve turns a relative temporal expression into an absolute instant.
//
// Rules are checked in order and the first match wins:
//
//	"today"    -> reference itself
//	"tomorrow" -> reference + 24h
//	"at 3pm"   -> that time of day on reference's date, rolled forward 24h if already past
//
// The second return value is false when nothing matched.
func Resolve(text string, reference time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "today") {
		return reference, true
	}
	if strings.Contains(lower, "tomorrow") {
		return reference.Add(24 * time.Hour), true
	}

	m := timeOfDayRe.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[3] != "" {
		minute, _ = strconv.Atoi(m[3])
	}

	switch m[4] {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	y, mo, d := reference.Date()
	at := time.Date(y, mo, d, hour, minute, 0, 0, reference.Location())
	if at.Before(reference) {
		at = at.Add(24 * time.Hour)
	}

	return at, true
}
