package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the display format of article timestamps.
const TimestampLayout = "2006.01.02. 15:04"

var clockExpr = regexp.MustCompile(`(\d{4})[.\-](\d{1,2})[.\-](\d{1,2})\.?\s*(오전|오후|AM|PM|am|pm)?\s*(\d{1,2}):(\d{2})`)

var isoLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// Timestamp converts a detail-page date string into TimestampLayout.
// A 12-hour clock with an afternoon marker gains 12 hours.
func Timestamp(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty timestamp")
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(TimestampLayout), nil
		}
	}

	m := clockExpr.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("unrecognized timestamp %q", raw)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])

	switch strings.ToUpper(m[4]) {
	case "오후", "PM":
		if hour < 12 {
			hour += 12
		}
	case "오전", "AM":
		if hour == 12 {
			hour = 0
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return "", fmt.Errorf("timestamp out of range %q", raw)
	}

	return fmt.Sprintf("%04d.%02d.%02d. %02d:%02d", year, month, day, hour, minute), nil
}
