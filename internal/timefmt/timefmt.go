package timefmt

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Placeholder is rendered for empty values.
const Placeholder = "—"

// DisplayLayout mirrors a short date with a medium time: 17/11/25, 13:16:42
const DisplayLayout = "02/01/06, 15:04:05"

var zoneSuffix = regexp.MustCompile(`([zZ]|[+\-]\d{2}:?\d{2})$`)

// Parse reads a backend timestamp. Timestamps without a zone offset are UTC by
// construction, so a Z is appended before parsing.
func Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if !strings.Contains(s, "T") && strings.Contains(s, " ") {
		s = strings.Replace(s, " ", "T", 1)
	}
	if !zoneSuffix.MatchString(s) {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// offsets written without a colon (+0600)
		t, err = time.Parse("2006-01-02T15:04:05.999999999Z0700", s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t.UTC(), true
}

// Formatter renders timestamps in a fixed display zone.
type Formatter struct {
	Location *time.Location
	Layout   string
}

// NewFormatter loads the named zone. Unknown zones fall back to UTC and are reported.
func NewFormatter(zone string) (Formatter, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Formatter{Location: time.UTC, Layout: DisplayLayout}, err
	}
	return Formatter{Location: loc, Layout: DisplayLayout}, nil
}

// Format renders raw in the display zone. Malformed input is returned unmodified.
func (f Formatter) Format(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return Placeholder
	}
	t, ok := Parse(raw)
	if !ok {
		return raw
	}
	return f.FormatTime(t)
}

// FormatTime renders t in the display zone.
func (f Formatter) FormatTime(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := f.Layout
	if layout == "" {
		layout = DisplayLayout
	}
	return t.In(loc).Format(layout)
}
