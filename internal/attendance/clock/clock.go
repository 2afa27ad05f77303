// Package clock is the single source of "now" the attendance and
// payroll engines consult. All window arithmetic runs in a fixed
// office timezone so engine behavior never depends on the host
// machine's local time.
package clock

import "time"

var (
	checkInCutoff   = mustParseClock("09:05:00")
	checkoutBlockLo = mustParseClock("16:00:00")
	checkoutBlockHi = mustParseClock("17:25:00")
)

// Oracle is the only source of "now" the engines are allowed to use.
// Implementations must be injectable so tests can fix the instant.
type Oracle interface {
	Now() time.Time
	Today() string
	CheckInAllowed() bool
	CheckOutAllowed() bool
}

// Office is the production Oracle, pinned to a single IANA timezone
// (default Asia/Kolkata, UTC+5:30).
type Office struct {
	loc *time.Location
}

// New loads the named timezone and returns an Office oracle. Fails
// fast at startup if the zone can't be loaded.
func New(timezone string) (*Office, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Office{loc: loc}, nil
}

// Now returns the current wall time in the office timezone.
func (o *Office) Now() time.Time {
	return time.Now().In(o.loc)
}

// Today returns the current calendar date (YYYY-MM-DD) in the office timezone.
func (o *Office) Today() string {
	return o.Now().Format("2006-01-02")
}

// CheckInAllowed reports whether the current local time is on or
// before 09:05:00.
func (o *Office) CheckInAllowed() bool {
	return timeOfDay(o.Now()) <= checkInCutoff
}

// CheckOutAllowed reports whether the current local time falls outside
// the closed [16:00:00, 17:25:00] window.
func (o *Office) CheckOutAllowed() bool {
	t := timeOfDay(o.Now())
	return t < checkoutBlockLo || t > checkoutBlockHi
}

// timeOfDay returns seconds since local midnight, so clock-of-day
// comparisons don't need to carry the calendar date around.
func timeOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}

func mustParseClock(hms string) int {
	t, err := time.Parse("15:04:05", hms)
	if err != nil {
		panic(err)
	}
	return timeOfDay(t)
}
