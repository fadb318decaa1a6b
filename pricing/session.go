package pricing

import "time"

// Trading session names as tagged on ticks.
const (
	SessionPremarket  = "premarket"
	SessionRTH        = "rth"
	SessionAfterhours = "afterhours"
)

// SessionSpan is one trading session on a given date.
type SessionSpan struct {
	Name  string
	Start time.Time
	End   time.Time
}

// sessionClock holds a session's time-of-day bounds in seconds.
var sessionClock = []struct {
	name       string
	start, end int
}{
	{SessionPremarket, 4 * 3600, 9*3600 + 30*60},
	{SessionRTH, 9*3600 + 30*60, 16 * 3600},
	{SessionAfterhours, 16 * 3600, 20 * 3600},
}

// SessionBoundaries returns the session spans for the calendar date of
// the given time, in clock order.
func SessionBoundaries(date time.Time) []SessionSpan {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, date.Location())

	spans := make([]SessionSpan, 0, len(sessionClock))
	for _, s := range sessionClock {
		spans = append(spans, SessionSpan{
			Name:  s.name,
			Start: midnight.Add(time.Duration(s.start) * time.Second),
			End:   midnight.Add(time.Duration(s.end) * time.Second),
		})
	}
	return spans
}

// SessionAt names the session containing t. Times outside every session
// fall back to afterhours, matching how stored ticks are tagged.
func SessionAt(t time.Time) string {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	for _, s := range sessionClock {
		if secs >= s.start && secs < s.end {
			return s.name
		}
	}
	return SessionAfterhours
}
