package pricing

import (
	"fmt"
	"strconv"
	"time"
)

// ParseInterval parses a bar interval token like "1s", "1m", "5m" or
// "4h" into a duration. The token is <integer><s|m|h>.
func ParseInterval(tok string) (time.Duration, error) {
	if len(tok) < 2 {
		return 0, fmt.Errorf("bad interval %q", tok)
	}
	n, err := strconv.Atoi(tok[:len(tok)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad interval %q", tok)
	}
	switch tok[len(tok)-1] {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	}
	return 0, fmt.Errorf("bad interval %q: unit must be s, m or h", tok)
}

// Bucket truncates t to the start of its interval bucket. Buckets are
// anchored to midnight, not to the first observed tick, so boundaries
// are stable and reproducible across restarts.
func Bucket(t time.Time, interval time.Duration) time.Time {
	iv := int64(interval / time.Second)
	if iv <= 0 {
		iv = 60
	}
	secs := int64(t.Hour())*3600 + int64(t.Minute())*60 + int64(t.Second())
	secs = secs / iv * iv
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.Add(time.Duration(secs) * time.Second)
}
