package utils

import "time"

// NowUTC returns current timestamp in UTC timezone.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatTimestamp renders t as UTC RFC 3339 with nanoseconds, the storage
// format for every persisted timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp reverses FormatTimestamp. Unparseable input yields the zero time.
func ParseTimestamp(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
