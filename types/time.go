package types

import "time"

// Timestamp is a wire-safe representation of a point in time: seconds
// since the Unix epoch plus a nanosecond offset.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// TimeToTimestamp converts a time.Time to a Timestamp.
func TimeToTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Seconds: t.Unix(),
		Nanos:   int32(t.Nanosecond()),
	}
}

// ToTime converts a Timestamp to a time.Time (UTC).
func (ts Timestamp) ToTime() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Duration is a wire-safe time duration, stored as nanoseconds.
type Duration struct {
	Nanos int64 `json:"nanos"`
}

// DurationFromGo converts a time.Duration to a Duration.
func DurationFromGo(d time.Duration) Duration {
	return Duration{Nanos: d.Nanoseconds()}
}

// ToGo converts a Duration to a time.Duration.
func (d Duration) ToGo() time.Duration {
	return time.Duration(d.Nanos)
}
