package util

import "time"

// FromUnix converts provider epoch seconds to a UTC time.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FromUnixPtr is FromUnix for optional timestamps; zero means absent.
func FromUnixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := FromUnix(sec)
	return &t
}
