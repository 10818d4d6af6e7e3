package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Clock lets stores stamp records with an injectable time source.
type Clock func() time.Time

// OrDefault falls back to NowUTC for a nil clock.
func (c Clock) OrDefault() Clock {
	if c == nil {
		return NowUTC
	}
	return c
}
