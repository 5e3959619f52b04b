package clock

import "time"

// Zone is the fixed UTC-5 zone every fault timestamp is expressed in.
var Zone = time.FixedZone("UTC-5", -5*60*60)

// Clock is injected where tests need deterministic timestamps.
type Clock func() time.Time

// Now returns the current time in Zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

// In converts t to Zone.
func In(t time.Time) time.Time {
	return t.In(Zone)
}
