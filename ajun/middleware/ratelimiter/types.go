package ratelimiter

import "time"

// ClientData is the per-client window. Key is a client IP or an API key.
type ClientData struct {
	Count        int       `json:"count"`
	WindowStart  time.Time `json:"window_start"`
	Time         time.Time `json:"time"`
	DisableUntil time.Time `json:"disable_until"`
}

func (d *ClientData) blocked(now time.Time) bool {
	return d.DisableUntil.After(now)
}

func (d *ClientData) idle(now time.Time, ttl time.Duration) bool {
	return !d.blocked(now) && now.Sub(d.Time) > ttl
}
