package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter manages per-client request rates and daily quotas. Minute
// and hour limits use fixed windows that start with the first request
// after the previous window expired.
type RateLimiter struct {
	mu sync.RWMutex

	// Request rate limiting
	requestsPerMinute int
	requestsPerHour   int

	// Client quotas
	maxRequestsPerDay int
	maxDataPerDay     int64 // in bytes

	clients map[string]*ClientUsage
	now     func() time.Time
}

// ClientUsage tracks usage for a client address.
type ClientUsage struct {
	RequestsThisMinute int       `json:"requests_this_minute"`
	RequestsThisHour   int       `json:"requests_this_hour"`
	RequestsToday      int       `json:"requests_today"`
	DataToday          int64     `json:"data_today"`
	MinuteStart        time.Time `json:"minute_start"`
	HourStart          time.Time `json:"hour_start"`
	DayStart           time.Time `json:"day_start"`
}

// NewRateLimiter creates a rate limiter. A non-positive limit disables that check.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*ClientUsage),
		now:               time.Now,
	}
}

// CheckRateLimit records a request of dataSize bytes from client, or
// returns a *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) CheckRateLimit(client string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage := rl.usageFor(client, now)
	rollWindows(usage, now)

	if err := rl.checkRates(usage, now); err != nil {
		return err
	}
	if err := rl.checkDailyQuotas(usage, dataSize, now); err != nil {
		return err
	}

	usage.RequestsThisMinute++
	usage.RequestsThisHour++
	usage.RequestsToday++
	usage.DataToday += dataSize
	return nil
}

func rollWindows(usage *ClientUsage, now time.Time) {
	if now.Sub(usage.MinuteStart) >= time.Minute {
		usage.RequestsThisMinute = 0
		usage.MinuteStart = now
	}
	if now.Sub(usage.HourStart) >= time.Hour {
		usage.RequestsThisHour = 0
		usage.HourStart = now
	}
	if !sameDay(now, usage.DayStart) {
		usage.RequestsToday = 0
		usage.DataToday = 0
		usage.DayStart = now
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (rl *RateLimiter) checkRates(usage *ClientUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 && usage.RequestsThisMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: usage.MinuteStart.Add(time.Minute).Sub(now),
		}
	}
	if rl.requestsPerHour > 0 && usage.RequestsThisHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: usage.HourStart.Add(time.Hour).Sub(now),
		}
	}
	return nil
}

func (rl *RateLimiter) checkDailyQuotas(usage *ClientUsage, dataSize int64, now time.Time) error {
	resets := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	if rl.maxRequestsPerDay > 0 && usage.RequestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.RequestsToday),
			Resets: resets,
		}
	}
	if rl.maxDataPerDay > 0 && usage.DataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.DataToday,
			Resets: resets,
		}
	}
	return nil
}

func (rl *RateLimiter) usageFor(client string, now time.Time) *ClientUsage {
	usage, ok := rl.clients[client]
	if !ok {
		usage = &ClientUsage{MinuteStart: now, HourStart: now, DayStart: now}
		rl.clients[client] = usage
	}
	return usage
}

// GetUsage returns a copy of the usage recorded for client.
func (rl *RateLimiter) GetUsage(client string) ClientUsage {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if usage, ok := rl.clients[client]; ok {
		return *usage
	}
	return ClientUsage{}
}

// Prune forgets clients whose hour window started before cutoff.
func (rl *RateLimiter) Prune(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for client, usage := range rl.clients {
		if usage.HourStart.Before(cutoff) {
			delete(rl.clients, client)
			n++
		}
	}
	return n
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
