// Package ratelimit throttles login attempts and API requests per client.
//
// Both limiters keep their state in bounded, expiring LRU tables so that a
// flood of distinct client identifiers cannot grow memory without bound.
// State is process local; nothing is shared between replicas.
package ratelimit

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultLoginAttempts   = 5
	DefaultLoginWindow     = time.Minute
	DefaultLoginMaxClients = 500
)

type Decision int

const (
	Allowed Decision = iota
	Denied
)

func (d Decision) String() string {
	if d == Denied {
		return "denied"
	}
	return "allowed"
}

type attempt struct {
	count       int
	lastAttempt time.Time
}

// LoginLimiter is a fixed-threshold attempt counter. A client is denied once
// it has made threshold attempts and its last attempt is less than one window
// old. Every call is counted, including denied ones, and refreshes the
// last-attempt timestamp.
//
// The read-modify-write in Admit is not atomic across goroutines; concurrent
// attempts from one client may undercount slightly.
type LoginLimiter struct {
	entries   *expirable.LRU[string, attempt]
	threshold int
	window    time.Duration
	now       func() time.Time
}

func NewLoginLimiter(threshold int, window time.Duration, maxClients int) *LoginLimiter {
	if threshold <= 0 {
		threshold = DefaultLoginAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	if maxClients <= 0 {
		maxClients = DefaultLoginMaxClients
	}
	return &LoginLimiter{
		entries:   expirable.NewLRU[string, attempt](maxClients, nil, window),
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// Admit records an attempt by clientID and reports whether it may proceed.
func (l *LoginLimiter) Admit(clientID string) Decision {
	now := l.now()

	entry, ok := l.entries.Get(clientID)
	if !ok || now.Sub(entry.lastAttempt) >= l.window {
		entry = attempt{}
	}

	decision := Allowed
	if entry.count >= l.threshold {
		decision = Denied
	} else {
		entry.count++
	}
	entry.lastAttempt = now
	l.entries.Add(clientID, entry)

	return decision
}

// Tracked returns the number of client identifiers currently held.
func (l *LoginLimiter) Tracked() int {
	return l.entries.Len()
}
