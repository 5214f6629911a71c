package signal

import (
	"sync"
	"time"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

// RoomRateLimiter caps how often a single user may attempt to enter
// rooms. A reconnect loop gone wrong on the patient dashboard should
// not hammer the directory.
type RoomRateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration

	// attempts per user, oldest first; expired entries are shed on the
	// next call so a user never holds more than limit timestamps.
	attempts map[domain.UserID][]time.Time
}

func NewRoomRateLimiter(limit int, window time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[domain.UserID][]time.Time),
	}
}

// Allow records one join attempt and reports whether it is within the
// user's budget for the current window.
func (rl *RoomRateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	log := rl.attempts[uid]
	expired := 0
	for expired < len(log) && !log[expired].After(cutoff) {
		expired++
	}
	log = log[expired:]

	if len(log) >= rl.limit {
		rl.attempts[uid] = log
		return false
	}
	rl.attempts[uid] = append(log, now)
	return true
}
