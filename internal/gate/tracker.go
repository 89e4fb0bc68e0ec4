package gate

import (
	"strconv"
	"sync"

	"github.com/sendrec/videogate/internal/session"
)

const (
	AttemptsKey = "pin_attempts_v1"
	UnlockedKey = "unlocked_v1"
)

// Tracker counts failed unlock attempts in a session store.
type Tracker struct {
	mu    sync.Mutex
	store session.Store
}

func NewTracker(store session.Store) *Tracker {
	return &Tracker{store: store}
}

// Attempts returns the stored counter, or 0 when it is unset or unparseable.
func (t *Tracker) Attempts() int {
	v, ok := t.store.Get(AttemptsKey)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (t *Tracker) Increase() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.Attempts() + 1
	t.store.Set(AttemptsKey, strconv.Itoa(n))
	return n
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store.Delete(AttemptsKey)
}

func IsUnlocked(store session.Store) bool {
	v, ok := store.Get(UnlockedKey)
	return ok && v == "1"
}

func markUnlocked(store session.Store) {
	store.Set(UnlockedKey, "1")
}
