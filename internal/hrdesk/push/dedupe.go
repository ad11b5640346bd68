package push

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
)

const (
	DefaultIDTTL  = 10 * time.Minute
	DefaultKeyTTL = 30 * time.Second

	dedupeSize = 1024
)

// Deduper remembers which login events were already seen. Explicit event
// ids are kept for idTTL, the eventType:email fallback only for keyTTL so a
// later login by the same user still goes through.
type Deduper struct {
	mu   sync.Mutex
	ids  *expirable.LRU[string, struct{}]
	keys *expirable.LRU[string, struct{}]
}

func NewDeduper(idTTL, keyTTL time.Duration) *Deduper {
	return &Deduper{
		ids:  expirable.NewLRU[string, struct{}](dedupeSize, nil, idTTL),
		keys: expirable.NewLRU[string, struct{}](dedupeSize, nil, keyTTL),
	}
}

// FirstSeen records ev and reports whether it had not been seen before.
func (d *Deduper) FirstSeen(ev domain.LoginEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cache := d.keys
	if ev.HasExplicitID() {
		cache = d.ids
	}

	key := ev.DedupeKey()
	// Get checks expiry, Contains doesn't
	if _, ok := cache.Get(key); ok {
		return false
	}
	cache.Add(key, struct{}{})
	return true
}
