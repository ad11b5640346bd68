package push_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/push"
)

func TestDeduperByEventID(t *testing.T) {
	d := push.NewDeduper(push.DefaultIDTTL, push.DefaultKeyTTL)

	ev := domain.LoginEvent{EventType: "Login", EventID: "evt-1", Data: domain.LoginEventData{Email: "ana@uni.edu"}}
	require.True(t, d.FirstSeen(ev))
	require.False(t, d.FirstSeen(ev))

	// Same user, new id, is a new login
	ev2 := ev
	ev2.EventID = "evt-2"
	require.True(t, d.FirstSeen(ev2))
}

func TestDeduperCompositeKeyWindow(t *testing.T) {
	d := push.NewDeduper(time.Hour, 50*time.Millisecond)

	ev := domain.LoginEvent{EventType: "Login", Data: domain.LoginEventData{Email: "Ana@Uni.edu"}}
	require.True(t, d.FirstSeen(ev))

	dup := ev
	dup.Data.Email = "ana@uni.edu"
	require.False(t, d.FirstSeen(dup), "email compared case-insensitively")

	time.Sleep(120 * time.Millisecond)
	require.True(t, d.FirstSeen(ev), "composite keys expire")
}

func TestDeduperConcurrentRepeats(t *testing.T) {
	d := push.NewDeduper(push.DefaultIDTTL, push.DefaultKeyTTL)

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := domain.LoginEvent{EventType: "Login", EventID: fmt.Sprintf("evt-%d", i%5)}
			if d.FirstSeen(ev) {
				firsts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(5), firsts.Load())
}
