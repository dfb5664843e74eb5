package cooldown

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int64) time.Time {
	return time.UnixMilli(n)
}

func TestCooldownWindow(t *testing.T) {
	r := New(DefaultTTL)
	key := "u1:s1:repeat"

	v := r.PingTTL(key, ms(1000), 10*time.Second)
	assert.False(t, v.Suppressed)

	v = r.Ping(key, ms(1500))
	assert.True(t, v.Suppressed)
	assert.Equal(t, 9500*time.Millisecond, v.Remaining)

	r.Clear(key)
	v = r.Ping(key, ms(2000))
	assert.False(t, v.Suppressed)
}

func TestPingWhileActiveDoesNotExtend(t *testing.T) {
	r := New(time.Second)
	r.Ping("k", ms(0))

	assert.True(t, r.Ping("k", ms(900)).Suppressed)
	v := r.Ping("k", ms(999))
	assert.True(t, v.Suppressed)
	assert.Equal(t, time.Millisecond, v.Remaining)

	// Window ends exactly at now+ttl.
	assert.False(t, r.Ping("k", ms(1000)).Suppressed)
	assert.True(t, r.Ping("k", ms(1001)).Suppressed)
}

func TestExpiryIsLazy(t *testing.T) {
	r := New(time.Second)
	r.Ping("a", ms(0))
	r.Ping("b", ms(0))

	// Nothing sweeps expired entries.
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Ping("a", ms(5000)).Suppressed)
	assert.Equal(t, 2, r.Len())
}

func TestKeysAreIndependent(t *testing.T) {
	r := New(time.Minute)
	assert.False(t, r.Ping("u1:anna:interject", ms(0)).Suppressed)
	assert.False(t, r.Ping("u1:bo:interject", ms(0)).Suppressed)
	assert.True(t, r.Ping("u1:anna:interject", ms(10)).Suppressed)
}

func TestCustomTTL(t *testing.T) {
	r := New(time.Hour)
	r.PingTTL("k", ms(0), 100*time.Millisecond)
	assert.False(t, r.Ping("k", ms(100)).Suppressed)

	// Non-positive TTL falls back to the default.
	r.PingTTL("z", ms(0), 0)
	v := r.Ping("z", ms(1000))
	assert.True(t, v.Suppressed)
	assert.Equal(t, time.Hour-time.Second, v.Remaining)
}

func TestReset(t *testing.T) {
	r := New(0)
	assert.Equal(t, DefaultTTL, r.DefaultTTL())
	for i := 0; i < 5; i++ {
		r.Ping(fmt.Sprintf("k%d", i), ms(0))
	}
	r.Reset()
	assert.Zero(t, r.Len())
	assert.False(t, r.Ping("k0", ms(1)).Suppressed)
}

func TestConcurrentPingOpensOneWindow(t *testing.T) {
	r := New(time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	unsuppressed := 0
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !r.Ping("shared", ms(0)).Suppressed {
				mu.Lock()
				unsuppressed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, unsuppressed)
}

func TestVerdictJSON(t *testing.T) {
	r := New(DefaultTTL)
	r.Ping("k", ms(0))

	b, err := json.Marshal(r.Ping("k", ms(1500)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"suppressed":true,"ttl_remaining_ms":8500}`, string(b))

	b, err = json.Marshal(Verdict{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"suppressed":false,"ttl_remaining_ms":0}`, string(b))
}
