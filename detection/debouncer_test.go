package detection

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDebouncer(window time.Duration) (*Debouncer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDebouncer(window)
	d.now = clock.Now
	return d, clock
}

func TestDebouncerImmediateRepeat(t *testing.T) {
	d, _ := newTestDebouncer(time.Second)

	assert.True(t, d.IsNew("Pepsi"))
	assert.False(t, d.IsNew("Pepsi"))
	assert.True(t, d.IsNew("Sprite"))
}

func TestDebouncerWindowMeasuredFromAccepted(t *testing.T) {
	d, clock := newTestDebouncer(time.Second)

	assert.True(t, d.IsNew("Pepsi"))
	clock.Advance(600 * time.Millisecond)
	assert.False(t, d.IsNew("Pepsi"))
	// a suppressed call must not push the window forward
	clock.Advance(400 * time.Millisecond)
	assert.True(t, d.IsNew("Pepsi"))
}

func TestDebouncerClear(t *testing.T) {
	d, _ := newTestDebouncer(time.Second)

	assert.True(t, d.IsNew("Pepsi"))
	d.Clear()
	assert.True(t, d.IsNew("Pepsi"))
}

func TestDebouncerConcurrentCallers(t *testing.T) {
	d, _ := newTestDebouncer(time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.IsNew("CocaCola-Can") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

func TestLatestFrameOverwrites(t *testing.T) {
	var cell LatestFrame

	_, ok := cell.Load()
	assert.False(t, ok)

	now := time.Now()
	cell.Store([]byte("one"), "image/jpeg", now)
	cell.Store([]byte("two"), "image/jpeg", now)

	f, ok := cell.Load()
	assert.True(t, ok)
	assert.Equal(t, "two", string(f.Data))
	assert.Equal(t, uint64(2), f.Seq)

	f.Data[0] = 'x'
	again, _ := cell.Load()
	assert.Equal(t, "two", string(again.Data))
}
