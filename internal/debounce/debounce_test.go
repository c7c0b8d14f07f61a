package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) fire(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestCoalescesBurst(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.fire)
	defer d.Stop()

	for range 5 {
		d.Add("a.md")
	}
	d.Add("b.md")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.md", "b.md"}, batches[0])
	assert.Equal(t, 0, d.Pending())
}

func TestRemoveDropsPending(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.fire)
	defer d.Stop()

	d.Add("a.md")
	d.Add("b.md")
	d.Remove("a.md")
	d.Flush()

	assert.Equal(t, [][]string{{"b.md"}}, rec.snapshot())
}

func TestFlushWithNothingPendingDoesNotFire(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.fire)
	d.Flush()
	assert.Empty(t, rec.snapshot())
}

func TestStopCancelsTimer(t *testing.T) {
	rec := &recorder{}
	d := New(10*time.Millisecond, rec.fire)
	d.Add("a.md")
	d.Stop()
	d.Add("b.md")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 0, d.Pending())
}

func TestDefaultDelay(t *testing.T) {
	d := New(0, func([]string) {})
	assert.Equal(t, DefaultDelay, d.delay)
}
