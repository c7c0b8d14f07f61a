package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOrder(t *testing.T) {
	var b Bus[string]
	var got []string
	b.Subscribe(func(s string) { got = append(got, "a:"+s) })
	b.Subscribe(func(s string) { got = append(got, "b:"+s) })

	b.Publish("x")
	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	var b Bus[int]
	calls := 0
	unsub := b.Subscribe(func(int) { calls++ })
	other := b.Subscribe(func(int) {})

	b.Publish(1)
	unsub()
	unsub()
	b.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, b.Len())
	other()
	assert.Equal(t, 0, b.Len())
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	var b Bus[int]
	var unsub func()
	calls := 0
	unsub = b.Subscribe(func(int) {
		calls++
		unsub()
	})

	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, calls)
}
