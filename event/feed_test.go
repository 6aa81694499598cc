package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedDeliversToAllSubscribers(t *testing.T) {
	var feed Feed[int]

	ch1 := make(chan int, 1)
	ch2 := make(chan int, 1)
	sub1 := feed.Subscribe(ch1)
	sub2 := feed.Subscribe(ch2)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	delivered := feed.Send(7)
	require.Equal(t, 2, delivered)
	require.Equal(t, 7, <-ch1)
	require.Equal(t, 7, <-ch2)
}

func TestFeedUnsubscribe(t *testing.T) {
	var feed Feed[string]

	ch := make(chan string, 1)
	sub := feed.Subscribe(ch)
	sub.Unsubscribe()

	require.Zero(t, feed.Send("gone"))

	// Err channel is closed on unsubscribe.
	_, open := <-sub.Err()
	require.False(t, open)

	// Unsubscribing twice is harmless.
	sub.Unsubscribe()
}

func TestFeedSkipsUnsubscribedDuringSend(t *testing.T) {
	var feed Feed[int]

	blocked := make(chan int) // no buffer, never read
	sub := feed.Subscribe(blocked)

	done := make(chan struct{})
	go func() {
		feed.Send(1)
		close(done)
	}()
	sub.Unsubscribe()
	<-done
}
