package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesStateChanges(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	c := newTestClient(t, upstream)

	ch, cancel := c.Subscribe()
	defer cancel()

	loginManually(t, c)

	// 登录过程中至少发布一次已登录快照
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.LoggedIn {
				require.NotNil(t, snap.Profile)
				assert.Equal(t, "streamer", snap.Profile.Name)
				return
			}
		case <-deadline:
			t.Fatal("no logged-in snapshot received")
		}
	}
}

func TestSubscribe_CancelIsIdempotent(t *testing.T) {
	upstream := newFakeUpstream()
	c := newTestClient(t, upstream)

	ch, cancel := c.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}

func TestSnapshot_IsACopy(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	c := newTestClient(t, upstream)
	loginManually(t, c)

	snap := c.Snapshot()
	require.NotNil(t, snap.Profile)
	snap.Profile.Name = "mutated"

	// 修改快照不影响客户端内部状态
	assert.Equal(t, "streamer", c.Snapshot().Profile.Name)
}

func TestSubscribe_SlowConsumerDoesNotBlock(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.withLoggedInEndpoints()
	c := newTestClient(t, upstream)

	// 从不消费的订阅者
	_, cancel := c.Subscribe()
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := c.ManualLogin("98765", "SESSDATA=abc; bili_jct=deadbeef", "deadbeef"); err != nil {
			done <- err
			return
		}
		c.Logout()
		done <- c.ManualLogin("98765", "SESSDATA=abc; bili_jct=deadbeef", "deadbeef")
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
