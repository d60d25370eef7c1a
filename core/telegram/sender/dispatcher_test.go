package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/fuelbot/core/logger"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, QueueSize: 32})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 10; i++ {
		for _, chat := range []int64{1, 2, 3, -4} {
			chat, i := chat, i
			require.NoError(t, d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				defer mu.Unlock()
				got[chat] = append(got[chat], i)
				return nil
			}))
		}
	}
	d.Close()

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, chat := range []int64{1, 2, 3, -4} {
		assert.Equal(t, want, got[chat], fmt.Sprintf("chat %d", chat))
	}
	assert.EqualValues(t, 40, d.SentCount())
}

func TestDispatcherDoRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	calls := 0
	err := d.Do(chatCtx(7), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDispatcherDoReturnsPermanentError(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	defer d.Close()

	boom := errors.New("bad request")
	calls := 0
	err := d.Do(chatCtx(7), "send.text", "sendMessage", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(chatCtx(1), "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestRetryDelayHonoursFloodControl(t *testing.T) {
	delay, ok := retryDelay(tele.FloodError{RetryAfter: 3}, time.Second, 1)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, delay)

	_, ok = retryDelay(errors.New("nope"), time.Second, 1)
	assert.False(t, ok)
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": timeout`)
	assert.NotContains(t, sanitizeErrorMessage(err), "ABC-def")
}
