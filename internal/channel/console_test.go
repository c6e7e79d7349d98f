package channel

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopReader blocks nothing and delivers nothing, like an idle terminal.
type nopReader struct{}

func (nopReader) Read(_ []byte) (int, error) { return 0, nil }

// safeBuffer is a bytes.Buffer safe for concurrent writers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleDeliversMessages(t *testing.T) {
	out := &safeBuffer{}
	c := NewConsoleWith(strings.NewReader("build a widget\n"), out)

	received := make(chan InboundMessage, 1)
	c.OnMessage(func(msg InboundMessage) { received <- msg })

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	select {
	case msg := <-received:
		assert.Equal(t, "console", msg.ChannelName)
		assert.Equal(t, "build a widget", msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestConsoleSkipsBlankLines(t *testing.T) {
	out := &safeBuffer{}
	c := NewConsoleWith(strings.NewReader("\n\nhello\n"), out)

	received := make(chan InboundMessage, 4)
	c.OnMessage(func(msg InboundMessage) { received <- msg })

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
	assert.Empty(t, received)
}

func TestConsoleSendAndNotify(t *testing.T) {
	out := &safeBuffer{}
	c := NewConsoleWith(nopReader{}, out)

	require.NoError(t, c.Send(context.Background(), OutboundMessage{Text: "the answer"}))
	c.Notify("🔄 [1/4] UX working...")

	assert.Contains(t, out.String(), "the answer")
	assert.Contains(t, out.String(), "UX working")
}

func TestConsoleStartIdempotent(t *testing.T) {
	c := NewConsoleWith(nopReader{}, &safeBuffer{})

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.IsRunning())

	require.NoError(t, c.Stop(context.Background()))
	assert.False(t, c.IsRunning())
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	long := strings.Repeat("a", 15)
	chunks := splitMessage(long, 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, 10, len(chunks[0]))

	// Prefers a newline cut when one is close to the limit.
	text := strings.Repeat("b", 8) + "\n" + strings.Repeat("c", 8)
	chunks = splitMessage(text, 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("b", 8)+"\n", chunks[0])
	assert.Equal(t, strings.Repeat("c", 8), chunks[1])
}
