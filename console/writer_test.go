package console

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriterDelivers(t *testing.T) {
	out := &syncBuffer{}
	w := newWriter(out, 16)

	n, err := w.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = w.Write([]byte("world"))

	assert.Eventually(t, func() bool {
		return out.String() == "hello world"
	}, time.Second, time.Millisecond)
}

type blockingWriter struct {
	release chan struct{}
}

func (b *blockingWriter) Write(p []byte) (int, error) {
	<-b.release
	return len(p), nil
}

func TestWriterDropsWhenFull(t *testing.T) {
	out := &blockingWriter{release: make(chan struct{})}
	defer close(out.release)
	w := newWriter(out, 1)

	for range 10 {
		n, err := w.Write([]byte("x"))
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	assert.Positive(t, w.dropped.Load())
}
