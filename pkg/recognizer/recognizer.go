// Package recognizer adapts push-based streaming speech recognizers. A
// Session owns one upstream recognizer connection: callers push raw PCM16
// frames and receive transcripts through a callback, in emission order.
package recognizer

import (
	"sync"
	"time"
)

const (
	// SampleRate is the only ingest format the backend accepts: PCM16 LE,
	// mono, 16 kHz, no header.
	SampleRate = 16000

	// frameQueueDepth bounds the audio FIFO between Push and the upstream
	// writer. Audio is real-time; dropping the oldest frame under overflow
	// beats blocking the socket read loop.
	frameQueueDepth = 64

	maxConnectAttempts = 5
	retryBaseDelay     = 1 * time.Second

	// sessionRefreshAfter rotates the upstream stream before providers that
	// cap session lifetime (8 min on some) cut it mid-utterance.
	sessionRefreshAfter = 7 * time.Minute

	// idleTimeout hard-closes a stream that has received no audio at all.
	idleTimeout = 10 * time.Minute
)

// Transcript is one recognizer emission. Partial segments may be revised by
// later emissions; a final segment is frozen.
type Transcript struct {
	Text     string
	IsFinal  bool
	LangCode string // recognizer dialect code, e.g. "en-US"
	StartMs  int64
	EndMs    int64
}

// TranscriptHandler receives transcripts in recognizer-emission order. It is
// invoked from the session's reader goroutine and must not block for long.
type TranscriptHandler func(Transcript)

// Session is one live recognizer connection.
type Session interface {
	// Push enqueues an audio frame. It never blocks; under overflow the
	// oldest queued frame is dropped.
	Push(frame []byte) error
	// Finish signals end of audio, waits for terminal transcripts to flush,
	// then closes.
	Finish()
	// Stop hard-closes the session. Pending audio is discarded.
	Stop()
	// Alive reports whether the session can still accept audio.
	Alive() bool
}

// frameQueue is the bounded FIFO between Push and the upstream writer.
// Reset installs a fresh queue, discarding anything buffered; reconnect
// attempts start clean because stale real-time audio has no value.
type frameQueue struct {
	mu sync.Mutex
	ch chan []byte
}

func newFrameQueue() *frameQueue {
	return &frameQueue{ch: make(chan []byte, frameQueueDepth)}
}

// Push enqueues without blocking, evicting the oldest frame when full.
func (q *frameQueue) Push(frame []byte) {
	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	for {
		select {
		case ch <- frame:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// C returns the current receive side. Callers re-fetch it each loop
// iteration so a Reset takes effect.
func (q *frameQueue) C() <-chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch
}

// Reset discards buffered frames and installs an empty queue.
func (q *frameQueue) Reset() {
	q.mu.Lock()
	q.ch = make(chan []byte, frameQueueDepth)
	q.mu.Unlock()
}

func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ch)
}
