package session

import (
	"context"
	"errors"
	"sync"
)

// ErrEndOfInput is returned by Get once the producer has called End and all
// buffered chunks have been drained.
var ErrEndOfInput = errors.New("session: end of audio input")

// AudioQueue is an unbounded FIFO of PCM chunks between the websocket
// receive loop and the upstream relay. Put never blocks. After End, further
// Puts are dropped and Get drains the remaining chunks before reporting
// ErrEndOfInput.
type AudioQueue struct {
	mu     sync.Mutex
	chunks [][]byte
	ended  bool
	signal chan struct{}
}

func NewAudioQueue() *AudioQueue {
	return &AudioQueue{signal: make(chan struct{}, 1)}
}

func (q *AudioQueue) Put(chunk []byte) {
	q.mu.Lock()
	if q.ended {
		q.mu.Unlock()
		return
	}
	q.chunks = append(q.chunks, chunk)
	q.mu.Unlock()
	q.wake()
}

// End marks the stream finished. Idempotent.
func (q *AudioQueue) End() {
	q.mu.Lock()
	q.ended = true
	q.mu.Unlock()
	q.wake()
}

func (q *AudioQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Get blocks until a chunk is available, the stream ends, or ctx is done.
func (q *AudioQueue) Get(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.chunks) > 0 {
			chunk := q.chunks[0]
			q.chunks = q.chunks[1:]
			q.mu.Unlock()
			return chunk, nil
		}
		ended := q.ended
		q.mu.Unlock()

		if ended {
			return nil, ErrEndOfInput
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports the number of queued chunks.
func (q *AudioQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}
