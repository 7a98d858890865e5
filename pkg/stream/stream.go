// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stream provides ordered execution queues for asynchronous work.
//
// A Stream runs the operations enqueued on it one at a time, in enqueue
// order, without blocking the enqueuing goroutine. Operations may block
// (for instance while waiting for a signal) in which case everything
// enqueued later waits too, but the host caller is never held up.
package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	logger "github.com/intel/symmetric-memory/pkg/log"
)

// Op is a single operation executed on a stream. The context is cancelled
// when the stream is destroyed.
type Op func(ctx context.Context) error

// Stream is an ordered asynchronous execution queue.
type Stream interface {
	// ID returns a process-unique identifier of the stream.
	ID() uint64
	// Enqueue appends an operation to the stream and returns immediately.
	Enqueue(name string, op Op) (*Event, error)
	// Synchronize waits until everything enqueued so far has been executed.
	// It returns the first error of any operation since the last Synchronize.
	Synchronize(ctx context.Context) error
	// Pending returns the number of enqueued but not yet finished operations.
	Pending() int
	// Destroy aborts pending operations and stops the stream.
	Destroy() error
}

var (
	// ErrDestroyed is returned for operations on a destroyed stream.
	ErrDestroyed = errors.New("stream destroyed")
)

var (
	log    = logger.NewLogger("stream")
	nextID uint64
)

// Event tracks the completion of a single enqueued operation.
type Event struct {
	name string
	done chan struct{}
	err  error
}

func newEvent(name string) *Event {
	return &Event{name: name, done: make(chan struct{})}
}

// Done returns a channel closed when the operation has finished.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Err returns the result of a finished operation.
func (e *Event) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Wait waits for the operation to finish and returns its result.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Event) finish(err error) {
	e.err = err
	close(e.done)
}

type entry struct {
	op    Op
	event *Event
}

// Queue is a Stream executed by a dedicated goroutine.
type Queue struct {
	sync.Mutex
	id        uint64
	name      string
	queue     []entry
	pending   int
	notify    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   chan struct{}
	err       error
	destroyed bool
}

var _ Stream = &Queue{}

// New creates a new stream and starts executing it.
func New(name string) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		id:      atomic.AddUint64(&nextID, 1),
		name:    name,
		notify:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go q.run()

	log.Debug("stream #%d (%s) created", q.id, q.name)

	return q
}

// ID returns the identifier of the stream.
func (q *Queue) ID() uint64 {
	return q.id
}

func (q *Queue) String() string {
	return fmt.Sprintf("stream #%d (%s)", q.id, q.name)
}

// Enqueue appends an operation to the stream.
func (q *Queue) Enqueue(name string, op Op) (*Event, error) {
	q.Lock()
	defer q.Unlock()

	if q.destroyed {
		return nil, errors.Wrapf(ErrDestroyed, "can't enqueue %s on %s", name, q)
	}

	e := newEvent(name)
	q.queue = append(q.queue, entry{op: op, event: e})
	q.pending++

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return e, nil
}

// Synchronize waits for all operations enqueued so far.
func (q *Queue) Synchronize(ctx context.Context) error {
	e, err := q.Enqueue("synchronize", func(context.Context) error { return nil })
	if err != nil {
		return err
	}
	if err := e.Wait(ctx); err != nil {
		return err
	}

	q.Lock()
	defer q.Unlock()
	err, q.err = q.err, nil

	return err
}

// Pending returns the number of unfinished operations.
func (q *Queue) Pending() int {
	q.Lock()
	defer q.Unlock()
	return q.pending
}

// Destroy cancels running and pending operations and stops the stream.
func (q *Queue) Destroy() error {
	q.Lock()
	if q.destroyed {
		q.Unlock()
		return errors.Wrapf(ErrDestroyed, "%s already destroyed", q)
	}
	q.destroyed = true
	q.Unlock()

	q.cancel()
	<-q.stopped

	q.Lock()
	defer q.Unlock()
	for _, e := range q.queue {
		e.event.finish(ErrDestroyed)
	}
	q.queue = nil
	q.pending = 0

	log.Debug("%s destroyed", q)

	return nil
}

func (q *Queue) run() {
	defer close(q.stopped)

	for {
		q.Lock()
		if len(q.queue) == 0 {
			q.Unlock()
			select {
			case <-q.notify:
				continue
			case <-q.ctx.Done():
				return
			}
		}
		if q.ctx.Err() != nil {
			q.Unlock()
			return
		}
		e := q.queue[0]
		q.queue[0] = entry{}
		q.queue = q.queue[1:]
		q.Unlock()

		err := e.op(q.ctx)
		if err != nil {
			if q.ctx.Err() != nil {
				err = errors.Wrapf(ErrDestroyed, "%s aborted: %v", e.event.name, err)
				log.Warn("%s: %v", q, err)
			} else {
				log.Error("%s: %s failed: %v", q, e.event.name, err)
			}
		}

		q.Lock()
		if err != nil && q.err == nil {
			q.err = err
		}
		q.pending--
		q.Unlock()

		e.event.finish(err)
	}
}
