package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrStopped = errors.New("queue stopped")

type job struct {
	fn   func(ctx context.Context) error
	ctx  context.Context
	done chan error
}

// Queue runs submitted jobs one at a time on a single worker goroutine, so engine code
// never observes a concurrent mutation.
type Queue struct {
	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewQueue(buffer int) *Queue {
	return &Queue{
		jobs: make(chan job, buffer),
		quit: make(chan struct{}),
	}
}

func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case j := <-q.jobs:
				j.done <- run(j)
			case <-q.quit:
				return
			}
		}
	}()
}

func run(j job) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.fn(j.ctx)
}

// Do submits fn and waits for its result. A job whose ctx is done before it starts is skipped.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{fn: fn, ctx: ctx, done: make(chan error, 1)}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.quit:
		return ErrStopped
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.quit:
		return ErrStopped
	}
}

// Stop ends the worker after the job in flight, if any.
func (q *Queue) Stop() {
	q.once.Do(func() { close(q.quit) })
	q.wg.Wait()
}
