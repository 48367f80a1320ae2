package timer

import (
	"sync"
	"time"
)

// RepeatedTimer runs function every interval until stopped. Runs never overlap.
type RepeatedTimer struct {
	interval time.Duration
	function func()

	mu        sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	isRunning bool
}

func NewRepeatedTimer(interval time.Duration, function func()) *RepeatedTimer {
	return &RepeatedTimer{
		interval: interval,
		function: function,
	}
}

func (rt *RepeatedTimer) Start() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.isRunning {
		return
	}

	rt.isRunning = true
	rt.stopChan = make(chan struct{})
	rt.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(rt.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rt.function()
			case <-stop:
				return
			}
		}
	}(rt.stopChan, rt.done)
}

// Stop waits for an in-flight run to finish.
func (rt *RepeatedTimer) Stop() {
	rt.mu.Lock()
	if !rt.isRunning {
		rt.mu.Unlock()
		return
	}
	rt.isRunning = false
	close(rt.stopChan)
	done := rt.done
	rt.mu.Unlock()
	<-done
}

func (rt *RepeatedTimer) Running() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.isRunning
}
