// Copyright 2026 Blink Labs Software
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

// Package scheduler runs periodic tick tasks and named one-shot deferred
// tasks.
package scheduler

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type ScheduledTask struct {
	interval          int
	ticksSinceLastRun int
	task              func()
	runFailFunc       func()
	running           atomic.Bool
}

type deferredTask struct {
	name  string
	at    time.Time
	timer *time.Timer
	task  func()
}

type Scheduler struct {
	mutex              sync.Mutex
	logger             *slog.Logger
	interval           time.Duration
	ticker             *time.Ticker
	quit               chan struct{}
	updateIntervalChan chan time.Duration
	tasks              []*ScheduledTask
	deferred           map[string]*deferredTask
	startOnce          sync.Once
	stopOnce           sync.Once
	stopped            bool
	wg                 sync.WaitGroup
}

type SchedulerOptionFunc func(*Scheduler)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) SchedulerOptionFunc {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func NewScheduler(interval time.Duration, opts ...SchedulerOptionFunc) *Scheduler {
	s := &Scheduler{
		interval:           interval,
		quit:               make(chan struct{}),
		updateIntervalChan: make(chan time.Duration),
		tasks:              []*ScheduledTask{},
		deferred:           make(map[string]*deferredTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

// Start the ticker (run goroutine once)
func (st *Scheduler) Start() {
	st.startOnce.Do(func() {
		st.mutex.Lock()
		st.ticker = time.NewTicker(st.interval)
		st.mutex.Unlock()
		st.wg.Add(1)
		go st.run()
	})
}

// Listens for tick events and interval updates and updates the ticker accordingly
func (st *Scheduler) run() {
	defer st.wg.Done()
	for {
		st.mutex.Lock()
		tickC := st.ticker.C
		st.mutex.Unlock()
		select {
		case <-tickC:
			st.tick()
		case newInterval := <-st.updateIntervalChan:
			st.mutex.Lock()
			st.ticker.Stop()
			st.ticker = time.NewTicker(newInterval)
			st.interval = newInterval
			st.mutex.Unlock()
		case <-st.quit:
			st.mutex.Lock()
			st.ticker.Stop()
			st.mutex.Unlock()
			return
		}
	}
}

// Increments per-task tick counters and executes tasks when due. A task
// that is still running when it becomes due again is skipped and its fail
// func is called instead.
func (st *Scheduler) tick() {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	if st.stopped {
		return
	}
	for _, task := range st.tasks {
		task.ticksSinceLastRun++
		if task.ticksSinceLastRun < task.interval {
			continue
		}
		task.ticksSinceLastRun = 0
		if !task.running.CompareAndSwap(false, true) {
			if task.runFailFunc != nil {
				st.wg.Add(1)
				go func() {
					defer st.wg.Done()
					task.runFailFunc()
				}()
			}
			continue
		}
		st.wg.Add(1)
		go func() {
			defer st.wg.Done()
			defer task.running.Store(false)
			task.task()
		}()
	}
}

// Register adds a task to run every interval ticks. runFailFunc may be nil.
func (st *Scheduler) Register(interval int, task func(), runFailFunc func()) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.tasks = append(st.tasks, &ScheduledTask{
		interval:    max(interval, 1),
		task:        task,
		runFailFunc: runFailFunc,
	})
}

// ChangeInterval updates the tick interval of the Scheduler at runtime
func (st *Scheduler) ChangeInterval(newInterval time.Duration) {
	select {
	case st.updateIntervalChan <- newInterval:
	default:
	}
}

// Schedule arranges for task to run once at the given time. A pending task
// with the same name is replaced. A task fires once and is then removed.
func (st *Scheduler) Schedule(name string, at time.Time, task func()) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	if st.stopped {
		return
	}
	if prev, ok := st.deferred[name]; ok {
		prev.timer.Stop()
	}
	entry := &deferredTask{
		name: name,
		at:   at,
		task: task,
	}
	entry.timer = time.AfterFunc(time.Until(at), func() {
		st.fire(entry)
	})
	st.deferred[name] = entry
	st.logger.Debug(
		"scheduled deferred task",
		"component", "scheduler",
		"task", name,
		"at", at,
	)
}

func (st *Scheduler) fire(entry *deferredTask) {
	st.mutex.Lock()
	if st.stopped || st.deferred[entry.name] != entry {
		st.mutex.Unlock()
		return
	}
	delete(st.deferred, entry.name)
	st.wg.Add(1)
	st.mutex.Unlock()
	defer st.wg.Done()
	entry.task()
}

// Cancel removes a pending deferred task. It reports whether one was
// pending.
func (st *Scheduler) Cancel(name string) bool {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	entry, ok := st.deferred[name]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(st.deferred, name)
	return true
}

// Pending returns the names of the deferred tasks not fired yet
func (st *Scheduler) Pending() []string {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	ret := make([]string, 0, len(st.deferred))
	for name := range st.deferred {
		ret = append(ret, name)
	}
	slices.Sort(ret)
	return ret
}

// Stop the scheduler, dropping pending deferred tasks and waiting for
// running tasks to finish
func (st *Scheduler) Stop() {
	st.stopOnce.Do(func() {
		st.mutex.Lock()
		st.stopped = true
		for name, entry := range st.deferred {
			entry.timer.Stop()
			delete(st.deferred, name)
		}
		st.mutex.Unlock()
		close(st.quit)
		st.wg.Wait()
	})
}
