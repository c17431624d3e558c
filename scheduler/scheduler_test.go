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

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSchedulerRegistersAndRunsTask(t *testing.T) {
	defer goleak.VerifyNone(t)
	var counter int32

	timer := NewScheduler(10 * time.Millisecond)
	timer.Start()
	defer timer.Stop()

	timer.Register(3, func() {
		atomic.AddInt32(&counter, 1)
	}, nil)

	time.Sleep(100 * time.Millisecond)

	finalCount := atomic.LoadInt32(&counter)
	if finalCount < 2 {
		t.Errorf("Expected task to run at least 2 times, but got %d", finalCount)
	}
}

func TestSchedulerChangeInterval(t *testing.T) {
	defer goleak.VerifyNone(t)
	var counter int32

	timer := NewScheduler(50 * time.Millisecond)
	timer.Start()
	defer timer.Stop()

	timer.Register(1, func() {
		atomic.AddInt32(&counter, 1)
	}, nil)

	time.Sleep(120 * time.Millisecond)
	beforeChange := atomic.LoadInt32(&counter)
	if beforeChange < 2 {
		t.Errorf("Expected at least 2 executions before interval change, got %d", beforeChange)
	}

	timer.ChangeInterval(200 * time.Millisecond)

	time.Sleep(500 * time.Millisecond)

	afterChange := atomic.LoadInt32(&counter) - beforeChange
	if afterChange < 1 || afterChange > 3 {
		t.Errorf("timer did not respect interval change, ran too frequently: %d more ticks", afterChange)
	}
}

func TestSchedulerRunFailFunc(t *testing.T) {
	defer goleak.VerifyNone(t)
	var failCounter int32

	timer := NewScheduler(10 * time.Millisecond)
	timer.Start()
	defer timer.Stop()

	timer.Register(
		3,
		func() {
			time.Sleep(50 * time.Millisecond)
		},
		func() {
			atomic.AddInt32(&failCounter, 1)
		},
	)

	time.Sleep(200 * time.Millisecond)

	finalCount := atomic.LoadInt32(&failCounter)
	if finalCount < 3 {
		t.Errorf("Expected failure to run task at least 3 times, but got %d", finalCount)
	}
}

func TestDeferredTaskFiresOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := NewScheduler(time.Hour)
	defer s.Stop()

	fired := make(chan struct{}, 2)
	s.Schedule("round-end/1", time.Now().Add(20*time.Millisecond), func() {
		fired <- struct{}{}
	})
	assert.Equal(t, []string{"round-end/1"}, s.Pending())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred task did not fire")
	}
	require.Eventually(t, func() bool { return len(s.Pending()) == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Cancel("round-end/1"))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, fired, 0)
}

func TestDeferredTaskReplaceAndCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := NewScheduler(time.Hour)
	defer s.Stop()

	var first, second, cancelled int32
	s.Schedule("a", time.Now().Add(30*time.Millisecond), func() { atomic.AddInt32(&first, 1) })
	s.Schedule("a", time.Now().Add(30*time.Millisecond), func() { atomic.AddInt32(&second, 1) })
	s.Schedule("b", time.Now().Add(30*time.Millisecond), func() { atomic.AddInt32(&cancelled, 1) })
	assert.True(t, s.Cancel("b"))
	assert.Equal(t, []string{"a"}, s.Pending())

	require.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelled))
}

func TestStopDropsDeferredTasks(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := NewScheduler(time.Hour)
	s.Start()
	var count int32
	s.Schedule("later", time.Now().Add(50*time.Millisecond), func() { atomic.AddInt32(&count, 1) })
	s.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
	assert.Empty(t, s.Pending())

	// scheduling after stop is a no-op
	s.Schedule("never", time.Now(), func() { atomic.AddInt32(&count, 1) })
	assert.Empty(t, s.Pending())
}
