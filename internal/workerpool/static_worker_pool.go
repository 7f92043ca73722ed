// Copyright 2024 Google LLC
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

// Package workerpool provides a fixed-size, two-lane goroutine pool used to
// run fulfiller dispatch tasks in the background. A "priority" lane exists
// so that flush/fsync-driven dispatches (something is blocked waiting on
// them) are not starved behind ordinary flush-behind/trickling dispatches.
package workerpool

import (
	"errors"
	"sync"
)

// Task is a unit of work submitted to the pool.
type Task func()

const taskQueueCapacity = 256

// StaticWorkerPool runs Tasks across a fixed number of priority and normal
// goroutines. Priority workers drain the priority lane first and fall back
// to the normal lane when it is empty, so idle priority capacity is never
// wasted; normal workers only ever drain the normal lane.
type StaticWorkerPool struct {
	priorityCh chan Task
	normalCh   chan Task

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStaticWorkerPool starts a pool with priorityWorker goroutines servicing
// the priority lane and normalWorker goroutines servicing the normal lane.
// It is an error for both to be zero, since the pool would never run
// anything submitted to it.
func NewStaticWorkerPool(priorityWorker, normalWorker uint32) (*StaticWorkerPool, error) {
	if priorityWorker == 0 && normalWorker == 0 {
		return nil, errors.New("workerpool: priorityWorker and normalWorker cannot both be zero")
	}

	p := &StaticWorkerPool{
		priorityCh: make(chan Task, taskQueueCapacity),
		normalCh:   make(chan Task, taskQueueCapacity),
		stopCh:     make(chan struct{}),
	}

	for i := uint32(0); i < priorityWorker; i++ {
		p.wg.Add(1)
		go p.runPriorityWorker()
	}
	for i := uint32(0); i < normalWorker; i++ {
		p.wg.Add(1)
		go p.runNormalWorker()
	}

	return p, nil
}

func (p *StaticWorkerPool) runPriorityWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case t := <-p.priorityCh:
			t()
		default:
			select {
			case <-p.stopCh:
				return
			case t := <-p.priorityCh:
				t()
			case t := <-p.normalCh:
				t()
			}
		}
	}
}

func (p *StaticWorkerPool) runNormalWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case t := <-p.normalCh:
			t()
		}
	}
}

// Schedule submits task to the priority lane when priority is true,
// otherwise to the normal lane. It blocks if the target lane's queue is
// full, applying backpressure to the caller rather than growing unbounded.
func (p *StaticWorkerPool) Schedule(priority bool, task Task) {
	if priority {
		p.priorityCh <- task
		return
	}
	p.normalCh <- task
}

// Stop signals every worker goroutine to exit once its current task
// finishes and waits for them to do so. It is safe to call on a nil pool
// (the zero value returned alongside an error from NewStaticWorkerPool) and
// safe to call more than once.
func (p *StaticWorkerPool) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}
