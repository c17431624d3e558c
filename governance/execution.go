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

package governance

import (
	"context"
	"iter"
	"time"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

// Executor runs the program of a winning choice
type Executor interface {
	Execute(ctx context.Context, program types.Program) error
}

// NoopExecutor accepts every program without running it
type NoopExecutor struct{}

func (NoopExecutor) Execute(context.Context, types.Program) error {
	return nil
}

type ExecutionStatus uint8

const (
	ExecutionPending ExecutionStatus = iota
	ExecutionExecuted
	ExecutionFailed
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionPending:
		return "pending"
	case ExecutionExecuted:
		return "executed"
	case ExecutionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const ExecutionInterrupted = "interrupted before completion"

// ExecutionRecord tracks the run of one winning choice program. A record is
// created as pending before the program runs and always ends as executed or
// failed.
type ExecutionRecord struct {
	repository.Model
	VotingId   types.Id        `cbor:"2,keyasint"`
	ChoiceId   types.Id        `cbor:"3,keyasint"`
	Program    types.Program   `cbor:"4,keyasint"`
	Status     ExecutionStatus `cbor:"5,keyasint"`
	Error      string          `cbor:"6,keyasint,omitempty"`
	CreatedAt  time.Time       `cbor:"7,keyasint"`
	FinishedAt time.Time       `cbor:"8,keyasint,omitempty"`
}

func (r *ExecutionRecord) Clone() *ExecutionRecord {
	ret := *r
	ret.Program = r.Program.Clone()
	return &ret
}

func (r *ExecutionRecord) finish(err error, now time.Time) {
	r.Status = ExecutionExecuted
	if err != nil {
		r.Status = ExecutionFailed
		r.Error = err.Error()
	}
	r.FinishedAt = now
}

type ExecutionRepository struct {
	store    *repository.Store[*ExecutionRecord]
	byVoting *repository.Index[types.Id, *ExecutionRecord]
	byStatus *repository.Index[ExecutionStatus, *ExecutionRecord]
}

func NewExecutionRepository() *ExecutionRepository {
	byVoting := repository.NewIndex(func(r *ExecutionRecord) []types.Id {
		return []types.Id{r.VotingId}
	})
	byStatus := repository.NewIndex(func(r *ExecutionRecord) []ExecutionStatus {
		return []ExecutionStatus{r.Status}
	})
	return &ExecutionRepository{
		store:    repository.NewStore[*ExecutionRecord](byVoting, byStatus),
		byVoting: byVoting,
		byStatus: byStatus,
	}
}

func (r *ExecutionRepository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *ExecutionRepository) Export() ([]*ExecutionRecord, repository.IdGenerator) {
	return r.store.Export()
}

func (r *ExecutionRepository) Import(items []*ExecutionRecord, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *ExecutionRepository) Save(rec *ExecutionRecord) types.Id {
	return r.store.Save(rec)
}

func (r *ExecutionRepository) Get(id types.Id) (*ExecutionRecord, error) {
	rec, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("execution", id)
	}
	return rec, nil
}

func (r *ExecutionRepository) ByVoting(votingId types.Id) iter.Seq[*ExecutionRecord] {
	return r.store.ByIds(r.byVoting.Lookup(votingId))
}

func (r *ExecutionRepository) ByStatus(status ExecutionStatus) iter.Seq[*ExecutionRecord] {
	return r.store.ByIds(r.byStatus.Lookup(status))
}

func (r *ExecutionRepository) Len() int {
	return r.store.Len()
}
