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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/ledger"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
)

const tracerName = "github.com/blinklabs-io/guild/governance"

var (
	ErrOperationAborted   = errors.New("operation aborted")
	ErrPermissionInUse    = errors.New("permission is still referenced")
	ErrVotingConfigInUse  = errors.New("voting config is still referenced by votings")
	ErrLastAccessConfig   = errors.New("there should be at least one access config")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrTooManyChoices     = errors.New("too many choices")
	ErrWinnersNeed        = errors.New("winners need outside the configured bounds")
	ErrProgramNotAllowed  = errors.New("program is not allowed by the voting config")
	ErrVoterMismatch      = errors.New("voter identity does not match the caller")
)

// Timers schedules the deferred round transitions of votings
type Timers interface {
	Schedule(name string, at time.Time, task func())
	Cancel(name string) bool
}

// Service runs governance operations one at a time against a State. The
// changes of a mutating operation are journaled and rolled back unless the
// whole operation succeeded.
type Service struct {
	mu           sync.Mutex
	state        *State
	journal      repository.Journal
	self         types.Principal
	ledger       ledger.ShareLedger
	executor     Executor
	evaluator    voting.Evaluator
	timers       Timers
	eventBus     *event.EventBus
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	metrics      serviceMetrics
	tracer       trace.Tracer
	now          func() time.Time
}

type ServiceOptionFunc func(*Service)

func WithLogger(logger *slog.Logger) ServiceOptionFunc {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) ServiceOptionFunc {
	return func(s *Service) {
		s.promRegistry = registry
	}
}

func WithEventBus(eventBus *event.EventBus) ServiceOptionFunc {
	return func(s *Service) {
		s.eventBus = eventBus
	}
}

// WithTimers enables automatic round transitions
func WithTimers(timers Timers) ServiceOptionFunc {
	return func(s *Service) {
		s.timers = timers
	}
}

func WithExecutor(executor Executor) ServiceOptionFunc {
	return func(s *Service) {
		s.executor = executor
	}
}

func WithEvaluator(evaluator voting.Evaluator) ServiceOptionFunc {
	return func(s *Service) {
		s.evaluator = evaluator
	}
}

func WithClock(now func() time.Time) ServiceOptionFunc {
	return func(s *Service) {
		s.now = now
	}
}

func WithTracerProvider(tp trace.TracerProvider) ServiceOptionFunc {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithState starts the service from an existing state, usually a restored
// snapshot
func WithState(state *State) ServiceOptionFunc {
	return func(s *Service) {
		s.state = state
	}
}

// NewService creates a governance service for the wallet identified by self
func NewService(
	self types.Principal,
	shareLedger ledger.ShareLedger,
	opts ...ServiceOptionFunc,
) (*Service, error) {
	if self == "" {
		return nil, errors.New("wallet principal must not be empty")
	}
	if shareLedger == nil {
		return nil, errors.New("share ledger must not be nil")
	}
	s := &Service{
		self:   self,
		ledger: shareLedger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == nil {
		s.state = NewState()
	}
	s.state.Attach(&s.journal)
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.promRegistry == nil {
		s.promRegistry = prometheus.NewRegistry()
	}
	s.metrics.init(s.promRegistry)
	if s.executor == nil {
		s.executor = NoopExecutor{}
	}
	if s.evaluator == nil {
		s.evaluator = voting.AggregateEvaluator{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Self returns the principal the wallet's own endpoints live under
func (s *Service) Self() types.Principal {
	return s.self
}

// Bootstrap seeds an empty state with the default permission and access
// config
func (s *Service) Bootstrap(ctx context.Context, admin types.Principal) error {
	return s.run(ctx, "bootstrap", admin, func(context.Context) error {
		return s.commit("bootstrap", func(tx *txn) error {
			created, err := tx.Bootstrap(s.self, admin)
			if err != nil {
				return err
			}
			if created {
				s.logger.Info(
					"seeded default permission and access config",
					"component", "governance",
					"admin", admin,
				)
			}
			return nil
		})
	})
}

// Snapshot serializes the current state
func (s *Service) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// txn is the live state seen by one operation
type txn struct {
	*State
	now      time.Time
	events   []event.Event
	onCommit []func()
}

func (t *txn) emit(evtType event.EventType, data any) {
	t.events = append(t.events, event.NewEvent(evtType, data))
}

// run wraps an operation in a span and records its result
func (s *Service) run(
	ctx context.Context,
	op string,
	caller types.Principal,
	fn func(context.Context) error,
) error {
	ctx, span := s.tracer.Start(
		ctx,
		"governance."+op,
		trace.WithAttributes(attribute.String("guild.caller", string(caller))),
	)
	defer span.End()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.operationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		s.logger.Debug(
			"operation failed",
			"component", "governance",
			"operation", op,
			"caller", caller,
			"error", err,
		)
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOperationAborted):
		return "aborted"
	case errors.Is(err, types.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, types.ErrValidation):
		return "invalid"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}

// commit runs fn against the state under the lock. The changes fn made are
// rolled back when it fails or raises a data integrity fault. Events are
// published after the lock is released.
func (s *Service) commit(op string, fn func(tx *txn) error) error {
	events, err := s.commitLocked(op, fn)
	if s.eventBus != nil {
		for _, evt := range events {
			s.eventBus.Publish(evt.Type, evt)
		}
	}
	return err
}

func (s *Service) commitLocked(
	op string,
	fn func(tx *txn) error,
) (events []event.Event, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() {
		s.metrics.operationDuration.WithLabelValues(op).Observe(
			time.Since(start).Seconds(),
		)
	}()
	defer func() {
		if r := recover(); r != nil {
			s.journal.Rollback()
			fault, ok := r.(*types.DataIntegrityFault)
			if !ok {
				panic(r)
			}
			s.metrics.abortedTotal.Inc()
			s.logger.Error(
				"operation aborted",
				"component", "governance",
				"operation", op,
				"error", fault,
			)
			events = nil
			err = fmt.Errorf("%w: %s: %w", ErrOperationAborted, op, fault)
		}
	}()
	tx := &txn{State: s.state, now: s.now()}
	if err := fn(tx); err != nil {
		s.journal.Rollback()
		return nil, err
	}
	s.journal.Commit()
	for _, f := range tx.onCommit {
		f()
	}
	return tx.events, nil
}

// view runs a read-only fn under the lock
func (s *Service) view(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// authzFunc computes the lock-held part of an authorization check
type authzFunc func(st *State, caller types.Principal) (accessconfig.Decision, error)

// mutate authorizes the caller and commits fn. Group allowees need the
// caller's balances, which are fetched without the lock. The check is then
// repeated against the state fn sees, so a config that changed meanwhile
// is honored.
func (s *Service) mutate(
	ctx context.Context,
	op string,
	caller types.Principal,
	authz authzFunc,
	fn func(tx *txn) error,
) error {
	return s.run(ctx, op, caller, func(ctx context.Context) error {
		balances, err := s.prefetchBalances(ctx, op, caller, authz)
		if err != nil {
			return err
		}
		return s.commit(op, func(tx *txn) error {
			if err := admit(tx.State, op, caller, authz, balances); err != nil {
				return err
			}
			return fn(tx)
		})
	})
}

func (s *Service) prefetchBalances(
	ctx context.Context,
	op string,
	caller types.Principal,
	authz authzFunc,
) (map[types.Id]types.Shares, error) {
	var d accessconfig.Decision
	err := s.view(func(st *State) error {
		var err error
		d, err = authz(st, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	if d.Allowed {
		return nil, nil
	}
	balances := make(map[types.Id]types.Shares)
	for _, g := range d.GroupIds() {
		bal, err := s.balanceOf(ctx, caller, types.Group(g))
		if err != nil {
			return nil, err
		}
		balances[g] = bal
	}
	if !d.SatisfiedBy(balances) {
		return nil, denied(op, caller)
	}
	return balances, nil
}

// admit repeats the authorization check against the working copy using the
// balances fetched earlier
func admit(
	st *State,
	op string,
	caller types.Principal,
	authz authzFunc,
	balances map[types.Id]types.Shares,
) error {
	d, err := authz(st, caller)
	if err != nil {
		return err
	}
	if d.SatisfiedBy(balances) {
		return nil
	}
	return denied(op, caller)
}

func denied(op string, caller types.Principal) error {
	return fmt.Errorf("%w: %s may not %s", types.ErrPermissionDenied, caller, op)
}

// adminAuthz admits callers allowed to call the wallet endpoint named
// after the operation
func (s *Service) adminAuthz(method string) authzFunc {
	endpoint := types.Endpoint{Actor: s.self, Method: method}
	return func(st *State, caller types.Principal) (accessconfig.Decision, error) {
		return st.Gate().CheckEndpoint(caller, endpoint), nil
	}
}

// proposerAuthz admits callers listed by an access config bound to one of
// the voting config's permissions
func proposerAuthz(votingConfigId types.Id) authzFunc {
	return func(st *State, caller types.Principal) (accessconfig.Decision, error) {
		vc, err := st.VotingConfigs.Get(votingConfigId)
		if err != nil {
			return accessconfig.Decision{}, err
		}
		return st.Gate().CheckPermissions(caller, vc.Permissions), nil
	}
}

// editorAuthz admits the proposer of the voting and every caller who could
// have proposed it
func editorAuthz(votingId types.Id) authzFunc {
	return func(st *State, caller types.Principal) (accessconfig.Decision, error) {
		v, err := st.Votings.Get(votingId)
		if err != nil {
			return accessconfig.Decision{}, err
		}
		if v.Proposer == caller {
			return accessconfig.Decision{Allowed: true}, nil
		}
		return proposerAuthz(v.VotingConfigId)(st, caller)
	}
}

func choiceEditorAuthz(choiceId types.Id) authzFunc {
	return func(st *State, caller types.Principal) (accessconfig.Decision, error) {
		c, err := st.Choices.Get(choiceId)
		if err != nil {
			return accessconfig.Decision{}, err
		}
		return editorAuthz(c.VotingId)(st, caller)
	}
}

// voterAuthz admits callers allowed to take part in a voting
func voterAuthz(votingId types.Id) authzFunc {
	return func(st *State, caller types.Principal) (accessconfig.Decision, error) {
		v, err := st.Votings.Get(votingId)
		if err != nil {
			return accessconfig.Decision{}, err
		}
		return proposerAuthz(v.VotingConfigId)(st, caller)
	}
}

func (s *Service) balanceOf(
	ctx context.Context,
	who types.Principal,
	gop types.GroupOrProfile,
) (types.Shares, error) {
	start := time.Now()
	bal, err := s.ledger.BalanceOf(ctx, who, gop)
	s.metrics.ledgerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("balance of %s in %s: %w", who, gop, err)
	}
	return bal, nil
}

func (s *Service) totalSupply(
	ctx context.Context,
	gop types.GroupOrProfile,
) (types.Shares, error) {
	start := time.Now()
	supply, err := s.ledger.TotalSupply(ctx, gop)
	s.metrics.ledgerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("total supply of %s: %w", gop, err)
	}
	return supply, nil
}

func requirePermissions(st *State, ids []types.Id) error {
	for _, id := range ids {
		if !st.Permissions.Exists(id) {
			return types.NewNotFoundError("permission", id)
		}
	}
	return nil
}

// checkProgram verifies that a choice program is allowed by at least one
// permission of the voting config
func checkProgram(st *State, program types.Program, permissions []types.Id) error {
	if err := program.Validate(); err != nil {
		return err
	}
	if !st.Permissions.AllowsProgramAny(program, permissions) {
		return fmt.Errorf("%w: %w", ErrProgramNotAllowed, permission.ErrNotPermissionTarget)
	}
	return nil
}
