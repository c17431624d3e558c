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
	"fmt"
	"slices"

	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
	"github.com/blinklabs-io/guild/votingconfig"
)

const ReasonNotEnoughChoices = "not enough choices"

// CreateVoting proposes a new voting under a voting config. The caller
// becomes its proposer.
func (s *Service) CreateVoting(
	ctx context.Context,
	caller types.Principal,
	params voting.Params,
) (types.Id, error) {
	params.Proposer = caller
	var id types.Id
	err := s.mutate(
		ctx,
		"create_voting",
		caller,
		proposerAuthz(params.VotingConfigId),
		func(tx *txn) error {
			vc, err := tx.VotingConfigs.Get(params.VotingConfigId)
			if err != nil {
				return err
			}
			if !vc.AcceptsWinnersNeed(params.WinnersNeed) {
				return fmt.Errorf("%w: %d", ErrWinnersNeed, params.WinnersNeed)
			}
			v, err := voting.New(params, tx.now)
			if err != nil {
				return err
			}
			tx.Votings.Save(v)
			rejection, approval := v.NewBuiltinChoices()
			tx.Choices.Save(rejection)
			tx.Choices.Save(approval)
			v.AttachChoices(rejection, approval)
			tx.Votings.Save(v)
			id = v.ID
			tx.emit(
				event.VotingCreatedEventType,
				event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
			)
			return nil
		},
	)
	return id, err
}

// UpdateVoting edits a voting that has not been approved yet
func (s *Service) UpdateVoting(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
	upd voting.Update,
) error {
	return s.mutate(ctx, "update_voting", caller, editorAuthz(id), func(tx *txn) error {
		v, err := tx.Votings.Get(id)
		if err != nil {
			return err
		}
		if upd.WinnersNeed != nil {
			vc, err := tx.VotingConfigs.Get(v.VotingConfigId)
			if err != nil {
				return err
			}
			if !vc.AcceptsWinnersNeed(*upd.WinnersNeed) {
				return fmt.Errorf("%w: %d", ErrWinnersNeed, *upd.WinnersNeed)
			}
		}
		if err := v.Update(upd, tx.now); err != nil {
			return err
		}
		tx.Votings.Save(v)
		tx.emit(
			event.VotingUpdatedEventType,
			event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
		)
		return nil
	})
}

// DeleteVoting removes a voting together with its choices
func (s *Service) DeleteVoting(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	return s.mutate(ctx, "delete_voting", caller, editorAuthz(id), func(tx *txn) error {
		v, err := tx.Votings.Get(id)
		if err != nil {
			return err
		}
		if !v.Deletable() {
			return &voting.InvalidStateTransitionError{
				VotingId: v.ID,
				Op:       "delete",
				Status:   v.Status,
			}
		}
		n := tx.Choices.DeleteByVoting(id)
		if _, err := tx.Votings.Delete(id); err != nil {
			return err
		}
		s.cancelTimers(tx, id)
		s.logger.Debug(
			"deleted voting",
			"component", "governance",
			"voting", id,
			"choices", n,
		)
		tx.emit(
			event.VotingDeletedEventType,
			event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
		)
		return nil
	})
}

// ApproveVoting adds the caller's profile weight to the approval choice.
// The voting leaves the Created status once the approval threshold is met.
func (s *Service) ApproveVoting(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	const op = "approve_voting"
	return s.run(ctx, op, caller, func(ctx context.Context) error {
		authz := editorAuthz(id)
		balances, err := s.prefetchBalances(ctx, op, caller, authz)
		if err != nil {
			return err
		}
		scope := types.Profile(caller)
		shares, err := s.balanceOf(ctx, caller, scope)
		if err != nil {
			return err
		}
		supply, err := s.totalSupply(ctx, scope)
		if err != nil {
			return err
		}
		supplies, err := s.electorateSupplies(ctx, id)
		if err != nil {
			return err
		}
		return s.commit(op, func(tx *txn) error {
			if err := admit(tx.State, op, caller, authz, balances); err != nil {
				return err
			}
			v, err := tx.Votings.Get(id)
			if err != nil {
				return err
			}
			vc := mustVotingConfig(tx.State, v)
			approval := mustChoice(tx.State, v.ApprovalChoice)
			for gop, total := range supplies {
				v.RecordApprovalSupply(gop, total)
			}
			err = v.CastApproval(voting.ProfileVoter(caller), shares, supply, tx.now, approval)
			if err != nil {
				return err
			}
			tx.Choices.Save(approval)
			if vc.Approval.IsZero() || voting.ApprovalMet(v, vc, approval, s.evaluator) {
				from := v.Status
				if err := v.Approve(tx.now); err != nil {
					return err
				}
				s.transitioned(tx, v, vc, from)
			}
			tx.Votings.Save(v)
			return nil
		})
	})
}

// RejectVoting ends a voting before or during a round
func (s *Service) RejectVoting(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	return s.mutate(ctx, "reject_voting", caller, editorAuthz(id), func(tx *txn) error {
		v, err := tx.Votings.Get(id)
		if err != nil {
			return err
		}
		vc := mustVotingConfig(tx.State, v)
		from := v.Status
		if err := v.Reject(tx.now); err != nil {
			return err
		}
		tx.Votings.Save(v)
		s.transitioned(tx, v, vc, from)
		return nil
	})
}

func (s *Service) GetVoting(ctx context.Context, id types.Id) (*voting.Voting, error) {
	var ret *voting.Voting
	err := s.run(ctx, "get_voting", "", func(context.Context) error {
		return s.view(func(st *State) error {
			var err error
			ret, err = st.Votings.Get(id)
			return err
		})
	})
	return ret, err
}

func (s *Service) ListVotings(
	ctx context.Context,
	req voting.PageRequest,
) (repository.Page[*voting.Voting], error) {
	var ret repository.Page[*voting.Voting]
	err := s.run(ctx, "list_votings", "", func(context.Context) error {
		return s.view(func(st *State) error {
			ret = st.Votings.List(req)
			return nil
		})
	})
	return ret, err
}

// ChoiceUpdate carries the fields of a custom choice to change
type ChoiceUpdate struct {
	Name        *string
	Description *string
	Program     *types.Program
}

// CreateChoice adds a custom choice to a voting that has not entered its
// round yet
func (s *Service) CreateChoice(
	ctx context.Context,
	caller types.Principal,
	votingId types.Id,
	name string,
	description string,
	program types.Program,
) (types.Id, error) {
	var id types.Id
	err := s.mutate(ctx, "create_choice", caller, editorAuthz(votingId), func(tx *txn) error {
		v, err := tx.Votings.Get(votingId)
		if err != nil {
			return err
		}
		if !v.ChoicesEditable() {
			return &voting.InvalidStateTransitionError{
				VotingId: v.ID,
				Op:       "add choice",
				Status:   v.Status,
			}
		}
		vc := mustVotingConfig(tx.State, v)
		if !vc.AcceptsChoicesCount(uint32(len(v.CustomChoices) + 1)) {
			return fmt.Errorf("%w: maximum is %d", ErrTooManyChoices, vc.ChoicesCount.Max)
		}
		if err := checkProgram(tx.State, program, vc.Permissions); err != nil {
			return err
		}
		c, err := voting.NewChoice(votingId, name, description, program)
		if err != nil {
			return err
		}
		tx.Choices.Save(c)
		if err := v.AddCustomChoice(c.ID, tx.now); err != nil {
			return err
		}
		tx.Votings.Save(v)
		id = c.ID
		tx.emit(
			event.VotingUpdatedEventType,
			event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
		)
		return nil
	})
	return id, err
}

func (s *Service) UpdateChoice(
	ctx context.Context,
	caller types.Principal,
	choiceId types.Id,
	upd ChoiceUpdate,
) error {
	return s.mutate(ctx, "update_choice", caller, choiceEditorAuthz(choiceId), func(tx *txn) error {
		c, v, err := customChoice(tx.State, choiceId)
		if err != nil {
			return err
		}
		if !v.ChoicesEditable() {
			return &voting.InvalidStateTransitionError{
				VotingId: v.ID,
				Op:       "update choice",
				Status:   v.Status,
			}
		}
		if upd.Name != nil {
			if err := c.SetName(*upd.Name); err != nil {
				return err
			}
		}
		if upd.Description != nil {
			if err := c.SetDescription(*upd.Description); err != nil {
				return err
			}
		}
		if upd.Program != nil {
			vc := mustVotingConfig(tx.State, v)
			if err := checkProgram(tx.State, *upd.Program, vc.Permissions); err != nil {
				return err
			}
			if err := c.SetProgram(*upd.Program); err != nil {
				return err
			}
		}
		tx.Choices.Save(c)
		v.UpdatedAt = tx.now
		tx.Votings.Save(v)
		tx.emit(
			event.VotingUpdatedEventType,
			event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
		)
		return nil
	})
}

func (s *Service) DeleteChoice(
	ctx context.Context,
	caller types.Principal,
	choiceId types.Id,
) error {
	return s.mutate(ctx, "delete_choice", caller, choiceEditorAuthz(choiceId), func(tx *txn) error {
		_, v, err := customChoice(tx.State, choiceId)
		if err != nil {
			return err
		}
		if err := v.RemoveCustomChoice(choiceId, tx.now); err != nil {
			return err
		}
		if _, err := tx.Choices.Delete(choiceId); err != nil {
			return err
		}
		tx.Votings.Save(v)
		tx.emit(
			event.VotingUpdatedEventType,
			event.EntityEvent{Id: v.ID, Name: v.Name, Caller: caller},
		)
		return nil
	})
}

func (s *Service) GetChoice(ctx context.Context, id types.Id) (*voting.Choice, error) {
	var ret *voting.Choice
	err := s.run(ctx, "get_choice", "", func(context.Context) error {
		return s.view(func(st *State) error {
			var err error
			ret, err = st.Choices.Get(id)
			return err
		})
	})
	return ret, err
}

// ListChoices returns every choice of a voting, builtin ones included, in
// id order
func (s *Service) ListChoices(ctx context.Context, votingId types.Id) ([]*voting.Choice, error) {
	var ret []*voting.Choice
	err := s.run(ctx, "list_choices", "", func(context.Context) error {
		return s.view(func(st *State) error {
			if _, err := st.Votings.Get(votingId); err != nil {
				return err
			}
			for _, id := range st.Choices.IdsByVoting(votingId) {
				c, err := st.Choices.Get(id)
				if err != nil {
					return err
				}
				ret = append(ret, c)
			}
			return nil
		})
	})
	return ret, err
}

// CastVote records the caller's vote in a running round. Its weight may not
// exceed the caller's balance in the voter scope.
func (s *Service) CastVote(
	ctx context.Context,
	caller types.Principal,
	votingId types.Id,
	vote voting.Vote,
) error {
	const op = "cast_vote"
	return s.run(ctx, op, caller, func(ctx context.Context) error {
		if err := vote.Validate(); err != nil {
			return err
		}
		scope, identity := vote.Voter.Scope()
		if identity != caller {
			return fmt.Errorf("%w: %s votes as %s", ErrVoterMismatch, caller, identity)
		}
		authz := voterAuthz(votingId)
		balances, err := s.prefetchBalances(ctx, op, caller, authz)
		if err != nil {
			return err
		}
		balance, err := s.balanceOf(ctx, caller, scope)
		if err != nil {
			return err
		}
		supply, err := s.totalSupply(ctx, scope)
		if err != nil {
			return err
		}
		total := vote.TotalShares()
		if total > balance {
			return fmt.Errorf(
				"%w: %d requested, %d held in %s",
				ErrInsufficientShares,
				total,
				balance,
				scope,
			)
		}
		return s.commit(op, func(tx *txn) error {
			if err := admit(tx.State, op, caller, authz, balances); err != nil {
				return err
			}
			v, err := tx.Votings.Get(votingId)
			if err != nil {
				return err
			}
			choices := tx.Choices.ByVoting(v.ID)
			if err := v.CastVote(vote, supply, tx.now, choices); err != nil {
				return err
			}
			tx.Choices.Save(choices[v.RejectionChoice])
			for _, id := range v.CustomChoices {
				tx.Choices.Save(choices[id])
			}
			tx.Votings.Save(v)
			tx.onCommit = append(tx.onCommit, s.metrics.votesCastTotal.Inc)
			tx.emit(event.VoteCastEventType, event.VoteCastEvent{
				VotingId: v.ID,
				Round:    v.Status.Round,
				Voter:    caller,
				Scope:    scope,
				Shares:   total,
			})
			return nil
		})
	})
}

// StartRound moves a voting from PreRound to Round. The total supplies of
// the electorate are taken from the ledger first and replace those of the
// previous round. A voting without enough custom choices fails right away.
func (s *Service) StartRound(ctx context.Context, id types.Id) error {
	const op = opStartRound
	return s.run(ctx, op, "", func(ctx context.Context) error {
		var (
			round  voting.RoundId
			scopes []types.GroupOrProfile
		)
		err := s.view(func(st *State) error {
			v, err := st.Votings.Get(id)
			if err != nil {
				return err
			}
			if !v.Status.Is(voting.StatusPreRound) {
				return &voting.InvalidStateTransitionError{
					VotingId: v.ID,
					Op:       "start round",
					Status:   v.Status,
				}
			}
			round = v.Status.Round
			vc, err := st.VotingConfigs.Get(v.VotingConfigId)
			if err != nil {
				return err
			}
			scopes = electorate(st, vc)
			return nil
		})
		if err != nil {
			return err
		}
		supplies := make(map[types.GroupOrProfile]types.Shares, len(scopes))
		for _, gop := range scopes {
			supply, err := s.totalSupply(ctx, gop)
			if err != nil {
				return err
			}
			supplies[gop] = supply
		}
		return s.commit(op, func(tx *txn) error {
			v, err := tx.Votings.Get(id)
			if err != nil {
				return err
			}
			if !v.Status.Is(voting.StatusPreRound) || v.Status.Round != round {
				return &voting.InvalidStateTransitionError{
					VotingId: v.ID,
					Op:       "start round",
					Status:   v.Status,
				}
			}
			vc := mustVotingConfig(tx.State, v)
			from := v.Status
			if err := v.StartRound(tx.now); err != nil {
				return err
			}
			for _, gop := range scopes {
				v.RecordSupply(gop, supplies[gop])
			}
			if !vc.HasEnoughChoices(uint32(len(v.CustomChoices))) {
				if err := v.FinishFail(ReasonNotEnoughChoices, tx.now); err != nil {
					return err
				}
			}
			tx.Votings.Save(v)
			s.transitioned(tx, v, vc, from)
			return nil
		})
	})
}

// ResolveRound judges a voting at the end of its round. The programs of
// the winners run after the new status is committed.
func (s *Service) ResolveRound(ctx context.Context, id types.Id) error {
	const op = opResolveRound
	return s.run(ctx, op, "", func(ctx context.Context) error {
		var pending []types.Id
		err := s.commit(op, func(tx *txn) error {
			v, err := tx.Votings.Get(id)
			if err != nil {
				return err
			}
			if !v.Status.Is(voting.StatusRound) {
				return &voting.InvalidStateTransitionError{
					VotingId: v.ID,
					Op:       "resolve round",
					Status:   v.Status,
				}
			}
			vc := mustVotingConfig(tx.State, v)
			choices := tx.Choices.ByVoting(v.ID)
			outcome := voting.Resolve(v, vc, choices, s.evaluator)
			from := v.Status
			if err := v.Apply(outcome, tx.now); err != nil {
				return err
			}
			for _, choiceId := range outcome.Winners {
				rec := &ExecutionRecord{
					VotingId:  v.ID,
					ChoiceId:  choiceId,
					Program:   choices[choiceId].Program.Clone(),
					Status:    ExecutionPending,
					CreatedAt: tx.now,
				}
				pending = append(pending, tx.Executions.Save(rec))
			}
			tx.Votings.Save(v)
			s.transitioned(tx, v, vc, from)
			s.logger.Info(
				"voting round resolved",
				"component", "governance",
				"voting", v.ID,
				"round", from.Round,
				"outcome", outcome.Kind.String(),
				"status", v.Status.String(),
			)
			return nil
		})
		if err != nil {
			return err
		}
		s.executeWinners(ctx, pending)
		return nil
	})
}

// executeWinners runs pending winner programs one by one. Each record ends
// up executed or failed.
func (s *Service) executeWinners(ctx context.Context, records []types.Id) {
	for _, recId := range records {
		var rec *ExecutionRecord
		err := s.view(func(st *State) error {
			var err error
			rec, err = st.Executions.Get(recId)
			return err
		})
		if err != nil || rec.Status != ExecutionPending {
			continue
		}
		execErr := s.executor.Execute(ctx, rec.Program)
		err = s.commit("finish_execution", func(tx *txn) error {
			cur, err := tx.Executions.Get(recId)
			if err != nil {
				return err
			}
			if cur.Status != ExecutionPending {
				return nil
			}
			cur.finish(execErr, tx.now)
			tx.Executions.Save(cur)
			tx.onCommit = append(tx.onCommit, func() {
				s.metrics.executionsTotal.WithLabelValues(cur.Status.String()).Inc()
			})
			evt := event.ChoiceExecutedEvent{
				VotingId: cur.VotingId,
				ChoiceId: cur.ChoiceId,
				Success:  execErr == nil,
			}
			if execErr != nil {
				evt.Error = execErr.Error()
			}
			tx.emit(event.ChoiceExecutedEventType, evt)
			return nil
		})
		if err != nil {
			s.logger.Error(
				"failed to record execution result",
				"component", "governance",
				"execution", recId,
				"error", err,
			)
			continue
		}
		if execErr != nil {
			s.logger.Warn(
				"winning choice program failed",
				"component", "governance",
				"voting", rec.VotingId,
				"choice", rec.ChoiceId,
				"error", execErr,
			)
		}
	}
}

// ListExecutions returns the execution records of a voting
func (s *Service) ListExecutions(ctx context.Context, votingId types.Id) ([]*ExecutionRecord, error) {
	var ret []*ExecutionRecord
	err := s.run(ctx, "list_executions", "", func(context.Context) error {
		return s.view(func(st *State) error {
			ret = slices.Collect(st.Executions.ByVoting(votingId))
			return nil
		})
	})
	return ret, err
}

// Resume prepares a restored state: executions cut short by a restart are
// marked failed and round timers are armed again
func (s *Service) Resume(ctx context.Context) error {
	return s.run(ctx, "resume", "", func(context.Context) error {
		return s.commit("resume", func(tx *txn) error {
			interrupted := 0
			for rec := range tx.Executions.ByStatus(ExecutionPending) {
				rec.Status = ExecutionFailed
				rec.Error = ExecutionInterrupted
				rec.FinishedAt = tx.now
				tx.Executions.Save(rec)
				interrupted++
			}
			armed := 0
			for v := range tx.Votings.All() {
				if !v.Status.Is(voting.StatusPreRound) && !v.Status.Is(voting.StatusRound) {
					continue
				}
				s.armTimers(tx, v, mustVotingConfig(tx.State, v))
				armed++
			}
			s.logger.Info(
				"governance state resumed",
				"component", "governance",
				"votings", tx.Votings.Len(),
				"armed", armed,
				"interrupted_executions", interrupted,
			)
			return nil
		})
	})
}

// transitioned publishes a status change and keeps the round timers in
// line with the new status
func (s *Service) transitioned(
	tx *txn,
	v *voting.Voting,
	vc *votingconfig.VotingConfig,
	from voting.Status,
) {
	status := v.Status
	tx.onCommit = append(tx.onCommit, func() {
		s.metrics.transitionsTotal.WithLabelValues(status.Kind.String()).Inc()
	})
	s.armTimers(tx, v, vc)
	tx.emit(event.VotingStatusEventType, event.VotingStatusEvent{
		VotingId: v.ID,
		From:     from.String(),
		To:       status.String(),
		Winners:  slices.Clone(v.Winners),
	})
}

func startTimerName(id types.Id) string {
	return fmt.Sprintf("voting/%d/start", id)
}

func endTimerName(id types.Id) string {
	return fmt.Sprintf("voting/%d/end", id)
}

func (s *Service) armTimers(tx *txn, v *voting.Voting, vc *votingconfig.VotingConfig) {
	if s.timers == nil {
		return
	}
	id := v.ID
	if at, ok := v.RoundStartsAt(vc); ok {
		tx.onCommit = append(tx.onCommit, func() {
			s.timers.Cancel(endTimerName(id))
			s.timers.Schedule(startTimerName(id), at, func() {
				s.onTimer(opStartRound, id, s.StartRound)
			})
		})
		return
	}
	if at, ok := v.RoundEndsAt(vc); ok {
		tx.onCommit = append(tx.onCommit, func() {
			s.timers.Cancel(startTimerName(id))
			s.timers.Schedule(endTimerName(id), at, func() {
				s.onTimer(opResolveRound, id, s.ResolveRound)
			})
		})
		return
	}
	s.cancelTimers(tx, id)
}

func (s *Service) cancelTimers(tx *txn, id types.Id) {
	if s.timers == nil {
		return
	}
	tx.onCommit = append(tx.onCommit, func() {
		s.timers.Cancel(startTimerName(id))
		s.timers.Cancel(endTimerName(id))
	})
}

const (
	opStartRound   = "start_round"
	opResolveRound = "resolve_round"
)

func (s *Service) onTimer(
	op string,
	id types.Id,
	fn func(context.Context, types.Id) error,
) {
	if err := fn(context.Background(), id); err != nil {
		s.logger.Warn(
			"scheduled voting transition failed",
			"component", "governance",
			"operation", op,
			"voting", id,
			"error", err,
		)
	}
}

// thresholdScopes lists the distinct scopes the config's thresholds target
func thresholdScopes(vc *votingconfig.VotingConfig) []types.GroupOrProfile {
	var ret []types.GroupOrProfile
	for _, t := range []votingconfig.ThresholdValue{
		vc.Approval,
		vc.Rejection,
		vc.Quorum,
		vc.Win,
		vc.NextRound,
	} {
		if t.Target != nil && !slices.Contains(ret, *t.Target) {
			ret = append(ret, *t.Target)
		}
	}
	return ret
}

// electorate lists the scopes whose supplies a voting is judged against:
// the scopes the thresholds target and every scope admitted to vote
func electorate(st *State, vc *votingconfig.VotingConfig) []types.GroupOrProfile {
	ret := thresholdScopes(vc)
	for _, gop := range st.Gate().Electorate(vc.Permissions) {
		if !slices.Contains(ret, gop) {
			ret = append(ret, gop)
		}
	}
	return ret
}

// electorateSupplies fetches the total supply of every electorate scope of
// a voting
func (s *Service) electorateSupplies(
	ctx context.Context,
	votingId types.Id,
) (map[types.GroupOrProfile]types.Shares, error) {
	var scopes []types.GroupOrProfile
	err := s.view(func(st *State) error {
		v, err := st.Votings.Get(votingId)
		if err != nil {
			return err
		}
		vc, err := st.VotingConfigs.Get(v.VotingConfigId)
		if err != nil {
			return err
		}
		scopes = electorate(st, vc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ret := make(map[types.GroupOrProfile]types.Shares, len(scopes))
	for _, gop := range scopes {
		supply, err := s.totalSupply(ctx, gop)
		if err != nil {
			return nil, err
		}
		ret[gop] = supply
	}
	return ret, nil
}

func mustVotingConfig(st *State, v *voting.Voting) *votingconfig.VotingConfig {
	vc, err := st.VotingConfigs.Get(v.VotingConfigId)
	if err != nil {
		panic(types.NewDataIntegrityFault(
			fmt.Sprintf("voting %d: %s", v.ID, err),
		))
	}
	return vc
}

func mustChoice(st *State, id types.Id) *voting.Choice {
	c, err := st.Choices.Get(id)
	if err != nil {
		panic(types.NewDataIntegrityFault(err.Error()))
	}
	return c
}

// customChoice loads a custom choice and the voting owning it
func customChoice(st *State, choiceId types.Id) (*voting.Choice, *voting.Voting, error) {
	c, err := st.Choices.Get(choiceId)
	if err != nil {
		return nil, nil, err
	}
	v, err := st.Votings.Get(c.VotingId)
	if err != nil {
		return nil, nil, err
	}
	if !v.HasCustomChoice(choiceId) {
		return nil, nil, fmt.Errorf("%w: %d is a builtin choice", voting.ErrChoiceNotFound, choiceId)
	}
	return c, v, nil
}
