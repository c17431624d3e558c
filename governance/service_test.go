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

package governance_test

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
	"github.com/blinklabs-io/guild/ledger"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
	"github.com/blinklabs-io/guild/votingconfig"
)

const wallet types.Principal = "wallet"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTask struct {
	at   time.Time
	task func()
}

// fakeTimers records scheduled tasks so tests fire them explicitly
type fakeTimers struct {
	mu    sync.Mutex
	tasks map[string]fakeTask
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{tasks: make(map[string]fakeTask)}
}

func (f *fakeTimers) Schedule(name string, at time.Time, task func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[name] = fakeTask{at: at, task: task}
}

func (f *fakeTimers) Cancel(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[name]
	delete(f.tasks, name)
	return ok
}

func (f *fakeTimers) At(name string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[name]
	return t.at, ok
}

func (f *fakeTimers) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := make([]string, 0, len(f.tasks))
	for name := range f.tasks {
		ret = append(ret, name)
	}
	slices.Sort(ret)
	return ret
}

func (f *fakeTimers) Fire(t *testing.T, name string) {
	f.mu.Lock()
	entry, ok := f.tasks[name]
	delete(f.tasks, name)
	f.mu.Unlock()
	require.True(t, ok, "timer %s is not scheduled", name)
	entry.task()
}

type recordingExecutor struct {
	mu       sync.Mutex
	programs []types.Program
	err      error
}

func (e *recordingExecutor) Execute(_ context.Context, program types.Program) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs = append(e.programs, program)
	return e.err
}

type fixture struct {
	svc      *governance.Service
	ledger   *ledger.MemoryLedger
	timers   *fakeTimers
	executor *recordingExecutor
	clock    *fakeClock
	registry *prometheus.Registry
	permId   types.Id
	configId types.Id
}

var transferProgram = types.CallSequence(types.RemoteCall{
	Endpoint: types.Endpoint{Actor: wallet, Method: "transfer"},
	Args:     []byte{0x01},
})

// newFixture builds a wallet administered by alice, with a group 1 held by
// bob (60) and carol (40), and a voting config judging every threshold on
// group 1
func newFixture(t *testing.T, opts ...governance.ServiceOptionFunc) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		ledger:   ledger.NewMemoryLedger(),
		timers:   newFakeTimers(),
		executor: &recordingExecutor{},
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		registry: prometheus.NewRegistry(),
	}
	f.ledger.SetBalance(types.Profile("alice"), "alice", 100)
	f.ledger.SetBalance(types.Group(1), "bob", 60)
	f.ledger.SetBalance(types.Group(1), "carol", 40)
	svc, err := governance.NewService(
		wallet,
		f.ledger,
		append([]governance.ServiceOptionFunc{
			governance.WithTimers(f.timers),
			governance.WithExecutor(f.executor),
			governance.WithClock(f.clock.Now),
			governance.WithPromRegistry(f.registry),
		}, opts...)...,
	)
	require.NoError(t, err)
	f.svc = svc
	require.NoError(t, svc.Bootstrap(ctx, "alice"))

	f.permId, err = svc.CreatePermission(
		ctx,
		"alice",
		"Treasury",
		[]permission.Target{
			permission.SelfEmptyProgram(),
			permission.EndpointTarget(types.Endpoint{Actor: wallet, Method: "transfer"}),
		},
		permission.ScopeWhitelist,
	)
	require.NoError(t, err)
	_, err = svc.CreateAccessConfig(
		ctx,
		"alice",
		"Members",
		"group members and alice",
		[]types.Id{f.permId},
		[]accessconfig.Allowee{
			accessconfig.ProfileAllowee("alice"),
			accessconfig.GroupAllowee(1, 1),
		},
	)
	require.NoError(t, err)
	group := types.Group(1)
	f.configId, err = svc.CreateVotingConfig(ctx, "alice", votingconfig.Params{
		Name:         "Treasury",
		ChoicesCount: &votingconfig.LenInterval{Min: 1, Max: 3},
		WinnersCount: &votingconfig.LenInterval{Min: 1, Max: 1},
		Round: votingconfig.RoundSettings{
			RoundDuration: time.Hour,
			RoundDelay:    time.Minute,
			MaxRounds:     3,
		},
		Permissions: []types.Id{f.permId},
		Approval:    votingconfig.QuantityOf(1),
		Rejection:   votingconfig.Percent(50).For(group),
		Quorum:      votingconfig.Percent(50).For(group),
		Win:         votingconfig.Percent(50).For(group),
		NextRound:   votingconfig.Percent(10).For(group),
	})
	require.NoError(t, err)
	return f
}

// newRunningVoting creates a voting with one transfer choice and drives it
// into Round(1)
func (f *fixture) newRunningVoting(t *testing.T) (types.Id, types.Id) {
	t.Helper()
	ctx := context.Background()
	votingId, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: f.configId,
		Name:           "Pay the auditor",
		StartCondition: voting.DelayAfterApproval(time.Minute),
		WinnersNeed:    1,
	})
	require.NoError(t, err)
	choiceId, err := f.svc.CreateChoice(ctx, "alice", votingId, "Pay", "send funds", transferProgram)
	require.NoError(t, err)
	require.NoError(t, f.svc.ApproveVoting(ctx, "alice", votingId))
	f.clock.Advance(time.Minute)
	f.timers.Fire(t, timerName(votingId, "start"))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	require.Equal(t, voting.Round(1), v.Status)
	return votingId, choiceId
}

func timerName(id types.Id, kind string) string {
	return "voting/" + strconv.FormatUint(uint64(id), 10) + "/" + kind
}

func TestBootstrapAndAdminGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreatePermission(
		ctx,
		"mallory",
		"Sneaky",
		[]permission.Target{permission.RemoteActor("elsewhere")},
		permission.ScopeWhitelist,
	)
	require.ErrorIs(t, err, types.ErrPermissionDenied)

	page, err := f.svc.ListPermissions(ctx, permission.PageRequest{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, governance.DefaultPermissionName, page.Data[0].Name)
	assert.False(t, page.HasNext)

	// Bootstrapping again leaves the state alone
	require.NoError(t, f.svc.Bootstrap(ctx, "mallory"))
	acs, err := f.svc.ListAccessConfigs(ctx, accessconfig.PageRequest{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, acs.Data, 2)
}

func TestGroupAlloweeNeedsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateAccessConfig(
		ctx,
		"alice",
		"Whales",
		"",
		[]types.Id{1},
		[]accessconfig.Allowee{accessconfig.GroupAllowee(1, 50)},
	)
	require.NoError(t, err)

	// bob holds 60 shares of group 1 and may administer
	_, err = f.svc.CreatePermission(
		ctx,
		"bob",
		"Bob's",
		[]permission.Target{permission.RemoteActor("dex")},
		permission.ScopeWhitelist,
	)
	require.NoError(t, err)

	// carol holds 40
	_, err = f.svc.CreatePermission(
		ctx,
		"carol",
		"Carol's",
		[]permission.Target{permission.RemoteActor("dex")},
		permission.ScopeWhitelist,
	)
	require.ErrorIs(t, err, types.ErrPermissionDenied)
}

func TestRemovePermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.RemovePermission(ctx, "alice", f.permId)
	require.ErrorIs(t, err, governance.ErrPermissionInUse)

	err = f.svc.RemovePermission(ctx, "alice", 99)
	require.ErrorIs(t, err, types.ErrNotFound)

	id, err := f.svc.CreatePermission(
		ctx,
		"alice",
		"Unused",
		[]permission.Target{permission.RemoteActor("dex")},
		permission.ScopeBlacklist,
	)
	require.NoError(t, err)
	require.NoError(t, f.svc.RemovePermission(ctx, "alice", id))
	_, err = f.svc.GetPermission(ctx, id)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCannotReferenceMissingPermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateAccessConfig(
		ctx,
		"alice",
		"Broken",
		"",
		[]types.Id{42},
		[]accessconfig.Allowee{accessconfig.Everyone()},
	)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestVotingLifecycleSuccess(t *testing.T) {
	ctx := context.Background()
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	var (
		mu       sync.Mutex
		statuses []string
	)
	bus.SubscribeFunc(event.VotingStatusEventType, func(evt event.Event) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, evt.Data.(event.VotingStatusEvent).To)
	})
	f := newFixture(t, governance.WithEventBus(bus))

	votingId, choiceId := f.newRunningVoting(t)
	endAt, ok := f.timers.At(timerName(votingId, "end"))
	require.True(t, ok)
	assert.Equal(t, f.clock.Now().Add(time.Hour), endAt)

	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 60}),
	))
	f.clock.Advance(time.Hour)
	f.timers.Fire(t, timerName(votingId, "end"))

	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.StatusSuccess, v.Status.Kind)
	assert.Equal(t, []types.Id{choiceId}, v.Winners)
	assert.Empty(t, f.timers.Names())

	execs, err := f.svc.ListExecutions(ctx, votingId)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, governance.ExecutionExecuted, execs[0].Status)
	assert.Equal(t, choiceId, execs[0].ChoiceId)
	require.Len(t, f.executor.programs, 1)
	assert.Equal(t, transferProgram, f.executor.programs[0])

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"pre_round(1)", "round(1)", "success"}, statuses)
	mu.Unlock()
}

func TestFailedExecutionIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.executor.err = errors.New("transfer rejected")
	votingId, choiceId := f.newRunningVoting(t)
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 60}),
	))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))

	execs, err := f.svc.ListExecutions(ctx, votingId)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, governance.ExecutionFailed, execs[0].Status)
	assert.Equal(t, "transfer rejected", execs[0].Error)
	assert.False(t, execs[0].FinishedAt.IsZero())
}

func TestLowParticipationGoesToNextRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)
	// 20 of 100 group shares: below quorum, above the next round threshold
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 20}),
	))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.PreRound(2), v.Status)
	startAt, ok := f.timers.At(timerName(votingId, "start"))
	require.True(t, ok)
	assert.Equal(t, f.clock.Now().Add(time.Minute), startAt)
}

func TestGroupSupplyMayChangeBetweenRounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)
	bobVotes := func(shares types.Shares) voting.Vote {
		return voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: shares})
	}
	require.NoError(t, f.svc.CastVote(ctx, "bob", votingId, bobVotes(20)))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))

	// dave joins group 1 while the voting waits for its second round
	f.ledger.SetBalance(types.Group(1), "dave", 10)
	require.NoError(t, f.svc.StartRound(ctx, votingId))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.Round(2), v.Status)
	assert.Equal(t, types.Shares(110), v.TotalSupplies[types.Group(1)])

	require.NoError(t, f.svc.CastVote(ctx, "bob", votingId, bobVotes(60)))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))
	v, err = f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.StatusSuccess, v.Status.Kind)
	assert.Equal(t, []types.Id{choiceId}, v.Winners)
}

func TestSilentGroupCountsTowardQuorum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SetBalance(types.Group(2), "erin", 1000)
	_, err := f.svc.CreateAccessConfig(
		ctx,
		"alice",
		"Whales",
		"group 2 members",
		[]types.Id{f.permId},
		[]accessconfig.Allowee{accessconfig.GroupAllowee(2, 1)},
	)
	require.NoError(t, err)
	configId, err := f.svc.CreateVotingConfig(ctx, "alice", votingconfig.Params{
		Name:         "Open",
		ChoicesCount: &votingconfig.LenInterval{Min: 1, Max: 3},
		WinnersCount: &votingconfig.LenInterval{Min: 1, Max: 1},
		Round: votingconfig.RoundSettings{
			RoundDuration: time.Hour,
			RoundDelay:    time.Minute,
			MaxRounds:     3,
		},
		Permissions: []types.Id{f.permId},
		Approval:    votingconfig.QuantityOf(1),
		Rejection:   votingconfig.Percent(50),
		Quorum:      votingconfig.Percent(25),
		Win:         votingconfig.Percent(25),
		NextRound:   votingconfig.Percent(1),
	})
	require.NoError(t, err)
	votingId, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: configId,
		Name:           "Open treasury",
		StartCondition: voting.DelayAfterApproval(time.Minute),
		WinnersNeed:    1,
	})
	require.NoError(t, err)
	choiceId, err := f.svc.CreateChoice(ctx, "alice", votingId, "Pay", "send funds", transferProgram)
	require.NoError(t, err)
	require.NoError(t, f.svc.ApproveVoting(ctx, "alice", votingId))
	require.NoError(t, f.svc.StartRound(ctx, votingId))

	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	require.Equal(t, voting.Round(1), v.Status)
	assert.Equal(t, map[types.GroupOrProfile]types.Shares{
		types.Group(1):         100,
		types.Group(2):         1000,
		types.Profile("alice"): 100,
	}, v.TotalSupplies)
	assert.Equal(t, types.Shares(100), v.ApprovalSupplies[types.Profile("alice")])

	// 60 of 1200 eligible shares: short of the quorum
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 60}),
	))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))
	v, err = f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.PreRound(2), v.Status)
	assert.Empty(t, v.Winners)
}

func TestRejectionEndsVoting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, _ := f.newRunningVoting(t)
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.RejectionVote(voting.GroupVoter(1, "bob"), 60),
	))
	require.NoError(t, f.svc.ResolveRound(ctx, votingId))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.Fail(voting.ReasonRejected), v.Status)
}

func TestCastVoteChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)

	err := f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 61}),
	)
	require.ErrorIs(t, err, governance.ErrInsufficientShares)

	err = f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "carol"), map[types.Id]types.Shares{choiceId: 1}),
	)
	require.ErrorIs(t, err, governance.ErrVoterMismatch)

	// dave holds nothing anywhere
	err = f.svc.CastVote(
		ctx,
		"dave",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "dave"), map[types.Id]types.Shares{choiceId: 1}),
	)
	require.ErrorIs(t, err, types.ErrPermissionDenied)

	err = f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{999: 1}),
	)
	require.ErrorIs(t, err, voting.ErrChoiceNotFound)
}

func TestChangedGroupSupplyAbortsVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 30}),
	))
	before, err := f.svc.Snapshot()
	require.NoError(t, err)

	f.ledger.SetBalance(types.Group(1), "carol", 30)
	err = f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 50}),
	)
	require.ErrorIs(t, err, governance.ErrOperationAborted)

	after, err := f.svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	c, err := f.svc.GetChoice(ctx, choiceId)
	require.NoError(t, err)
	assert.Equal(t, types.Shares(30), c.Total())
	expected := `
# HELP guild_governance_aborted_total operations aborted by a data integrity fault
# TYPE guild_governance_aborted_total counter
guild_governance_aborted_total 1
`
	require.NoError(t, testutil.GatherAndCompare(
		f.registry,
		strings.NewReader(expected),
		"guild_governance_aborted_total",
	))
}

func TestChoicesFrozenDuringRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)

	_, err := f.svc.CreateChoice(ctx, "alice", votingId, "Late", "", types.EmptyProgram())
	require.ErrorIs(t, err, voting.ErrVotingInInvalidStatus)

	name := "Renamed"
	err = f.svc.UpdateChoice(ctx, "alice", choiceId, governance.ChoiceUpdate{Name: &name})
	require.ErrorIs(t, err, voting.ErrVotingInInvalidStatus)

	err = f.svc.DeleteVoting(ctx, "alice", votingId)
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestChoiceRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: f.configId,
		Name:           "Choices",
		StartCondition: voting.DelayAfterApproval(0),
		WinnersNeed:    1,
	})
	require.NoError(t, err)

	// Not covered by the voting config permissions
	_, err = f.svc.CreateChoice(
		ctx,
		"alice",
		votingId,
		"Swap",
		"",
		types.CallSequence(types.RemoteCall{Endpoint: types.Endpoint{Actor: "dex", Method: "swap"}}),
	)
	require.ErrorIs(t, err, governance.ErrProgramNotAllowed)

	for i := range 3 {
		_, err = f.svc.CreateChoice(ctx, "alice", votingId, "Option "+strconv.Itoa(i+1), "", types.EmptyProgram())
		require.NoError(t, err)
	}
	_, err = f.svc.CreateChoice(ctx, "alice", votingId, "One too many", "", types.EmptyProgram())
	require.ErrorIs(t, err, governance.ErrTooManyChoices)

	choices, err := f.svc.ListChoices(ctx, votingId)
	require.NoError(t, err)
	require.Len(t, choices, 5)
	assert.Equal(t, voting.RejectionChoiceName, choices[0].Name)
	assert.Equal(t, voting.ApprovalChoiceName, choices[1].Name)

	// Builtin choices can't be deleted
	err = f.svc.DeleteChoice(ctx, "alice", choices[0].ID)
	require.ErrorIs(t, err, voting.ErrChoiceNotFound)

	require.NoError(t, f.svc.DeleteChoice(ctx, "alice", choices[4].ID))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Len(t, v.CustomChoices, 2)

	// Only the proposer and admitted callers edit the voting
	err = f.svc.DeleteChoice(ctx, "dave", choices[3].ID)
	require.ErrorIs(t, err, types.ErrPermissionDenied)
}

func TestNotEnoughChoicesFailsAtRoundStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: f.configId,
		Name:           "Empty",
		StartCondition: voting.DelayAfterApproval(0),
		WinnersNeed:    1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.ApproveVoting(ctx, "alice", votingId))
	require.NoError(t, f.svc.StartRound(ctx, votingId))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.Fail(governance.ReasonNotEnoughChoices), v.Status)
	assert.Empty(t, f.timers.Names())
}

func TestWinnersNeedBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: f.configId,
		Name:           "Two winners",
		StartCondition: voting.DelayAfterApproval(0),
		WinnersNeed:    2,
	})
	require.ErrorIs(t, err, governance.ErrWinnersNeed)
}

func TestDeleteVotingCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, err := f.svc.CreateVoting(ctx, "alice", voting.Params{
		VotingConfigId: f.configId,
		Name:           "Short lived",
		StartCondition: voting.DelayAfterApproval(0),
		WinnersNeed:    1,
	})
	require.NoError(t, err)
	choiceId, err := f.svc.CreateChoice(ctx, "alice", votingId, "Only", "", types.EmptyProgram())
	require.NoError(t, err)

	err = f.svc.DeleteVotingConfig(ctx, "alice", f.configId)
	require.ErrorIs(t, err, governance.ErrVotingConfigInUse)

	require.NoError(t, f.svc.DeleteVoting(ctx, "alice", votingId))
	_, err = f.svc.GetChoice(ctx, choiceId)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.svc.GetVoting(ctx, votingId)
	require.ErrorIs(t, err, types.ErrNotFound)
	require.NoError(t, f.svc.DeleteVotingConfig(ctx, "alice", f.configId))
}

func TestRejectVoting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, _ := f.newRunningVoting(t)
	require.ErrorIs(t, f.svc.RejectVoting(ctx, "dave", votingId), types.ErrPermissionDenied)
	require.NoError(t, f.svc.RejectVoting(ctx, "alice", votingId))
	v, err := f.svc.GetVoting(ctx, votingId)
	require.NoError(t, err)
	assert.Equal(t, voting.Rejected(), v.Status)
	assert.Empty(t, f.timers.Names())
	require.ErrorIs(t, f.svc.RejectVoting(ctx, "alice", votingId), voting.ErrVotingInInvalidStatus)
}

func TestSnapshotRestoreResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	votingId, choiceId := f.newRunningVoting(t)
	require.NoError(t, f.svc.CastVote(
		ctx,
		"bob",
		votingId,
		voting.CustomVote(voting.GroupVoter(1, "bob"), map[types.Id]types.Shares{choiceId: 45}),
	))
	data, err := f.svc.Snapshot()
	require.NoError(t, err)

	state, err := governance.RestoreState(data)
	require.NoError(t, err)
	timers := newFakeTimers()
	restored, err := governance.NewService(
		wallet,
		f.ledger,
		governance.WithState(state),
		governance.WithTimers(timers),
		governance.WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	require.NoError(t, restored.Resume(ctx))
	assert.Equal(t, []string{timerName(votingId, "end")}, timers.Names())

	again, err := restored.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	// Votes carry over and ids keep counting
	c, err := restored.GetChoice(ctx, choiceId)
	require.NoError(t, err)
	assert.Equal(t, types.Shares(45), c.VoterShares(types.Group(1), "bob"))
	id, err := restored.CreatePermission(
		ctx,
		"alice",
		"After restore",
		[]permission.Target{permission.RemoteActor("dex")},
		permission.ScopeWhitelist,
	)
	require.NoError(t, err)
	assert.Equal(t, types.Id(3), id)
}

func TestRestoreRejectsGarbage(t *testing.T) {
	_, err := governance.RestoreState([]byte{0x01, 0x02})
	require.ErrorIs(t, err, governance.ErrInvalidSnapshot)
}
