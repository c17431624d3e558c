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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/codec"
	"github.com/blinklabs-io/guild/governance"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
	"github.com/blinklabs-io/guild/votingconfig"
)

func TestBootstrapWithoutAdmin(t *testing.T) {
	st := governance.NewState()
	created, err := st.Bootstrap(wallet, "")
	require.NoError(t, err)
	require.True(t, created)

	ac, err := st.AccessConfigs.Get(1)
	require.NoError(t, err)
	assert.Equal(t, governance.DefaultAccessConfigName, ac.Name)
	assert.Equal(t, []accessconfig.Allowee{accessconfig.Everyone()}, ac.Allowees)

	d := st.Gate().CheckEndpoint("anyone", types.Endpoint{Actor: wallet, Method: "create_permission"})
	assert.True(t, d.Allowed)

	created, err = st.Bootstrap(wallet, "alice")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	data, err := codec.Marshal(map[int]any{1: governance.SnapshotVersion + 1})
	require.NoError(t, err)
	_, err = governance.RestoreState(data)
	require.ErrorIs(t, err, governance.ErrInvalidSnapshot)
}

func TestRestoreRejectsDanglingVotingConfig(t *testing.T) {
	st := governance.NewState()
	_, err := st.Bootstrap(wallet, "alice")
	require.NoError(t, err)
	vc, err := st.VotingConfigs.Create(votingconfig.Params{
		Name:        "Plain",
		Round:       votingconfig.RoundSettings{RoundDuration: time.Hour},
		Permissions: []types.Id{1},
		Approval:    votingconfig.QuantityOf(0),
		Rejection:   votingconfig.Percent(50),
		Quorum:      votingconfig.Percent(50),
		Win:         votingconfig.Percent(50),
		NextRound:   votingconfig.Percent(10),
	})
	require.NoError(t, err)
	v, err := voting.New(voting.Params{
		VotingConfigId: vc.ID,
		Proposer:       "alice",
		Name:           "Orphan",
		StartCondition: voting.DelayAfterApproval(0),
		WinnersNeed:    1,
	}, time.Now())
	require.NoError(t, err)
	st.Votings.Save(v)
	rejection, approval := v.NewBuiltinChoices()
	st.Choices.Save(rejection)
	st.Choices.Save(approval)
	v.AttachChoices(rejection, approval)
	st.Votings.Save(v)

	data, err := st.Snapshot()
	require.NoError(t, err)
	restored, err := governance.RestoreState(data)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Votings.Len())
	assert.Equal(t, 2, restored.Choices.Len())

	_, err = st.VotingConfigs.Delete(vc.ID)
	require.NoError(t, err)
	data, err = st.Snapshot()
	require.NoError(t, err)
	_, err = governance.RestoreState(data)
	require.ErrorIs(t, err, governance.ErrInvalidSnapshot)
}
