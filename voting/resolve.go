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

package voting

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/votingconfig"
	"github.com/shopspring/decimal"
)

// Evaluator judges a threshold against the shares achieved per scope and
// the total supply recorded per scope
type Evaluator interface {
	Met(
		threshold votingconfig.ThresholdValue,
		achieved map[types.GroupOrProfile]types.Shares,
		supplies map[types.GroupOrProfile]types.Shares,
	) bool
}

// AggregateEvaluator sums achieved shares and supplies over the threshold's
// target scope, or over every scope when the threshold has no target
type AggregateEvaluator struct{}

func (AggregateEvaluator) Met(
	threshold votingconfig.ThresholdValue,
	achieved map[types.GroupOrProfile]types.Shares,
	supplies map[types.GroupOrProfile]types.Shares,
) bool {
	var got, supply decimal.Decimal
	if threshold.Target != nil {
		got = decimal.NewFromUint64(uint64(achieved[*threshold.Target]))
		supply = decimal.NewFromUint64(uint64(supplies[*threshold.Target]))
	} else {
		got = sumShares(achieved)
		supply = sumShares(supplies)
	}
	switch threshold.Kind {
	case votingconfig.ThresholdKindQuantityOf:
		return got.GreaterThanOrEqual(decimal.NewFromUint64(uint64(threshold.Quantity)))
	case votingconfig.ThresholdKindFractionOf:
		return got.GreaterThanOrEqual(threshold.Fraction.Mul(supply))
	default:
		return false
	}
}

func sumShares(m map[types.GroupOrProfile]types.Shares) decimal.Decimal {
	ret := decimal.Zero
	for _, s := range m {
		ret = ret.Add(decimal.NewFromUint64(uint64(s)))
	}
	return ret
}

// Participation sums the per-scope tallies of the given choices
func Participation(choices ...*Choice) map[types.GroupOrProfile]types.Shares {
	ret := make(map[types.GroupOrProfile]types.Shares)
	for _, c := range choices {
		for gop, s := range c.VotedSharesSum {
			ret[gop] = ret[gop].Add(s)
		}
	}
	return ret
}

const (
	ReasonRejected        = "rejected"
	ReasonNotEnoughVotes  = "not enough votes"
	ReasonRoundsExhausted = "rounds exhausted"
)

type OutcomeKind uint8

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNextRound
	OutcomeFail
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNextRound:
		return "next_round"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Outcome is the verdict for a finished round
type Outcome struct {
	Kind    OutcomeKind
	Winners []types.Id
	Reason  string
}

// ApprovalMet reports whether the approval choice gathered enough weight
// for the voting to leave the Created status
func ApprovalMet(
	v *Voting,
	cfg *votingconfig.VotingConfig,
	approval *Choice,
	ev Evaluator,
) bool {
	if approval.Total() == 0 {
		return false
	}
	return ev.Met(cfg.Approval, approval.Tally(), v.ApprovalSupplies)
}

// Resolve judges a voting at the end of its current round. The rejection
// threshold is checked first, then quorum together with the win threshold,
// then the next round threshold.
func Resolve(
	v *Voting,
	cfg *votingconfig.VotingConfig,
	choices map[types.Id]*Choice,
	ev Evaluator,
) Outcome {
	if !v.Status.Is(StatusRound) {
		panic(types.NewDataIntegrityFault("resolving a voting that is not in a round"))
	}
	rejection := v.choice(choices, v.RejectionChoice)
	custom := make([]*Choice, 0, len(v.CustomChoices))
	for _, id := range v.CustomChoices {
		custom = append(custom, v.choice(choices, id))
	}

	if rejection.Total() > 0 && ev.Met(cfg.Rejection, rejection.Tally(), v.TotalSupplies) {
		return Outcome{Kind: OutcomeFail, Reason: ReasonRejected}
	}

	if ev.Met(cfg.Quorum, Participation(custom...), v.TotalSupplies) {
		var candidates []*Choice
		for _, c := range custom {
			if c.Total() > 0 && ev.Met(cfg.Win, c.Tally(), v.TotalSupplies) {
				candidates = append(candidates, c)
			}
		}
		if uint32(len(candidates)) >= v.WinnersNeed {
			slices.SortFunc(candidates, func(a, b *Choice) int {
				return cmp.Or(
					cmp.Compare(b.Total(), a.Total()),
					cmp.Compare(a.ID, b.ID),
				)
			})
			winners := make([]types.Id, 0, v.WinnersNeed)
			for _, c := range candidates[:v.WinnersNeed] {
				winners = append(winners, c.ID)
			}
			return Outcome{Kind: OutcomeSuccess, Winners: winners}
		}
	}

	if !cfg.Round.HasRoundAfter(v.Status.Round) {
		return Outcome{Kind: OutcomeFail, Reason: ReasonRoundsExhausted}
	}
	all := append([]*Choice{rejection}, custom...)
	participation := Participation(all...)
	if len(participation) > 0 && ev.Met(cfg.NextRound, participation, v.TotalSupplies) {
		return Outcome{Kind: OutcomeNextRound}
	}
	return Outcome{Kind: OutcomeFail, Reason: ReasonNotEnoughVotes}
}

// Apply moves the voting to the status the outcome describes
func (v *Voting) Apply(o Outcome, now time.Time) error {
	switch o.Kind {
	case OutcomeSuccess:
		return v.FinishSuccess(o.Winners, now)
	case OutcomeNextRound:
		return v.NextRound(now)
	case OutcomeFail:
		return v.FinishFail(o.Reason, now)
	default:
		panic(types.NewDataIntegrityFault("unknown outcome"))
	}
}

// SupplyScopes returns the scopes with a recorded supply in a stable order
func (v *Voting) SupplyScopes() []types.GroupOrProfile {
	ret := slices.Collect(maps.Keys(v.TotalSupplies))
	slices.SortFunc(ret, func(a, b types.GroupOrProfile) int {
		return cmp.Compare(a.String(), b.String())
	})
	return ret
}
