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
	"fmt"

	"github.com/blinklabs-io/guild/types"
)

type VoterKind uint8

const (
	VoterProfile VoterKind = iota
	VoterGroup
)

// Voter is either a profile voting with its own weight or a delegate
// voting with the weight of a group
type Voter struct {
	Kind    VoterKind       `cbor:"1,keyasint"`
	Profile types.Principal `cbor:"2,keyasint"`
	Group   types.Id        `cbor:"3,keyasint,omitempty"`
}

func ProfileVoter(p types.Principal) Voter {
	return Voter{Kind: VoterProfile, Profile: p}
}

func GroupVoter(group types.Id, delegate types.Principal) Voter {
	return Voter{Kind: VoterGroup, Profile: delegate, Group: group}
}

// Scope resolves the voter into the scope its weight is measured in and
// the identity its shares are recorded under
func (v Voter) Scope() (types.GroupOrProfile, types.Principal) {
	if v.Kind == VoterGroup {
		return types.Group(v.Group), v.Profile
	}
	return types.Profile(v.Profile), v.Profile
}

func (v Voter) Validate() error {
	switch v.Kind {
	case VoterProfile:
		if v.Profile == "" || v.Group != 0 {
			return types.NewValidationError("voter", "profile voter requires only a principal")
		}
	case VoterGroup:
		if v.Profile == "" || v.Group == 0 {
			return types.NewValidationError("voter", "group voter requires a group and a delegate")
		}
	default:
		return types.NewValidationError("voter", fmt.Sprintf("unknown kind %d", v.Kind))
	}
	return nil
}

type VoteKind uint8

const (
	VoteRejection VoteKind = iota
	VoteCustom
)

// Vote is a ballot: either shares against the voting or shares spread over
// custom choices
type Vote struct {
	Voter  Voter                     `cbor:"1,keyasint"`
	Kind   VoteKind                  `cbor:"2,keyasint"`
	Shares types.Shares              `cbor:"3,keyasint,omitempty"`
	Custom map[types.Id]types.Shares `cbor:"4,keyasint,omitempty"`
}

func RejectionVote(voter Voter, shares types.Shares) Vote {
	return Vote{Voter: voter, Kind: VoteRejection, Shares: shares}
}

func CustomVote(voter Voter, custom map[types.Id]types.Shares) Vote {
	return Vote{Voter: voter, Kind: VoteCustom, Custom: custom}
}

func (v Vote) Validate() error {
	if err := v.Voter.Validate(); err != nil {
		return err
	}
	switch v.Kind {
	case VoteRejection:
		if v.Shares == 0 {
			return types.NewValidationError("vote.shares", "must be positive")
		}
	case VoteCustom:
		if len(v.Custom) == 0 {
			return types.NewValidationError("vote.custom", "must name at least one choice")
		}
		var total types.Shares
		for id, s := range v.Custom {
			if s == 0 {
				return types.NewValidationError(
					"vote.custom",
					fmt.Sprintf("shares for choice %d must be positive", id),
				)
			}
			if total+s < total {
				return types.NewValidationError("vote.custom", "total shares overflow")
			}
			total += s
		}
	default:
		return types.NewValidationError("vote", fmt.Sprintf("unknown kind %d", v.Kind))
	}
	return nil
}

// TotalShares is the weight the vote spends. The vote must be valid.
func (v Vote) TotalShares() types.Shares {
	if v.Kind == VoteRejection {
		return v.Shares
	}
	var total types.Shares
	for _, s := range v.Custom {
		total = total.Add(s)
	}
	return total
}
