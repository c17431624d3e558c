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
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/guild/types"
)

type RoundId = uint16

type StatusKind uint8

const (
	StatusCreated StatusKind = iota
	StatusRejected
	StatusPreRound
	StatusRound
	StatusSuccess
	StatusFail
)

func (k StatusKind) String() string {
	switch k {
	case StatusCreated:
		return "created"
	case StatusRejected:
		return "rejected"
	case StatusPreRound:
		return "pre_round"
	case StatusRound:
		return "round"
	case StatusSuccess:
		return "success"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Status is the state of a voting. Round is set for PreRound and Round,
// Reason for Fail.
type Status struct {
	Kind   StatusKind `cbor:"1,keyasint"`
	Round  RoundId    `cbor:"2,keyasint,omitempty"`
	Reason string     `cbor:"3,keyasint,omitempty"`
}

func Created() Status                 { return Status{Kind: StatusCreated} }
func Rejected() Status                { return Status{Kind: StatusRejected} }
func PreRound(n RoundId) Status       { return Status{Kind: StatusPreRound, Round: n} }
func Round(n RoundId) Status          { return Status{Kind: StatusRound, Round: n} }
func Success() Status                 { return Status{Kind: StatusSuccess} }
func Fail(reason string) Status       { return Status{Kind: StatusFail, Reason: reason} }
func (s Status) Is(k StatusKind) bool { return s.Kind == k }

func (s Status) String() string {
	switch s.Kind {
	case StatusPreRound, StatusRound:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Round)
	case StatusFail:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Reason)
	default:
		return s.Kind.String()
	}
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	switch s.Kind {
	case StatusRejected, StatusSuccess, StatusFail:
		return true
	default:
		return false
	}
}

var ErrVotingInInvalidStatus = errors.New("voting in invalid status")

// InvalidStateTransitionError is returned when an operation is attempted
// from a status that does not allow it
type InvalidStateTransitionError struct {
	VotingId types.Id
	Op       string
	Status   Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf(
		"voting %d: cannot %s in status %s",
		e.VotingId,
		e.Op,
		e.Status,
	)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrVotingInInvalidStatus || target == types.ErrInvalidState
}

type StartConditionKind uint8

const (
	StartExactDate StartConditionKind = iota
	StartDelayAfterApproval
)

// StartCondition decides when the first round begins
type StartCondition struct {
	Kind  StartConditionKind `cbor:"1,keyasint"`
	At    time.Time          `cbor:"2,keyasint,omitempty"`
	Delay time.Duration      `cbor:"3,keyasint,omitempty"`
}

func ExactDate(at time.Time) StartCondition {
	return StartCondition{Kind: StartExactDate, At: at}
}

func DelayAfterApproval(delay time.Duration) StartCondition {
	return StartCondition{Kind: StartDelayAfterApproval, Delay: delay}
}

func (c StartCondition) Validate(now time.Time) error {
	switch c.Kind {
	case StartExactDate:
		if !c.At.After(now) {
			return types.NewValidationError("start_condition", "exact date must be in the future")
		}
	case StartDelayAfterApproval:
		if c.Delay < 0 {
			return types.NewValidationError("start_condition", "delay must not be negative")
		}
	default:
		return types.NewValidationError("start_condition", fmt.Sprintf("unknown kind %d", c.Kind))
	}
	return nil
}
