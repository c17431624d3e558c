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

package votingconfig

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/guild/types"
	"github.com/shopspring/decimal"
)

// LenInterval bounds a count. It is valid when Min <= Max.
type LenInterval struct {
	Min uint32 `cbor:"1,keyasint"`
	Max uint32 `cbor:"2,keyasint"`
}

func (i LenInterval) IsValid() bool {
	return i.Min <= i.Max
}

func (i LenInterval) Contains(n uint32) bool {
	return n >= i.Min && n <= i.Max
}

func (i LenInterval) String() string {
	return fmt.Sprintf("[%d, %d]", i.Min, i.Max)
}

// RoundSettings control the timing of voting rounds. A zero MaxRounds
// allows any number of rounds.
type RoundSettings struct {
	RoundDuration time.Duration `cbor:"1,keyasint"`
	RoundDelay    time.Duration `cbor:"2,keyasint"`
	MaxRounds     uint16        `cbor:"3,keyasint"`
}

func (r RoundSettings) Validate() error {
	if r.RoundDuration <= 0 {
		return types.NewValidationError("round.round_duration", "must be positive")
	}
	if r.RoundDelay < 0 {
		return types.NewValidationError("round.round_delay", "must not be negative")
	}
	return nil
}

// HasRoundAfter reports whether another round may follow round n
func (r RoundSettings) HasRoundAfter(n uint16) bool {
	return r.MaxRounds == 0 || n < r.MaxRounds
}

type ThresholdKind uint8

const (
	ThresholdKindQuantityOf ThresholdKind = iota
	ThresholdKindFractionOf
)

// ThresholdValue is a configured rule judged against accumulated shares.
// Target restricts it to a single scope; nil means all scopes together.
type ThresholdValue struct {
	Kind     ThresholdKind         `cbor:"1,keyasint"`
	Quantity types.Shares          `cbor:"2,keyasint,omitempty"`
	Fraction decimal.Decimal       `cbor:"3,keyasint"`
	Target   *types.GroupOrProfile `cbor:"4,keyasint,omitempty"`
}

func QuantityOf(q types.Shares) ThresholdValue {
	return ThresholdValue{Kind: ThresholdKindQuantityOf, Quantity: q}
}

func FractionOf(f decimal.Decimal) ThresholdValue {
	return ThresholdValue{Kind: ThresholdKindFractionOf, Fraction: f}
}

// Percent is a convenience for FractionOf(p / 100)
func Percent(p int64) ThresholdValue {
	return FractionOf(decimal.New(p, -2))
}

// For restricts the threshold to one scope
func (t ThresholdValue) For(target types.GroupOrProfile) ThresholdValue {
	t.Target = &target
	return t
}

func (t ThresholdValue) Clone() ThresholdValue {
	if t.Target != nil {
		target := *t.Target
		t.Target = &target
	}
	return t
}

// IsZero reports whether the threshold is met by any amount of shares
func (t ThresholdValue) IsZero() bool {
	switch t.Kind {
	case ThresholdKindQuantityOf:
		return t.Quantity == 0
	case ThresholdKindFractionOf:
		return t.Fraction.IsZero()
	default:
		return false
	}
}

func (t ThresholdValue) Validate(field string) error {
	switch t.Kind {
	case ThresholdKindQuantityOf:
	case ThresholdKindFractionOf:
		if t.Fraction.IsNegative() || t.Fraction.GreaterThan(decimal.NewFromInt(1)) {
			return types.NewValidationError(field, "fraction must be within [0, 1]")
		}
	default:
		return types.NewValidationError(field, fmt.Sprintf("unknown threshold kind %d", t.Kind))
	}
	if t.Target != nil {
		if !t.Target.IsGroup() && !t.Target.IsProfile() {
			return types.NewValidationError(field, "invalid threshold target")
		}
	}
	return nil
}

func (t ThresholdValue) String() string {
	var ret string
	switch t.Kind {
	case ThresholdKindQuantityOf:
		ret = fmt.Sprintf("%d shares", t.Quantity)
	case ThresholdKindFractionOf:
		ret = t.Fraction.Mul(decimal.NewFromInt(100)).String() + "%"
	default:
		ret = "unknown"
	}
	if t.Target != nil {
		ret += " of " + t.Target.String()
	}
	return ret
}
