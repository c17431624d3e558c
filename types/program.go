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

package types

import (
	"errors"
	"fmt"
)

type Endpoint struct {
	Actor  Principal `cbor:"1,keyasint"`
	Method string    `cbor:"2,keyasint"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s.%s", e.Actor, e.Method)
}

func (e Endpoint) Validate() error {
	if e.Actor == "" {
		return NewValidationError("endpoint.actor", "must not be empty")
	}
	if e.Method == "" {
		return NewValidationError("endpoint.method", "must not be empty")
	}
	return nil
}

type RemoteCall struct {
	Endpoint Endpoint `cbor:"1,keyasint"`
	Args     []byte   `cbor:"2,keyasint,omitempty"`
}

type ProgramKind uint8

const (
	ProgramKindEmpty ProgramKind = iota
	ProgramKindRemoteCallSequence
)

// Program is the action attached to a choice. It is either empty or an
// ordered sequence of remote calls.
type Program struct {
	Kind  ProgramKind  `cbor:"1,keyasint"`
	Calls []RemoteCall `cbor:"2,keyasint,omitempty"`
}

var ErrEmptyCallSequence = errors.New("remote call sequence must not be empty")

func EmptyProgram() Program {
	return Program{Kind: ProgramKindEmpty}
}

func CallSequence(calls ...RemoteCall) Program {
	return Program{
		Kind:  ProgramKindRemoteCallSequence,
		Calls: calls,
	}
}

func (p Program) IsEmpty() bool {
	return p.Kind == ProgramKindEmpty
}

func (p Program) Validate() error {
	switch p.Kind {
	case ProgramKindEmpty:
		if len(p.Calls) > 0 {
			return NewValidationError(
				"program",
				"empty program must not carry calls",
			)
		}
	case ProgramKindRemoteCallSequence:
		if len(p.Calls) == 0 {
			return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyCallSequence)
		}
		for _, call := range p.Calls {
			if err := call.Endpoint.Validate(); err != nil {
				return err
			}
		}
	default:
		return NewValidationError(
			"program",
			fmt.Sprintf("unknown program kind %d", p.Kind),
		)
	}
	return nil
}

func (p Program) Clone() Program {
	ret := Program{Kind: p.Kind}
	if p.Calls != nil {
		ret.Calls = make([]RemoteCall, len(p.Calls))
		for i, c := range p.Calls {
			ret.Calls[i] = RemoteCall{
				Endpoint: c.Endpoint,
				Args:     append([]byte(nil), c.Args...),
			}
		}
	}
	return ret
}
