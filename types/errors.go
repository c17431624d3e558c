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

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidState     = errors.New("invalid state")
)

// ValidationError reports a malformed input field
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field string, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a missing entity
type NotFoundError struct {
	Entity string
	Id     Id
}

func NewNotFoundError(entity string, id Id) *NotFoundError {
	return &NotFoundError{Entity: entity, Id: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.Id)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DataIntegrityFault describes a broken internal invariant. It is raised with
// panic and must never be returned as a normal error. The service boundary
// recovers it and aborts the whole operation.
type DataIntegrityFault struct {
	Reason string
}

func NewDataIntegrityFault(reason string) *DataIntegrityFault {
	return &DataIntegrityFault{Reason: reason}
}

func (f *DataIntegrityFault) Error() string {
	return "data integrity fault: " + f.Reason
}
