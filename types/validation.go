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
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// ValidateAndTrim trims surrounding whitespace from value and checks that
// the remaining length, in characters, falls within [minLen, maxLen]
func ValidateAndTrim(
	field string,
	value string,
	minLen int,
	maxLen int,
) (string, error) {
	if minLen > maxLen {
		panic(fmt.Sprintf("invalid length bounds for %s: %d > %d", field, minLen, maxLen))
	}
	trimmed := strings.TrimSpace(value)
	n := utf8.RuneCountInString(trimmed)
	if n > maxLen {
		return "", NewValidationError(
			field,
			fmt.Sprintf("can't be longer than %d symbols (%d)", maxLen, n),
		)
	}
	if n < minLen {
		return "", NewValidationError(
			field,
			fmt.Sprintf("can't be shorter than %d symbols (%d)", minLen, n),
		)
	}
	return trimmed, nil
}

// SortedUnique returns the distinct elements of ids in ascending order
func SortedUnique(ids []Id) []Id {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[Id]struct{}, len(ids))
	ret := make([]Id, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ret = append(ret, id)
	}
	slices.Sort(ret)
	return ret
}
