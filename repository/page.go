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

package repository

import (
	"iter"
)

// PageRequest selects a window of a listing. Filter and Sort are specific
// to each repository.
type PageRequest[F any, S any] struct {
	PageIndex int
	PageSize  int
	Filter    F
	Sort      S
}

type Page[T any] struct {
	Data    []T
	HasNext bool
}

// Paginate skips PageIndex*PageSize items, takes up to PageSize and peeks one
// more item to determine HasNext. A page size below one yields an empty last
// page.
func Paginate[T any, F any, S any](
	seq iter.Seq[T],
	req PageRequest[F, S],
) Page[T] {
	if req.PageSize < 1 {
		return Page[T]{Data: []T{}}
	}
	pageSize := req.PageSize
	skip := max(req.PageIndex, 0) * pageSize
	ret := Page[T]{Data: make([]T, 0, pageSize)}
	idx := 0
	for item := range seq {
		if idx < skip {
			idx++
			continue
		}
		if len(ret.Data) == pageSize {
			ret.HasNext = true
			break
		}
		ret.Data = append(ret.Data, item)
		idx++
	}
	return ret
}

// Filter yields the items of seq matching pred
func Filter[T any](seq iter.Seq[T], pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item := range seq {
			if pred(item) && !yield(item) {
				return
			}
		}
	}
}
