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

// Journal records how to undo the changes made to the stores attached to
// it. An operation either keeps its changes with Commit or reverts them
// with Rollback.
type Journal struct {
	undo []func()
}

func (j *Journal) record(fn func()) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, fn)
}

// Len returns the number of recorded changes
func (j *Journal) Len() int {
	return len(j.undo)
}

// Commit forgets the recorded changes
func (j *Journal) Commit() {
	clear(j.undo)
	j.undo = j.undo[:0]
}

// Rollback reverts the recorded changes, newest first
func (j *Journal) Rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.Commit()
}
