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
	"strconv"
	"strings"
)

const SnapshotBlobKeyPrefix = "snapshot/"

// SnapshotBlobKey zero-pads the sequence so keys sort in save order
func SnapshotBlobKey(seq uint64) string {
	return fmt.Sprintf("%s%020d", SnapshotBlobKeyPrefix, seq)
}

// ParseSnapshotBlobKey returns the sequence encoded in a snapshot key
func ParseSnapshotBlobKey(key string) (uint64, error) {
	raw, ok := strings.CutPrefix(key, SnapshotBlobKeyPrefix)
	if !ok {
		return 0, fmt.Errorf("not a snapshot key: %q", key)
	}
	return strconv.ParseUint(raw, 10, 64)
}
