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

package ledger

import (
	"context"
	"errors"

	"github.com/blinklabs-io/guild/types"
)

var ErrLedgerUnavailable = errors.New("share ledger unavailable")

// ShareLedger supplies share balances. Its answers are taken as given.
type ShareLedger interface {
	// TotalSupply returns the total shares issued in a scope
	TotalSupply(ctx context.Context, gop types.GroupOrProfile) (types.Shares, error)
	// BalanceOf returns the shares a principal holds in a scope
	BalanceOf(ctx context.Context, who types.Principal, gop types.GroupOrProfile) (types.Shares, error)
}
