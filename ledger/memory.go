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
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/blinklabs-io/guild/types"
	"gopkg.in/yaml.v3"
)

// MemoryLedger is an in-process ShareLedger. The total supply of a scope is
// the sum of the balances held in it.
type MemoryLedger struct {
	mutex    sync.RWMutex
	balances map[types.GroupOrProfile]map[types.Principal]types.Shares
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[types.GroupOrProfile]map[types.Principal]types.Shares),
	}
}

func (l *MemoryLedger) SetBalance(gop types.GroupOrProfile, who types.Principal, shares types.Shares) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	holders, ok := l.balances[gop]
	if !ok {
		holders = make(map[types.Principal]types.Shares)
		l.balances[gop] = holders
	}
	if shares == 0 {
		delete(holders, who)
		return
	}
	holders[who] = shares
}

func (l *MemoryLedger) TotalSupply(ctx context.Context, gop types.GroupOrProfile) (types.Shares, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	var total types.Shares
	for _, s := range l.balances[gop] {
		if total+s < total {
			return 0, fmt.Errorf("total supply of %s overflows", gop)
		}
		total += s
	}
	return total, nil
}

func (l *MemoryLedger) BalanceOf(
	ctx context.Context,
	who types.Principal,
	gop types.GroupOrProfile,
) (types.Shares, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.balances[gop][who], nil
}

// balancesFile is the on-disk layout of a static ledger:
//
//	groups:
//	  1:
//	    alice: 100
//	profiles:
//	  bob: 10
type balancesFile struct {
	Groups   map[string]map[string]uint64 `yaml:"groups"`
	Profiles map[string]uint64            `yaml:"profiles"`
}

// LoadFile builds a MemoryLedger from a YAML balances file
func LoadFile(path string) (*MemoryLedger, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balances file: %w", err)
	}
	var data balancesFile
	if err := yaml.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("parse balances file: %w", err)
	}
	l := NewMemoryLedger()
	for groupStr, holders := range data.Groups {
		groupId, err := strconv.ParseUint(groupStr, 10, 64)
		if err != nil || groupId == 0 {
			return nil, fmt.Errorf("invalid group id %q in balances file", groupStr)
		}
		for who, shares := range holders {
			l.SetBalance(types.Group(types.Id(groupId)), types.Principal(who), types.Shares(shares))
		}
	}
	for who, shares := range data.Profiles {
		l.SetBalance(types.Profile(types.Principal(who)), types.Principal(who), types.Shares(shares))
	}
	return l, nil
}
