// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heappool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memarena/pool/sysalloc"
)

// walkInvariants confirms, for every chunk, that no two adjacent blocks
// are both free (an un-coalesced pair would be a bug) and that every
// block's prevIsFree bit matches the actual state of its predecessor.
func walkInvariants(t *testing.T, p *Pool) {
	t.Helper()
	for _, c := range p.chunks {
		var prevFree bool
		for addr := c.start; ; {
			assert.Equal(t, prevFree, prevIsFree(addr), "prevIsFree mismatch at %#x", addr)
			free := isFree(addr)
			if free && prevFree {
				t.Fatalf("adjacent free blocks at %#x: coalesce failed to merge", addr)
			}
			prevFree = free
			if isLast(addr) {
				break
			}
			addr += uintptr(blockSizeOf(addr))
		}
	}
}

func TestInvariantsHoldUnderRandomWorkload(t *testing.T) {
	p := New(sysalloc.NewGo())
	defer p.Close()

	var live [][]byte
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && (r.Intn(3) == 0 || len(live) > 64) {
			idx := r.Intn(len(live))
			p.Deallocate(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			size := 1 + r.Intn(512)
			b, err := p.Allocate(size)
			require.NoError(t, err)
			require.Len(t, b, size)
			live = append(live, b)
		}
		walkInvariants(t, p)
	}
}
