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

package heappool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memarena/pool/heappool"
	"github.com/memarena/pool/sysalloc"
)

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func TestSplitThenCoalesceSatisfiesLargerRequest(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(64)
	require.NoError(t, err)
	b, err := p.Allocate(64)
	require.NoError(t, err)
	c, err := p.Allocate(64)
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 3, stats.LiveBlocks)

	p.Deallocate(b)
	p.Deallocate(a)
	c[0] = 9 // c must remain untouched by freeing its neighbors

	// Neither freed 64-byte block alone has room for a 100-byte payload;
	// only the coalesced a+b region does. That region heads the free
	// list, so d landing at a's old address proves the free neighbors
	// were actually merged.
	d, err := p.Allocate(100)
	require.NoError(t, err)
	require.Len(t, d, 100)
	assert.Equal(t, heappool.AddressOf(a), heappool.AddressOf(d), "the request must be served from the coalesced a+b region")

	stats = p.Stats()
	assert.Equal(t, 1, stats.Chunks, "coalesced free space should satisfy the request without growing")
	assert.Equal(t, c[0], byte(9))
}

func TestSplitCoalesceFullChunkReclaim(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(64)
	require.NoError(t, err)
	b, err := p.Allocate(64)
	require.NoError(t, err)
	c, err := p.Allocate(64)
	require.NoError(t, err)

	p.Deallocate(b)
	afterB := p.Stats()
	assert.GreaterOrEqual(t, afterB.FreeBlocks, 1)

	p.Deallocate(a)
	afterA := p.Stats()
	assert.Equal(t, afterB.FreeBlocks, afterA.FreeBlocks, "merging a with b's old range must not add a free region")
	assert.Greater(t, afterA.FreeBytes, afterB.FreeBytes, "the merged region must be larger")

	p.Deallocate(c)
	final := p.Stats()
	assert.Equal(t, 1, final.Chunks)
	assert.Equal(t, 0, final.LiveBlocks)
	assert.Equal(t, 1, final.FreeBlocks, "the whole chunk payload must coalesce into one free region")
}

func TestReallocateGrowsInPlaceIntoFreeNeighbor(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(32)
	require.NoError(t, err)
	fill(a, 0xAB)
	neighbor, err := p.Allocate(32)
	require.NoError(t, err)

	p.Deallocate(neighbor)

	grown, err := p.Reallocate(a, 96)
	require.NoError(t, err)
	require.Len(t, grown, 96)
	assert.Equal(t, heappool.AddressOf(a), heappool.AddressOf(grown), "in-place growth must not relocate")
	for i := 0; i < 32; i++ {
		assert.Equal(t, byte(0xAB), grown[i])
	}

	stats := p.Stats()
	assert.Equal(t, 1, stats.Chunks)
}

func TestReallocateGrowBackwardUpdatesNeighborPrevFree(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(64)
	require.NoError(t, err)
	b, err := p.Allocate(64)
	require.NoError(t, err)
	c, err := p.Allocate(64)
	require.NoError(t, err)
	fill(c, 0x42)

	p.Deallocate(a)
	fill(b, 0x77)

	// b has no free next neighbor (c is live), but a free previous
	// neighbor (the freed a) large enough to grow into, so this must
	// take the grow-backward path and split the merged a+b region.
	grown, err := p.Reallocate(b, 100)
	require.NoError(t, err)
	require.Len(t, grown, 100)
	assert.NotEqual(t, heappool.AddressOf(b), heappool.AddressOf(grown), "grow backward relocates to the lower address")
	for i := 0; i < 64; i++ {
		assert.Equal(t, byte(0x77), grown[i])
	}

	// c must still be intact and, critically, its prevIsFree bookkeeping
	// must reflect the split tail now sitting behind it so a subsequent
	// free of c can coalesce with that tail instead of leaking it.
	for i := range c {
		assert.Equal(t, byte(0x42), c[i])
	}

	beforeFreeC := p.Stats()
	p.Deallocate(c)
	afterFreeC := p.Stats()
	assert.Equal(t, beforeFreeC.FreeBlocks, afterFreeC.FreeBlocks, "c must merge with the split tail rather than add a new free region")
	assert.Greater(t, afterFreeC.FreeBytes, beforeFreeC.FreeBytes)
}

func TestReallocateRelocatesWhenNoRoomToGrow(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(32)
	require.NoError(t, err)
	fill(a, 0xCD)
	keepAlive, err := p.Allocate(32)
	require.NoError(t, err)
	fill(keepAlive, 0xEF)

	grown, err := p.Reallocate(a, 8192)
	require.NoError(t, err)
	require.Len(t, grown, 8192)
	assert.NotEqual(t, heappool.AddressOf(a), heappool.AddressOf(grown))
	for i := 0; i < 32; i++ {
		assert.Equal(t, byte(0xCD), grown[i])
	}
	for i := range keepAlive {
		assert.Equal(t, byte(0xEF), keepAlive[i], "unrelated live block must survive the relocation")
	}
}

func TestForeignPointerIsSilentNoOp(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	a, err := p.Allocate(32)
	require.NoError(t, err)
	before := p.Stats()

	foreign := make([]byte, 32)
	assert.NotPanics(t, func() { p.Deallocate(foreign) })
	assert.Equal(t, before, p.Stats())

	assert.NotPanics(t, func() { p.Deallocate(a[1:]) })
	assert.Equal(t, before, p.Stats(), "misaligned slice into a live block must not be accepted")

	res, err := p.Reallocate(foreign, 64)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, before, p.Stats())
}

func TestZeroAndNilSemantics(t *testing.T) {
	p := heappool.New(sysalloc.NewGo())
	defer p.Close()

	z, err := p.Allocate(0)
	require.NoError(t, err)
	assert.Nil(t, z)
	assert.Equal(t, 0, p.Stats().Chunks, "a zero-size request must not touch the backend")

	assert.NotPanics(t, func() { p.Deallocate(nil) })

	viaNil, err := p.Reallocate(nil, 64)
	require.NoError(t, err)
	require.Len(t, viaNil, 64)

	freed, err := p.Reallocate(viaNil, 0)
	require.NoError(t, err)
	assert.Nil(t, freed)
	assert.Equal(t, 0, p.Stats().LiveBlocks)
}

func TestInstanceIsASingleton(t *testing.T) {
	assert.Same(t, heappool.Instance(), heappool.Instance())
}
