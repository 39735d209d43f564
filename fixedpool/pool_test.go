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

package fixedpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memarena/pool/fixedpool"
	"github.com/memarena/pool/sysalloc"
)

func TestBasicAllocateDeallocate130(t *testing.T) {
	p := fixedpool.NewSized(16, fixedpool.DefaultChunkLen, sysalloc.NewGo())
	defer p.Close()

	const n = 130
	blocks := make([][]byte, n)
	seen := make(map[uintptr]bool, n)
	for i := 0; i < n; i++ {
		b, err := p.Allocate()
		require.NoError(t, err)
		require.Len(t, b, 16)
		addr := fixedpool.AddressOf(b)
		assert.False(t, seen[addr], "address reused while still live")
		seen[addr] = true
		blocks[i] = b
	}

	chunks, live := p.Len()
	assert.Equal(t, 2, chunks)
	assert.Equal(t, n, live)

	// Every allocated block must be non-overlapping: write a distinct
	// byte pattern into each and confirm no other write touched it.
	for i, b := range blocks {
		for j := range b {
			b[j] = byte(i)
		}
	}
	for i, b := range blocks {
		for _, c := range b {
			assert.Equal(t, byte(i), c)
		}
	}

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, p.Deallocate(blocks[i]))
	}

	chunks, live = p.Len()
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 0, live)

	for i := 0; i < n; i++ {
		_, err := p.Allocate()
		require.NoError(t, err)
	}
	chunks, _ = p.Len()
	assert.Equal(t, 2, chunks, "no new chunk should be created when reusing freed blocks")
}

func TestForeignPointerRejected(t *testing.T) {
	p := fixedpool.NewSized(16, fixedpool.DefaultChunkLen, sysalloc.NewGo())
	defer p.Close()

	b, err := p.Allocate()
	require.NoError(t, err)

	err = p.Deallocate(b[1:])
	assert.ErrorIs(t, err, fixedpool.ErrForeignPointer)

	chunks, live := p.Len()
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, live, "rejected deallocate must not mutate pool state")
}

func TestDoubleFreeRejectedByMarker(t *testing.T) {
	p := fixedpool.NewSized(16, fixedpool.DefaultChunkLen, sysalloc.NewGo())
	defer p.Close()

	b, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Deallocate(b))

	// The marker was overwritten with a free-list link on the first
	// free, so a second free of the same address is rejected rather
	// than corrupting the free list.
	err = p.Deallocate(b)
	assert.ErrorIs(t, err, fixedpool.ErrForeignPointer)
}

type typedPayload struct {
	A int64
	B [8]byte
}

func TestGenericPool(t *testing.T) {
	p := fixedpool.New[typedPayload](sysalloc.NewGo())
	defer p.Close()

	v, err := p.Allocate()
	require.NoError(t, err)
	v.A = 42
	v.B[0] = 7

	stats := p.Stats()
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.LiveBlocks)

	require.NoError(t, p.Deallocate(v))
	stats = p.Stats()
	assert.Equal(t, 0, stats.LiveBlocks)
}
