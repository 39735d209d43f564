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

// Package fixedpool implements a fixed-size object pool: single-object
// allocate/deallocate requests of exactly S bytes, served from
// chunk-backed free lists. A pool instance is not safe for concurrent
// use; distinct instances are fully independent and may live on
// distinct goroutines.
package fixedpool

import (
	"github.com/memarena/pool/internal/cpuinfo"
	"github.com/memarena/pool/internal/debug"
	"github.com/memarena/pool/poolstats"
	"github.com/memarena/pool/sysalloc"
)

const (
	// DefaultChunkLen is N in the small-chunk layout.
	DefaultChunkLen = 128
	// LargeChunkLen is N in the large-chunk layout, for pools expected
	// to carry many more live objects than DefaultChunkLen at once.
	LargeChunkLen = 1024

	// tagWordSize is the one machine word co-located with each block's
	// payload, holding a free-list link while the block is free and a
	// marker fingerprint while it is allocated. It sits just past the
	// payload, rounded up to PointerAlign, so a caller writing all
	// blockSize bytes of payload can never clobber it and the *uint64
	// access to it is never misaligned.
	tagWordSize = 8
)

// SizedPool is the untyped form of the fixed-size pool: every block is
// exactly blockSize bytes of usable payload. Pool[T] wraps it with a
// type-safe pointer API.
type SizedPool struct {
	backend     sysalloc.Backend
	blockSize   int
	tagOffset   int // offset from a block's payload to its tag word, PointerAlign-rounded
	blockStride int
	chunkLen    int
	salt        uint64

	chunkHead *chunk
	freeHead  uintptr // address of the top free block, or 0

	chunks int
	live   int
}

// NewSized constructs a SizedPool serving blockSize-byte objects, N
// blocks per chunk, backed by backend.
func NewSized(blockSize, chunkLen int, backend sysalloc.Backend) *SizedPool {
	if blockSize < cpuinfo.PointerAlign {
		blockSize = cpuinfo.PointerAlign
	}
	if chunkLen <= 0 {
		chunkLen = DefaultChunkLen
	}
	align := cpuinfo.ForSize(blockSize)
	tagOffset := cpuinfo.Align(blockSize, cpuinfo.PointerAlign)
	return &SizedPool{
		backend:     backend,
		blockSize:   blockSize,
		tagOffset:   tagOffset,
		blockStride: cpuinfo.Align(tagOffset+tagWordSize, align),
		chunkLen:    chunkLen,
		salt:        newSalt(),
	}
}

// BlockSize returns the payload size, in bytes, of every block this pool
// serves.
func (p *SizedPool) BlockSize() int { return p.blockSize }

// tagAddr returns the address of the tag/free-list word belonging to the
// block whose payload begins at addr, co-located just past the payload
// at a PointerAlign-rounded offset.
func (p *SizedPool) tagAddr(addr uintptr) uintptr { return addr + uintptr(p.tagOffset) }

// Allocate returns blockSize raw, tagged-allocated bytes, suitably
// aligned for any type of size blockSize.
func (p *SizedPool) Allocate() ([]byte, error) {
	var addr uintptr
	if p.freeHead == 0 {
		a, err := p.grow()
		if err != nil {
			return nil, err
		}
		addr = a
		debug.Log("fixedpool: allocate (new chunk)")
	} else {
		addr = p.freeHead
		p.freeHead = uintptr(*tagWord(p.tagAddr(addr)))
		debug.Log("fixedpool: allocate")
	}
	*tagWord(p.tagAddr(addr)) = markerFor(addr, p.salt)
	p.live++
	return bytesAt(addr, p.blockSize), nil
}

// Deallocate releases a slice returned by a prior Allocate on this same
// instance. After Deallocate returns, reading or writing b is undefined:
// the block is back on the free list and the next Allocate may hand it
// out again. The free-list link itself goes into the tag word past the
// payload, not into b.
func (p *SizedPool) Deallocate(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := addressOf(b)
	if *tagWord(p.tagAddr(addr)) != markerFor(addr, p.salt) {
		return ErrForeignPointer
	}
	*tagWord(p.tagAddr(addr)) = uint64(p.freeHead)
	p.freeHead = addr
	p.live--
	debug.Log("fixedpool: deallocate")
	return nil
}

// Len returns the number of chunks currently held and the number of
// blocks currently live (allocated and not yet freed).
func (p *SizedPool) Len() (chunks, live int) { return p.chunks, p.live }

// Stats returns a point-in-time snapshot of this pool's occupancy.
func (p *SizedPool) Stats() poolstats.Snapshot {
	free := p.chunks*p.chunkLen - p.live
	blockSize := int64(p.blockSize)
	return poolstats.Snapshot{
		Chunks:     p.chunks,
		LiveBlocks: p.live,
		FreeBlocks: free,
		LiveBytes:  int64(p.live) * blockSize,
		FreeBytes:  int64(free) * blockSize,
	}
}

// Close releases every chunk this pool ever acquired. The pool must not
// be used afterward.
func (p *SizedPool) Close() {
	for c := p.chunkHead; c != nil; {
		next := c.next
		p.backend.Release(c.data)
		c = next
	}
	p.chunkHead = nil
	p.freeHead = 0
	p.chunks = 0
	p.live = 0
}

// grow acquires a new chunk, threads blocks 1..N-1 into the free list
// (last one terminating with 0), and returns block 0's address —
// already earmarked for the allocation that triggered the growth, never
// placed on the free list itself.
func (p *SizedPool) grow() (uintptr, error) {
	align := cpuinfo.ForSize(p.blockSize)
	data, err := p.backend.Acquire(p.blockStride*p.chunkLen, align)
	if err != nil {
		return 0, err
	}
	c := &chunk{data: data, next: p.chunkHead}
	p.chunkHead = c
	p.chunks++

	p.freeHead = 0
	for i := p.chunkLen - 1; i >= 1; i-- {
		addr := c.blockAt(i, p.blockStride)
		*tagWord(p.tagAddr(addr)) = uint64(p.freeHead)
		p.freeHead = addr
	}
	return c.blockAt(0, p.blockStride), nil
}
