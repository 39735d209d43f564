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

// Package heappool implements a variable-size heap: allocate/deallocate/
// reallocate requests of arbitrary non-zero byte sizes, served from
// chunk-backed blocks with splitting on allocate and in-place coalescing
// of adjacent free neighbors on deallocate. A Pool is not safe for
// concurrent use; distinct instances are fully independent and may live
// on distinct goroutines. Instance() returns a process-wide singleton
// for callers that just want "the heap"; New constructs an independent
// instance for embedding or testing.
package heappool

import (
	"sort"

	"github.com/JohnCGriffin/overflow"
	"golang.org/x/xerrors"

	"github.com/memarena/pool/internal/cpuinfo"
	"github.com/memarena/pool/internal/debug"
	"github.com/memarena/pool/poolstats"
	"github.com/memarena/pool/sysalloc"
)

const defaultChunkBytes = 4096

// Pool is a variable-size heap allocator.
type Pool struct {
	backend sysalloc.Backend
	salt    uint64

	free   freelist
	chunks []*chunkRange // sorted by start, for address-to-chunk lookup
}

// New constructs an independent heap pool backed by backend. Pass nil to
// use sysalloc.NewGo().
func New(backend sysalloc.Backend) *Pool {
	if backend == nil {
		backend = sysalloc.NewGo()
	}
	return &Pool{backend: backend, salt: newSalt()}
}

// Allocate returns size raw bytes, or nil if size is 0. Failure
// propagates the underlying system allocator's out-of-memory condition.
func (p *Pool) Allocate(size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	needed, err := neededFor(size)
	if err != nil {
		return nil, err
	}

	if addr := p.free.firstFit(needed); addr != 0 {
		p.free.remove(addr)
		available := blockSizeOf(addr)
		last := isLast(addr)
		debug.Log("heappool: allocate (free list hit)")
		return p.placeAllocated(addr, available, needed, size, last), nil
	}

	addr, err := p.grow(needed)
	if err != nil {
		return nil, err
	}
	debug.Log("heappool: allocate (new chunk)")
	available := blockSizeOf(addr)
	return p.placeAllocated(addr, available, needed, size, true), nil
}

// Deallocate releases a slice previously returned by Allocate or
// Reallocate on this same instance. A nil slice, or one whose marker
// does not match what this pool would have written, is a silent no-op.
func (p *Pool) Deallocate(b []byte) {
	if len(b) == 0 {
		return
	}
	addr := addressOf(b) - headerSize
	if !p.validMarker(addr) {
		return
	}
	p.free.insertFront(p.coalesce(addr))
	debug.Log("heappool: deallocate")
}

// Reallocate resizes a previously allocated region, preserving the
// first min(old, size) bytes. b == nil behaves as Allocate(size); a
// foreign b returns (nil, nil) without freeing anything.
func (p *Pool) Reallocate(b []byte, size int) ([]byte, error) {
	if b == nil {
		return p.Allocate(size)
	}
	addr := addressOf(b) - headerSize
	if !p.validMarker(addr) {
		return nil, nil
	}
	if size == 0 {
		p.Deallocate(b)
		return nil, nil
	}

	oldPayload := blockSizeOf(addr) - headerSize
	needed, err := neededFor(size)
	if err != nil {
		return nil, err
	}

	// Grow forward: absorb a free next neighbor in place, no copy.
	if next := nextBlockAddr(addr); next != 0 && isFree(next) {
		merged := blockSizeOf(addr) + blockSizeOf(next)
		if merged >= needed {
			nextLast := isLast(next)
			p.free.remove(next)
			debug.Log("heappool: reallocate (grow forward)")
			return p.placeAllocated(addr, merged, needed, size, nextLast), nil
		}
	}

	// Grow backward: absorb a free previous neighbor, copy forward into
	// the new (lower) payload start before the headers are rewritten.
	if prevIsFree(addr) {
		prev := prevBlockAddr(addr)
		merged := blockSizeOf(prev) + blockSizeOf(addr)
		if merged >= needed {
			addrLast := isLast(addr)
			p.free.remove(prev)
			copyLen := oldPayload
			if size < copyLen {
				copyLen = size
			}
			copy(bytesAt(payloadAddr(prev), copyLen), bytesAt(payloadAddr(addr), copyLen))
			debug.Log("heappool: reallocate (grow backward)")
			return p.placeAllocated(prev, merged, needed, size, addrLast), nil
		}
	}

	// Fallback: allocate fresh, copy, then free the old block. The new
	// allocation is requested before the old block is freed, so it can
	// never be satisfied from the bytes we are about to copy out of —
	// this is deliberate: a variant that frees first and allocates
	// second can hand the freed range right back out before the copy
	// runs, corrupting the result.
	newB, err := p.Allocate(size)
	if err != nil {
		return nil, err
	}
	copyLen := oldPayload
	if size < copyLen {
		copyLen = size
	}
	copy(newB, bytesAt(payloadAddr(addr), copyLen))
	p.Deallocate(b)
	debug.Log("heappool: reallocate (relocate)")
	return newB, nil
}

// Stats walks every chunk this pool owns and reports current occupancy.
// It is a point-in-time read, O(blocks), intended for introspection and
// tests, not a hot path.
func (p *Pool) Stats() poolstats.Snapshot {
	var s poolstats.Snapshot
	s.Chunks = len(p.chunks)
	for _, c := range p.chunks {
		for addr := c.start; ; {
			sz := blockSizeOf(addr)
			if isFree(addr) {
				s.FreeBlocks++
				s.FreeBytes += int64(sz)
			} else {
				s.LiveBlocks++
				s.LiveBytes += int64(sz)
			}
			if isLast(addr) {
				break
			}
			addr += uintptr(sz)
		}
	}
	return s
}

// Close releases every chunk this pool ever acquired. The pool must not
// be used afterward.
func (p *Pool) Close() {
	for _, c := range p.chunks {
		p.backend.Release(c.data)
	}
	p.chunks = nil
	p.free = freelist{}
}

// placeAllocated turns the free region [addr, addr+available) into an
// allocated block of exactly needed bytes, splitting a free tail back
// onto the free list when the remainder is large enough to stand alone,
// absorbing it whole otherwise. addr must already be removed from the
// free list (or never have been on it, as with a freshly grown chunk).
// last reports whether the region being placed is last-in-chunk; callers
// that merge addr with a following neighbor must pass the neighbor's
// last flag, since addr's own header still reflects its pre-merge state.
func (p *Pool) placeAllocated(addr uintptr, available, needed, userSize int, last bool) []byte {
	prevFree := prevIsFree(addr)
	excess := available - needed

	if excess >= minBlockSize {
		setFlags(addr, needed, false, prevFree, false)
		tail := addr + uintptr(needed)
		setFlags(tail, excess, true, false, last)
		writeFooter(tail)
		p.free.insertFront(tail)
		if !last {
			setPrevFree(tail+uintptr(excess), true)
		}
	} else {
		setFlags(addr, available, false, prevFree, last)
		if !last {
			setPrevFree(addr+uintptr(available), false)
		}
	}
	setTagWord(addr, markerFor(addr, p.salt))
	return bytesAt(payloadAddr(addr), userSize)
}

// coalesce merges addr with any free neighbors, marks the merged block
// free, and returns its (possibly relocated-left) address — ready to be
// inserted into the free list by the caller.
func (p *Pool) coalesce(addr uintptr) uintptr {
	mergedAddr := addr
	mergedSize := blockSizeOf(addr)
	mergedLast := isLast(addr)

	if next := nextBlockAddr(addr); next != 0 && isFree(next) {
		p.free.remove(next)
		mergedSize += blockSizeOf(next)
		mergedLast = isLast(next)
	}

	if prevIsFree(mergedAddr) {
		prev := prevBlockAddr(mergedAddr)
		prevPrevFree := prevIsFree(prev)
		p.free.remove(prev)
		mergedSize += blockSizeOf(prev)
		mergedAddr = prev
		setFlags(mergedAddr, mergedSize, true, prevPrevFree, mergedLast)
	} else {
		setFlags(mergedAddr, mergedSize, true, prevIsFree(mergedAddr), mergedLast)
	}

	writeFooter(mergedAddr)
	if next := nextBlockAddr(mergedAddr); next != 0 {
		setPrevFree(next, true)
	}
	return mergedAddr
}

// validMarker reports whether addr both falls within a chunk this pool
// owns and carries the tag word this pool would have written there —
// two independent checks, since a forged or stray tag value could in
// principle collide with the hash fingerprint alone.
func (p *Pool) validMarker(addr uintptr) bool {
	if !p.ownsAddress(addr) {
		return false
	}
	return tagWordValue(addr) == markerFor(addr, p.salt)
}

func tagWordValue(addr uintptr) uint64 { return *tagWord(addr) }

func (p *Pool) ownsAddress(addr uintptr) bool {
	i := sort.Search(len(p.chunks), func(i int) bool { return p.chunks[i].start > addr })
	if i == 0 {
		return false
	}
	return p.chunks[i-1].contains(addr)
}

func (p *Pool) grow(needed int) (uintptr, error) {
	sum, ok := overflow.Add(needed, minBlockSize)
	if !ok {
		return 0, xerrors.Errorf("heappool: chunk size overflow for request of %d bytes: %w", needed, ErrOutOfMemory)
	}
	chunkLen := nextPow2(sum)
	if chunkLen < defaultChunkBytes {
		chunkLen = defaultChunkBytes
	}
	align := cpuinfo.ForSize(needed)
	data, err := p.backend.Acquire(chunkLen, align)
	if err != nil {
		return 0, err
	}
	start := addressOf(data)
	cr := &chunkRange{data: data, start: start, end: start + uintptr(len(data))}
	p.insertChunkRange(cr)

	// The whole chunk begins life as one free, last-in-chunk block; the
	// caller immediately carves it with placeAllocated.
	setFlags(start, chunkLen, true, false, true)
	return start, nil
}

func (p *Pool) insertChunkRange(cr *chunkRange) {
	i := sort.Search(len(p.chunks), func(i int) bool { return p.chunks[i].start > cr.start })
	p.chunks = append(p.chunks, nil)
	copy(p.chunks[i+1:], p.chunks[i:])
	p.chunks[i] = cr
}

func neededFor(size int) (int, error) {
	sum, ok := overflow.Add(headerSize, size)
	if !ok {
		return 0, xerrors.Errorf("heappool: size overflow for request of %d bytes: %w", size, ErrOutOfMemory)
	}
	n := cpuinfo.Align(sum, cpuinfo.PointerAlign)
	if n < minBlockSize {
		n = minBlockSize
	}
	return n, nil
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
