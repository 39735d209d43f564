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

package fixedpool

import (
	"unsafe"

	"github.com/memarena/pool/poolstats"
	"github.com/memarena/pool/sysalloc"
)

// Pool is the type-safe fixed-size pool for T: every Allocate returns a
// *T backed by pool-owned storage, never initialized by the pool itself
// — the caller is responsible for constructing and destroying the value
// in place.
type Pool[T any] struct {
	sized *SizedPool
}

// New constructs a Pool sized for T, with the default chunk length,
// backed by backend. Pass nil to use sysalloc.NewGo().
func New[T any](backend sysalloc.Backend) *Pool[T] {
	return NewChunked[T](DefaultChunkLen, backend)
}

// NewChunked is New with an explicit chunk length (blocks per chunk).
func NewChunked[T any](chunkLen int, backend sysalloc.Backend) *Pool[T] {
	if backend == nil {
		backend = sysalloc.NewGo()
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return &Pool[T]{sized: NewSized(size, chunkLen, backend)}
}

// Allocate returns a pointer to pool-owned, uninitialized storage for a
// T.
func (p *Pool[T]) Allocate() (*T, error) {
	b, err := p.sized.Allocate()
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(&b[0])), nil
}

// Deallocate releases a *T previously returned by Allocate on this same
// Pool.
func (p *Pool[T]) Deallocate(v *T) error {
	if v == nil {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(v)), p.sized.blockSize)
	return p.sized.Deallocate(b)
}

// Stats returns a point-in-time snapshot of this pool's occupancy.
func (p *Pool[T]) Stats() poolstats.Snapshot { return p.sized.Stats() }

// Close releases every chunk this pool ever acquired.
func (p *Pool[T]) Close() { p.sized.Close() }
