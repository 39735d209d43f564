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

// Package sysalloc is the raw byte-array acquisition boundary that
// fixedpool and heappool sit on top of. It is the only place either
// facility talks to the underlying system allocator; everything above
// this package deals in already-acquired chunks.
package sysalloc

import "golang.org/x/xerrors"

// ErrOutOfMemory is returned by Backend.Acquire when the underlying
// system allocator cannot satisfy the request.
var ErrOutOfMemory = xerrors.New("sysalloc: out of memory")

// Backend acquires and releases raw, aligned byte chunks on behalf of a
// pool. Implementations never inspect or reuse the bytes they hand back
// until Release is called on that same slice.
type Backend interface {
	// Acquire returns a zero-initialized slice of exactly size bytes,
	// whose first byte is aligned to align (a power of two). It returns
	// ErrOutOfMemory, wrapped with call-site context, if the request
	// cannot be satisfied.
	Acquire(size, align int) ([]byte, error)

	// Release returns a slice previously obtained from Acquire back to
	// the system. Implementations must not be called with any other
	// slice.
	Release(b []byte)
}
