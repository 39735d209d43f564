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

//go:build unix

package sysalloc

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Mmap is a Backend over anonymous mmap pages, playing the same role the
// teacher's cgo-backed CgoArrowAllocator/Mallocator play: a real,
// OS-level "system allocator" distinct from the Go runtime's own heap.
// Every acquisition is rounded up to a whole number of pages, so the
// returned slice is always page-aligned and satisfies any align the
// caller asks for up to the page size.
type Mmap struct {
	pageSize int
}

// NewMmap constructs an mmap-backed Backend.
func NewMmap() *Mmap {
	return &Mmap{pageSize: os.Getpagesize()}
}

func (m *Mmap) Acquire(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, xerrors.Errorf("sysalloc: negative size %d (%w)", size, ErrOutOfMemory)
	}
	if align > m.pageSize {
		return nil, xerrors.Errorf("sysalloc: alignment %d exceeds page size %d (%w)", align, m.pageSize, ErrOutOfMemory)
	}
	n := roundUpToMultipleOf(size, m.pageSize)
	if n == 0 {
		n = m.pageSize
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, xerrors.Errorf("sysalloc: mmap %d bytes failed (%v): %w", n, err, ErrOutOfMemory)
	}
	// cap stays at the full page-rounded mapping size so Release can
	// recover the exact region Munmap requires.
	return b[:size:n], nil
}

func (m *Mmap) Release(b []byte) {
	if cap(b) == 0 {
		return
	}
	full := b[:cap(b):cap(b)]
	_ = unix.Munmap(full)
}

var _ Backend = (*Mmap)(nil)
