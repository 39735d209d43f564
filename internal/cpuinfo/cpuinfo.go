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

// Package cpuinfo resolves the platform alignment granularity that the
// pool implementations round block payloads up to.
package cpuinfo

import "github.com/klauspost/cpuid/v2"

// PointerAlign is the minimum alignment every returned pointer must
// satisfy, regardless of platform: the size of a machine word.
const PointerAlign = 8

// CacheLineAlign is the platform's cache line size, probed once at
// package init via cpuid. Blocks large enough to plausibly span a cache
// line are rounded up to this boundary so two unrelated allocations
// never share a line; small blocks only need PointerAlign.
var CacheLineAlign = resolveCacheLine()

func resolveCacheLine() int {
	line := cpuid.CPU.CacheLine
	if line <= 0 {
		return 64
	}
	return line
}

// Align rounds size up to the given power-of-two alignment.
func Align(size, align int) int {
	return (size + align - 1) &^ (align - 1)
}

// ForSize returns the alignment a block of the given payload size should
// be rounded to: PointerAlign for small requests, CacheLineAlign once a
// request is large enough that false sharing with a neighboring block
// would matter. The caller decides what that alignment is applied to:
// fixedpool uses one blockSize for an entire pool, so applying it to the
// uniform block stride delivers per-payload alignment for every block.
// heappool's block sizes vary per request, so it applies ForSize only to
// the backing chunk's own base address; interior payload addresses
// within a chunk carry PointerAlign only.
func ForSize(size int) int {
	if size >= CacheLineAlign {
		return CacheLineAlign
	}
	return PointerAlign
}
