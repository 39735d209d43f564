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

import "unsafe"

func addressOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// AddressOf exposes the address backing a slice returned by Allocate,
// for callers that want to key their own diagnostics off allocation
// identity the same way a debug allocator tracks live allocations.
func AddressOf(b []byte) uintptr { return addressOf(b) }

func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet
}

// bytesAt views n bytes starting at addr as a slice. addr must fall
// within a chunk's backing array that the pool keeps alive for as long
// as the returned slice might be read.
func bytesAt(addr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(ptrAt(addr)), n)
}
