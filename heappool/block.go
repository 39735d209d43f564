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

import "unsafe"

// A block is identified solely by the address of its header; everything
// else is computed from the header word at that address. This file is
// the narrow unsafe boundary every other file in the package routes
// through to touch raw memory.

func ptrAt(addr uintptr) unsafe.Pointer { return unsafe.Pointer(addr) } //nolint:govet

func wordAt(addr uintptr) *uint64 { return (*uint64)(ptrAt(addr)) }

func bytesAt(addr uintptr, n int) []byte { return unsafe.Slice((*byte)(ptrAt(addr)), n) }

func addressOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// AddressOf exposes the address backing a slice returned by Allocate, for
// callers that want to key their own diagnostics off allocation identity.
func AddressOf(b []byte) uintptr { return addressOf(b) }

func headerWord(addr uintptr) uint64     { return *wordAt(addr) }
func setHeaderWord(addr uintptr, w uint64) { *wordAt(addr) = w }

func blockSizeOf(addr uintptr) int { return unpackSize(headerWord(addr)) }
func isFree(addr uintptr) bool     { return unpackFree(headerWord(addr)) }
func prevIsFree(addr uintptr) bool { return unpackPrevFree(headerWord(addr)) }
func isLast(addr uintptr) bool     { return unpackLast(headerWord(addr)) }

func setFlags(addr uintptr, size int, free, prevFree, last bool) {
	setHeaderWord(addr, packHeader(size, free, prevFree, last))
}

func setPrevFree(addr uintptr, v bool) {
	size := blockSizeOf(addr)
	setFlags(addr, size, isFree(addr), v, isLast(addr))
}

func payloadAddr(addr uintptr) uintptr { return addr + headerSize }

func tagAddr(addr uintptr) uintptr { return addr + 8 }

// footerAddr is only meaningful while the block is free.
func footerAddr(addr uintptr) uintptr { return addr + uintptr(blockSizeOf(addr)) - footerSize }

func writeFooter(addr uintptr) { *wordAt(footerAddr(addr)) = uint64(addr) }

func readFooterOwner(nextAddr uintptr) uintptr {
	return uintptr(*wordAt(nextAddr - footerSize))
}

// nextBlockAddr returns the address of the block immediately following
// this one in the same chunk, or 0 if this block is last in its chunk.
func nextBlockAddr(addr uintptr) uintptr {
	if isLast(addr) {
		return 0
	}
	return addr + uintptr(blockSizeOf(addr))
}

// prevBlockAddr returns the address of the immediately preceding block
// in the same chunk, using the footer back-pointer; only valid when
// prevIsFree(addr) is true.
func prevBlockAddr(addr uintptr) uintptr { return readFooterOwner(addr) }

// freeLinks: the two words of a free block's payload, holding the
// doubly-linked free-list prev/next.
func flPrevAddr(addr uintptr) uintptr { return uintptr(*wordAt(payloadAddr(addr))) }
func flNextAddr(addr uintptr) uintptr { return uintptr(*wordAt(payloadAddr(addr) + 8)) }
func setFLPrev(addr uintptr, v uintptr) { *wordAt(payloadAddr(addr)) = uint64(v) }
func setFLNext(addr uintptr, v uintptr) { *wordAt(payloadAddr(addr) + 8) = uint64(v) }
