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

// freelist is the intrusive doubly-linked free set (variant A, per the
// design notes): insertion and removal are O(1); search is first-fit,
// O(n) in the number of free blocks. Every node is a block currently
// flagged free; the list threads through two words of that block's own
// payload (see flPrevAddr/flNextAddr in block.go).
type freelist struct {
	head uintptr
}

func (f *freelist) insertFront(addr uintptr) {
	setFLPrev(addr, 0)
	setFLNext(addr, f.head)
	if f.head != 0 {
		setFLPrev(f.head, addr)
	}
	f.head = addr
}

func (f *freelist) remove(addr uintptr) {
	prev := flPrevAddr(addr)
	next := flNextAddr(addr)
	if prev != 0 {
		setFLNext(prev, next)
	} else {
		f.head = next
	}
	if next != 0 {
		setFLPrev(next, prev)
	}
}

// firstFit returns the address of the first free block whose size is at
// least needed, or 0 if none qualifies.
func (f *freelist) firstFit(needed int) uintptr {
	for addr := f.head; addr != 0; addr = flNextAddr(addr) {
		if blockSizeOf(addr) >= needed {
			return addr
		}
	}
	return 0
}

func (f *freelist) count() int {
	n := 0
	for addr := f.head; addr != 0; addr = flNextAddr(addr) {
		n++
	}
	return n
}
