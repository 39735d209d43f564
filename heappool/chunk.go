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

// chunkRange records the payload byte range of one acquired chunk, kept
// in a pool-wide, start-address-sorted slice so any block address can be
// mapped back to its owning chunk in O(log n). validMarker uses that
// lookup to reject addresses outside every owned chunk; Stats and Close
// walk the same slice. No in-band next-chunk pointer is kept: in Go, the
// chunk objects are already GC-kept-alive, ordinary values, so an
// address index is the idiomatic equivalent.
type chunkRange struct {
	data  []byte // backing bytes from the sysalloc backend
	start uintptr
	end   uintptr // start + len(data)
}

func (c *chunkRange) contains(addr uintptr) bool {
	return addr >= c.start && addr < c.end
}
