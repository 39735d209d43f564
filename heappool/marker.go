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

import (
	"encoding/binary"
	"math/rand"

	"github.com/zeebo/xxh3"
)

func newSalt() uint64 { return rand.Uint64() }

func markerFor(addr uintptr, salt uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(addr))
	return xxh3.HashSeed(buf[:], salt)
}

func tagWord(addr uintptr) *uint64 { return wordAt(tagAddr(addr)) }

func setTagWord(addr uintptr, v uint64) { *tagWord(addr) = v }
