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

// Package poolstats provides a point-in-time introspection snapshot for
// either facility: a plain data read, not a telemetry stream. It exists
// so both fixedpool and heappool can expose the same shape of answer to
// "how much is live right now", usable from tests, from cmd/poolbench,
// or from an operator's ad hoc query against an exported JSON blob.
package poolstats

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Snapshot is a read-only occupancy report for one pool instance.
type Snapshot struct {
	Chunks     int
	LiveBlocks int
	FreeBlocks int
	LiveBytes  int64
	FreeBytes  int64
}

// JSON renders the snapshot as a JSON object, built incrementally with
// sjson so the shape can grow without hand-rolled struct tags.
func (s Snapshot) JSON() string {
	js := "{}"
	js, _ = sjson.Set(js, "chunks", s.Chunks)
	js, _ = sjson.Set(js, "liveBlocks", s.LiveBlocks)
	js, _ = sjson.Set(js, "freeBlocks", s.FreeBlocks)
	js, _ = sjson.Set(js, "liveBytes", s.LiveBytes)
	js, _ = sjson.Set(js, "freeBytes", s.FreeBytes)
	return js
}

// FromJSON parses a snapshot previously produced by JSON, for tooling
// that only has the serialized form (e.g. a log line) to inspect.
func FromJSON(js string) Snapshot {
	return Snapshot{
		Chunks:     int(gjson.Get(js, "chunks").Int()),
		LiveBlocks: int(gjson.Get(js, "liveBlocks").Int()),
		FreeBlocks: int(gjson.Get(js, "freeBlocks").Int()),
		LiveBytes:  gjson.Get(js, "liveBytes").Int(),
		FreeBytes:  gjson.Get(js, "freeBytes").Int(),
	}
}
