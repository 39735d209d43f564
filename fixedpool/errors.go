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

import "golang.org/x/xerrors"

// ErrForeignPointer is returned by Deallocate when the pointer's marker
// does not match what this pool would have written there — either it
// was never produced by Allocate on this instance, or it has already
// been deallocated (stale marker). fixedpool's policy is to report this
// rather than silently ignore it, so a caller driving many short-lived
// pools notices misuse immediately.
var ErrForeignPointer = xerrors.New("fixedpool: pointer not from this pool")
