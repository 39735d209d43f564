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

// Command poolbench runs a small, independent allocation workload against
// one fixedpool or heappool instance per worker and reports occupancy.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/memarena/pool/fixedpool"
	"github.com/memarena/pool/heappool"
	"github.com/memarena/pool/poolstats"
	"github.com/memarena/pool/sysalloc"
)

const usage = `poolbench.
Usage:
  poolbench -h | --help
  poolbench [--mode=MODE] [--backend=BACKEND] [--workers=N] [--ops=OPS] [--size=BYTES]
Options:
  -h --help          Show this screen.
  --mode=MODE        fixed or heap. [default: heap]
  --backend=BACKEND  go or mmap. mmap is unix only. [default: go]
  --workers=N        Number of independent pool instances to run concurrently. [default: 4]
  --ops=OPS          Allocate/deallocate operations per worker. [default: 10000]
  --size=BYTES       Fixed block size, or max variable-size request. [default: 64]`

type config struct {
	Mode    string
	Backend string
	Workers int
	Ops     int
	Size    int
}

func main() {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var raw struct {
		Mode    string
		Backend string
		Workers string
		Ops     string
		Size    string
	}
	if err := opts.Bind(&raw); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := config{Mode: raw.Mode, Backend: raw.Backend}
	cfg.Workers, err = strconv.Atoi(raw.Workers)
	if err != nil {
		fail("--workers must be an integer: %v", err)
	}
	cfg.Ops, err = strconv.Atoi(raw.Ops)
	if err != nil {
		fail("--ops must be an integer: %v", err)
	}
	cfg.Size, err = strconv.Atoi(raw.Size)
	if err != nil {
		fail("--size must be an integer: %v", err)
	}

	colorOK := isatty.IsTerminal(os.Stdout.Fd())
	label := color.New(color.FgCyan)
	if !colorOK {
		label.DisableColor()
	}

	snapshots := make([]poolstats.Snapshot, cfg.Workers)
	runIDs := make([]uuid.UUID, cfg.Workers)
	var g errgroup.Group
	for w := 0; w < cfg.Workers; w++ {
		w := w
		runIDs[w] = uuid.New()
		g.Go(func() error {
			snap, err := runWorker(cfg)
			snapshots[w] = snap
			return err
		})
	}
	if err := g.Wait(); err != nil {
		fail("worker failed: %v", err)
	}

	var totalLive, totalFree int64
	for i, snap := range snapshots {
		label.Printf("worker %s", runIDs[i])
		fmt.Printf(" chunks=%d live=%s free=%s\n",
			snap.Chunks, humanize.Bytes(uint64(snap.LiveBytes)), humanize.Bytes(uint64(snap.FreeBytes)))
		totalLive += snap.LiveBytes
		totalFree += snap.FreeBytes
	}
	fmt.Printf("total: live=%s free=%s\n", humanize.Bytes(uint64(totalLive)), humanize.Bytes(uint64(totalFree)))
}

func runWorker(cfg config) (poolstats.Snapshot, error) {
	backend := sysalloc.Backend(sysalloc.NewGo())
	switch cfg.Backend {
	case "", "go":
	case "mmap":
		m, err := newMmapBackend()
		if err != nil {
			return poolstats.Snapshot{}, err
		}
		backend = m
	default:
		return poolstats.Snapshot{}, fmt.Errorf("unknown --backend %q, want go or mmap", cfg.Backend)
	}

	r := rand.New(rand.NewSource(rand.Int63()))

	switch cfg.Mode {
	case "fixed":
		p := fixedpool.NewSized(cfg.Size, fixedpool.DefaultChunkLen, backend)
		defer p.Close()
		var live [][]byte
		for i := 0; i < cfg.Ops; i++ {
			if len(live) > 0 && r.Intn(2) == 0 {
				idx := r.Intn(len(live))
				_ = p.Deallocate(live[idx])
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
				continue
			}
			b, err := p.Allocate()
			if err != nil {
				return poolstats.Snapshot{}, err
			}
			live = append(live, b)
		}
		return p.Stats(), nil
	case "heap":
		p := heappool.New(backend)
		defer p.Close()
		var live [][]byte
		for i := 0; i < cfg.Ops; i++ {
			if len(live) > 0 && r.Intn(2) == 0 {
				idx := r.Intn(len(live))
				p.Deallocate(live[idx])
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
				continue
			}
			b, err := p.Allocate(1 + r.Intn(cfg.Size))
			if err != nil {
				return poolstats.Snapshot{}, err
			}
			live = append(live, b)
		}
		return p.Stats(), nil
	default:
		return poolstats.Snapshot{}, fmt.Errorf("unknown --mode %q, want fixed or heap", cfg.Mode)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
