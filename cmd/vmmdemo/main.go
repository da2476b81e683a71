// Command vmmdemo brings up a Manager_t, drives a handful of
// concurrent user-thread workloads against it, and prints the resulting
// statistics. It plays the bring-up role the teacher's chentry and mkfs
// commands play for their own subsystems: a small, disposable driver
// around the real package, not part of the library surface itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"uservm/internal/vmm"
)

func main() {
	frames := flag.Int("frames", 4, "number of physical frames in the pool")
	pages := flag.Int("pages", 16, "number of virtual pages (N_v)")
	slots := flag.Int("slots", 17, "number of pagefile slots, including reserved slot 0")
	workers := flag.Int("workers", 4, "number of concurrent user-thread workloads")
	ops := flag.Int("ops", 200, "accesses performed per worker")
	flag.Parse()

	if *pages < 1 || *frames < 1 || *slots < 2 {
		log.Fatal("vmmdemo: pages and frames must be >= 1, slots must be >= 2")
	}

	m := vmm.New(vmm.Config{
		VirtualPages:   *pages,
		PhysicalFrames: *frames,
		PagefileSlots:  *slots,
	})
	m.Start()

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			// Each worker owns the pages congruent to its id mod
			// *workers, so two workers never race on the same VA: the
			// round-trip check below only holds for a page nothing
			// else is concurrently storing to.
			var myPages []int
			for p := workerID; p < *pages; p += *workers {
				myPages = append(myPages, p)
			}
			if len(myPages) == 0 {
				return
			}

			rng := rand.New(rand.NewSource(int64(workerID) + 1))
			for i := 0; i < *ops; i++ {
				idx := myPages[rng.Intn(len(myPages))]
				va := m.PageAt(idx)
				b := byte(idx ^ workerID)
				m.Store(workerID, va, b)
				if got := m.Access(workerID, va); got != b {
					log.Fatalf("worker %d: page %d round-trip mismatch: wrote %#x, read %#x", workerID, idx, b, got)
				}
			}
		}(w)
	}
	wg.Wait()

	// Give a trimmer or writer pass still pending from the workload's
	// last start_trim/start_write signal a chance to run before shutdown.
	// Nothing signals the trimmer here, so pages left Active stay Active.
	time.Sleep(10 * time.Millisecond)

	if err := m.Shutdown(); err != nil {
		log.Fatalf("vmmdemo: shutdown: %v", err)
	}

	fmt.Printf("frames=%d pages=%d slots=%d workers=%d ops/worker=%d\n",
		*frames, *pages, *slots, *workers, *ops)
	fmt.Print(m.Stats.String())
}
