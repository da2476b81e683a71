package stats

import (
	"strings"
	"sync"
	"testing"
)

func TestCounterIncAndAdd(t *testing.T) {
	var c Counter_t
	c.Inc()
	c.Add(4)
	if got := c.Get(); got != 5 {
		t.Fatalf("Get() = %d, want 5", got)
	}
}

func TestGaugeIncDec(t *testing.T) {
	var g Gauge_t
	g.Inc()
	g.Inc()
	g.Dec()
	if got := g.Get(); got != 1 {
		t.Fatalf("Get() = %d, want 1", got)
	}
}

func TestCounterConcurrentInc(t *testing.T) {
	var c Counter_t
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	if got := c.Get(); got != 100 {
		t.Fatalf("Get() = %d, want 100", got)
	}
}

func TestCountersStringIncludesAllFields(t *testing.T) {
	var c Counters_t
	c.Faults.Inc()
	c.Active.Inc()
	s := c.String()
	for _, want := range []string{"Active", "Faults", "Successes", "Redos", "Rescues", "Repurposes", "DiskReads", "TrimWakeups", "Trimmed", "WriteWakeups", "Written", "DiskFull"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing field %q:\n%s", want, s)
		}
	}
}
