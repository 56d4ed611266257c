package benchmarks

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/comalice/pollfsm"
)

func BenchmarkMemoryFootprint(b *testing.B) {
	for _, n := range []int{4, 64, 1024} {
		b.Run(fmt.Sprintf("states=%d", n), func(b *testing.B) {
			config := GenRingConfig(n)
			numMachines := 100
			var before runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&before)
			machines := make([]*pollfsm.Machine, numMachines)
			for i := range machines {
				m, err := config.Build(nil)
				if err != nil {
					b.Fatal(err)
				}
				machines[i] = m
			}
			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			perMachine := (after.TotalAlloc - before.TotalAlloc) / uint64(numMachines)
			b.ReportMetric(float64(perMachine)/1024, "KB/machine")
			runtime.KeepAlive(machines)
		})
	}
}
