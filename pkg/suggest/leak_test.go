//go:build test

package suggest

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var leakPatterns = [][]string{
	{"i", "ip", "iph", "ipho", "iphon", "iphone"},
	{"s", "sa", "sam", "sams", "samsung"},
	{"h", "he", "hea", "head", "headphones"},
	{"l", "la", "lap", "lapt", "laptop"},
	{"k", "ke", "ket", "kett", "kettle"},
	{"w", "wa", "wat", "watc", "watch"},
}

func leakCatalog(n int) []catalog.Product {
	names := []string{"iPhone", "Galaxy", "Headphones", "Laptop", "Kettle", "Watch", "Tablet", "Camera"}
	products := make([]catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, catalog.Product{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("%s %d", names[i%len(names)], i),
			Category: "Electronics",
			Price:    decimal.NewFromInt(int64(10 + i%500)),
		})
	}
	return products
}

func TestMemoryLeakBasic(t *testing.T) {
	products := leakCatalog(2000)
	for _, iterations := range []int{100, 500, 1000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			engine := NewEngine(nil)

			var baseline runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&baseline)
			baselineGoroutines := runtime.NumGoroutine()

			ops := 0
			for i := 0; i < iterations; i++ {
				for _, pattern := range leakPatterns {
					for _, prefix := range pattern {
						_ = engine.Suggest(prefix, products)
						ops++
					}
				}
			}

			var final runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&final)

			memDelta := int64(final.Alloc - baseline.Alloc)
			memPerOp := float64(memDelta) / float64(ops)
			goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
			t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				iterations, ops, memDelta, memPerOp, goroutineDelta)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if goroutineDelta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
			}
		})
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	products := leakCatalog(2000)
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 400},
		{workers: 4, iterationsPerWorker: 100},
		{workers: 8, iterationsPerWorker: 50},
	}

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", cfg.workers, cfg.iterationsPerWorker), func(t *testing.T) {
			engine := NewEngine(nil)

			var baseline runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&baseline)
			baselineGoroutines := runtime.NumGoroutine()

			var wg sync.WaitGroup
			var ops atomic.Int64
			for w := 0; w < cfg.workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < cfg.iterationsPerWorker; i++ {
						for _, pattern := range leakPatterns {
							for _, prefix := range pattern {
								_ = engine.Suggest(prefix, products)
								ops.Add(1)
							}
						}
					}
				}()
			}
			wg.Wait()

			var final runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&final)

			memDelta := int64(final.Alloc - baseline.Alloc)
			memPerOp := float64(memDelta) / float64(ops.Load())
			goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
			t.Logf("workers=%d total_ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				cfg.workers, ops.Load(), memDelta, memPerOp, goroutineDelta)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if goroutineDelta > 3 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
			}
		})
	}
}

func BenchmarkSuggest(b *testing.B) {
	engine := NewEngine(nil)
	products := leakCatalog(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pattern := leakPatterns[i%len(leakPatterns)]
		_ = engine.Suggest(pattern[i%len(pattern)], products)
	}
}
