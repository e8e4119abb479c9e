//go:build property

package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("flush keeps one event per path in first-seen order", prop.ForAll(
		func(ids []int) bool {
			d := newDebouncer(time.Hour)
			var want []string
			seen := map[string]bool{}
			for i, id := range ids {
				path := fmt.Sprintf("t%d.html", id)
				d.pending = append(d.pending, ChangeEvent{Path: path, Size: int64(i)})
				if !seen[path] {
					seen[path] = true
					want = append(want, path)
				}
			}
			d.flush()

			if len(ids) == 0 {
				return len(d.output) == 0
			}
			batch := <-d.output
			if len(batch) != len(want) {
				return false
			}
			for i, ev := range batch {
				if ev.Path != want[i] {
					return false
				}
			}

			return len(d.pending) == 0
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("flush keeps the latest event of a path", prop.ForAll(
		func(n int) bool {
			d := newDebouncer(time.Hour)
			for i := 0; i < n; i++ {
				d.pending = append(d.pending, ChangeEvent{Path: "page.html", Size: int64(i)})
			}
			d.flush()
			batch := <-d.output

			return len(batch) == 1 && batch[0].Size == int64(n-1)
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
