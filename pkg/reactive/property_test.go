package reactive

import (
	"math/bits"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func reactiveParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100
	return parameters
}

func TestWriteNotifyProperties(t *testing.T) {
	properties := gopter.NewProperties(reactiveParameters())

	properties.Property("every subscriber runs exactly once in subscription order", prop.ForAll(
		func(n int) bool {
			rt := NewRuntime()
			s := NewSignal(rt, 0)

			var calls []int
			for i := 0; i < n; i++ {
				s.Subscribe(NewSubscriber(func() { calls = append(calls, i) }))
			}
			s.Set(1)

			if len(calls) != n {
				return false
			}
			for i, got := range calls {
				if got != i {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 32),
	))

	properties.Property("subscribers removed mid-round are skipped", prop.ForAll(
		func(n int, cut int) bool {
			if cut > n {
				cut = n
			}
			rt := NewRuntime()
			s := NewSignal(rt, 0)

			subs := make([]*Subscriber, n)
			called := make([]bool, n)
			for i := 0; i < n; i++ {
				subs[i] = NewSubscriber(func() {
					called[i] = true
					if i == 0 {
						for _, later := range subs[cut:] {
							s.Unsubscribe(later)
						}
					}
				})
				s.Subscribe(subs[i])
			}
			s.Set(1)

			for i := range called {
				want := i == 0 || i < cut
				if called[i] != want {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 16),
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}

func TestEffectDependencyProperties(t *testing.T) {
	properties := gopter.NewProperties(reactiveParameters())

	properties.Property("tracked set equals the signals read on the last run", prop.ForAll(
		func(masks []uint8) bool {
			rt := NewRuntime()
			mask := NewSignal(rt, uint8(0))
			cells := make([]*Signal[int], 8)
			for i := range cells {
				cells[i] = NewSignal(rt, i)
			}

			e := rt.MustEffect(func() {
				m := mask.Value()
				for i, cell := range cells {
					if m&(1<<i) != 0 {
						_ = cell.Value()
					}
				}
			})
			defer e.Dispose()

			for _, m := range masks {
				mask.Set(m)
				if e.NumDependencies() != bits.OnesCount8(m)+1 {
					return false
				}
				for i, cell := range cells {
					read := m&(1<<i) != 0
					if e.DependsOn(cell) != read {
						return false
					}
					if (cell.NumSubscribers() == 1) != read {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
