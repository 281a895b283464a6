// Package concurrent provides a generic ordered-fan-out helper used by
// the CLI's optional multi-shard batch-ingestion mode: a bounded
// errgroup that runs independent shard-ingestion jobs concurrently
// while preserving input order in the result slice.
package concurrent

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// MapWithError runs f over inputs with at most concurrency goroutines
// in flight (0 disables concurrency, negative means unbounded),
// returning outputs in the same order as inputs. The first error from
// any f is returned once every call has finished; an error does not
// stop or cancel the calls that remain.
func MapWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	results := make([]orderedOutput[Tout], len(inputs))
	for i := range inputs {
		i, in := i, inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			results[i] = orderedOutput[Tout]{order: i, output: out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})

	outputs := make([]Tout, len(results))
	for i, r := range results {
		outputs[i] = r.output
	}
	return outputs, nil
}
